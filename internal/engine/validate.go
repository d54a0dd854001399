package engine

import (
	"context"
	"fmt"

	"github.com/dyluth/drey/pkg/batch"
)

// validateBatches applies the validation oracle to every assembled batch and
// returns the final set: accepted batches, oracle-suggested sub-batches, or
// singleton fallbacks. The stage never drops an issue: a batch the oracle
// rejects without usable splits, or a batch whose validation call itself
// fails, degrades to one singleton batch per member.
//
// When validation is disabled every assembled batch is accepted as-is.
func (bt *Batcher) validateBatches(ctx context.Context, assembled []*batch.Batch, matrix ScoreMatrix) []*batch.Batch {
	validated := make([]*batch.Batch, 0, len(assembled))

	for _, b := range assembled {
		if !bt.opts.ValidationEnabled || bt.validator == nil {
			b.Validated = true
			b.ValidationConfidence = 1.0
			b.ValidationReasoning = "validation disabled"
			b.Theme = firstTheme(b)
			validated = append(validated, b)
			continue
		}

		result, err := bt.validator.ValidateBatch(ctx, ValidationRequest{
			BatchID:      b.ID,
			PrimaryIssue: b.PrimaryIssue,
			Issues:       b.Issues,
			Themes:       b.CommonThemes,
		})
		if err != nil {
			// The oracle failing is not a reason to lose issues: degrade to
			// singletons, same as an invalid verdict without splits.
			bt.logEvent("batch_validation_failed", map[string]interface{}{
				"batch_id": b.ID,
				"error":    err.Error(),
			})
			validated = append(validated, bt.degradeToSingletons(b, 0.0,
				fmt.Sprintf("validation failed for batch %s: %v", b.ID, err))...)
			continue
		}

		if result.Valid {
			b.Validated = true
			b.ValidationConfidence = result.Confidence
			b.ValidationReasoning = result.Reasoning
			b.Theme = result.CommonTheme
			if b.Theme == "" {
				b.Theme = firstTheme(b)
			}
			validated = append(validated, b)

			bt.logEvent("batch_validated", map[string]interface{}{
				"batch_id":   b.ID,
				"confidence": result.Confidence,
			})
			continue
		}

		if len(result.SuggestedSplits) > 0 {
			validated = append(validated, bt.splitBatch(b, result, matrix)...)
			continue
		}

		bt.logEvent("batch_rejected", map[string]interface{}{
			"batch_id":  b.ID,
			"reasoning": result.Reasoning,
		})
		validated = append(validated, bt.degradeToSingletons(b, result.Confidence,
			fmt.Sprintf("split from invalid batch %s: %s", b.ID, result.Reasoning))...)
	}

	return validated
}

// splitBatch re-assembles the oracle's suggested sub-partitions into new
// batches, reusing the original pairwise score matrix for primary selection
// and member similarity. Sub-partitions below the minimum batch size are
// skipped, matching the assembly rules for first-pass clusters.
func (bt *Batcher) splitBatch(original *batch.Batch, result ValidationResult, matrix ScoreMatrix) []*batch.Batch {
	pool := issuesFromMembers(original.Issues)

	var splits []*batch.Batch
	for _, subset := range result.SuggestedSplits {
		if len(subset) < bt.opts.MinBatchSize {
			continue
		}

		sub := assembleBatch(original.Pool, subset, pool, matrix)
		if sub == nil {
			continue
		}

		sub.Validated = true
		sub.ValidationConfidence = result.Confidence
		sub.ValidationReasoning = fmt.Sprintf("split from %s: %s", original.ID, result.Reasoning)
		sub.Theme = result.CommonTheme
		splits = append(splits, sub)

		bt.logEvent("batch_split", map[string]interface{}{
			"original_batch_id": original.ID,
			"batch_id":          sub.ID,
			"issues":            sub.IssueNumbers(),
		})
	}

	return splits
}

// degradeToSingletons replaces a rejected batch with one single-issue batch
// per original member, preserving every issue.
func (bt *Batcher) degradeToSingletons(original *batch.Batch, confidence float64, reasoning string) []*batch.Batch {
	singletons := make([]*batch.Batch, 0, len(original.Issues))

	for _, m := range original.Issues {
		member := m
		member.SimilarityToPrimary = 1.0 // each issue anchors its own batch now

		single := &batch.Batch{
			ID:                   batch.NewID(member.IssueNumber),
			Pool:                 original.Pool,
			PrimaryIssue:         member.IssueNumber,
			Issues:               []batch.Member{member},
			Status:               batch.StatusPending,
			CreatedAt:            original.CreatedAt,
			UpdatedAt:            original.UpdatedAt,
			Validated:            true,
			ValidationConfidence: confidence,
			ValidationReasoning:  reasoning,
		}
		singletons = append(singletons, single)
	}

	return singletons
}

// issuesFromMembers reconstructs the issue pool of a batch from its members,
// preserving member order as the discovery order.
func issuesFromMembers(members []batch.Member) []batch.Issue {
	issues := make([]batch.Issue, len(members))
	for i, m := range members {
		issues[i] = batch.Issue{
			Number: m.IssueNumber,
			Title:  m.Title,
			Body:   m.Body,
			Labels: m.Labels,
		}
	}
	return issues
}

func firstTheme(b *batch.Batch) string {
	if len(b.CommonThemes) > 0 {
		return b.CommonThemes[0]
	}
	return ""
}
