package engine

import (
	"context"
	"fmt"

	"github.com/dyluth/drey/pkg/batch"
)

// pairKey identifies an ordered issue pair in the score matrix.
type pairKey struct {
	a, b int
}

// ScoreMatrix is the sparse pairwise similarity map. Only pairs the oracle
// judged related carry an entry, and every entry is stored under both
// orderings so lookups never need to normalize the pair.
type ScoreMatrix map[pairKey]float64

// Score returns the similarity score for the pair, if the oracle judged it
// related.
func (m ScoreMatrix) Score(a, b int) (float64, bool) {
	score, ok := m[pairKey{a, b}]
	return score, ok
}

// Related reports whether the oracle judged the pair related.
func (m ScoreMatrix) Related(a, b int) bool {
	_, ok := m[pairKey{a, b}]
	return ok
}

func (m ScoreMatrix) set(a, b int, score float64) {
	m[pairKey{a, b}] = score
	m[pairKey{b, a}] = score
}

// buildSimilarityMatrix drives the similarity oracle over every unordered
// pair of the pool exactly once.
//
// It returns the sparse score matrix, populated only for pairs judged
// related, and a dense reasoning map (issue → other issue → rationale)
// populated for every pair regardless of relatedness, kept for audit. A
// failed comparison is logged and the pair treated as unrelated; a single
// bad comparison must not block batch formation for the rest of the pool.
func (bt *Batcher) buildSimilarityMatrix(ctx context.Context, issues []batch.Issue) (ScoreMatrix, map[int]map[int]string) {
	matrix := make(ScoreMatrix)
	reasoning := make(map[int]map[int]string, len(issues))
	for _, issue := range issues {
		reasoning[issue.Number] = make(map[int]string)
	}

	n := len(issues)
	bt.logEvent("similarity_matrix_started", map[string]interface{}{
		"issues": n,
		"pairs":  n * (n - 1) / 2,
	})

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := issues[i], issues[j]

			judgment, err := bt.similarity.Compare(ctx, a, b)
			if err != nil {
				// Treat the pair as unrelated and keep going
				judgment = batch.SimilarityJudgment{
					Reasoning: fmt.Sprintf("comparison failed: %v", err),
				}
				bt.logEvent("similarity_comparison_failed", map[string]interface{}{
					"issue_a": a.Number,
					"issue_b": b.Number,
					"error":   err.Error(),
				})
			}

			reasoning[a.Number][b.Number] = judgment.Reasoning
			reasoning[b.Number][a.Number] = judgment.Reasoning

			if judgment.Related {
				matrix.set(a.Number, b.Number, judgment.Score)
			}
		}
	}

	return matrix, reasoning
}
