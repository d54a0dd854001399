// Package engine implements the drey batch-formation engine: it drives the
// similarity oracle over a pool of issues, clusters related issues, assembles
// clusters into batches, validates them, and persists the result through a
// store. One engine invocation is a single logical thread of control; the
// only suspension points are the oracle calls, which are awaited
// sequentially. Concurrent runs against the same pool must be serialized by
// the caller.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dyluth/drey/internal/store"
	"github.com/dyluth/drey/pkg/batch"
)

// Default batching parameters, applied when Options leaves them zero.
const (
	DefaultSimilarityThreshold = 0.7
	DefaultMinBatchSize        = 1
	DefaultMaxBatchSize        = 5
)

// Options configures a Batcher.
type Options struct {
	Pool                string  // Owning repository or issue-pool identifier (required)
	SimilarityThreshold float64 // Minimum mean affinity to merge clusters
	MinBatchSize        int     // Clusters below this size are not batched
	MaxBatchSize        int     // Hard cap on batch membership
	ValidationEnabled   bool    // Whether assembled batches go through the validation oracle
}

// Batcher groups related issues into durable batches. It is the composition
// root of the engine: a store, a similarity oracle, and an optional
// validation oracle, driven by FormBatches.
type Batcher struct {
	store      store.Store
	similarity SimilarityOracle
	validator  ValidationOracle
	opts       Options
}

// New creates a Batcher. The validator may be nil when validation is
// disabled. Zero-valued batching parameters take the package defaults.
func New(st store.Store, similarity SimilarityOracle, validator ValidationOracle, opts Options) (*Batcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if similarity == nil {
		return nil, fmt.Errorf("similarity oracle is required")
	}
	if opts.Pool == "" {
		return nil, fmt.Errorf("pool name cannot be empty")
	}
	if opts.ValidationEnabled && validator == nil {
		return nil, fmt.Errorf("validation enabled but no validation oracle provided")
	}

	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.MinBatchSize == 0 {
		opts.MinBatchSize = DefaultMinBatchSize
	}
	if opts.MaxBatchSize == 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}

	if opts.SimilarityThreshold < 0 || opts.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be in [0, 1], got %v", opts.SimilarityThreshold)
	}
	if opts.MinBatchSize < 1 {
		return nil, fmt.Errorf("min batch size must be >= 1, got %d", opts.MinBatchSize)
	}
	if opts.MaxBatchSize < opts.MinBatchSize {
		return nil, fmt.Errorf("max batch size (%d) must be >= min batch size (%d)", opts.MaxBatchSize, opts.MinBatchSize)
	}

	return &Batcher{
		store:      st,
		similarity: similarity,
		validator:  validator,
		opts:       opts,
	}, nil
}

// FormBatches runs one batch-formation pass over the given issue pool and
// returns the finalized batches, already persisted and indexed.
//
// Issues already owned by a batch are excluded up front, which makes the run
// idempotent: re-invoking with the same pool only processes the residual,
// unbatched issues. Persistence failures abort the run and surface to the
// caller; batches persisted before the failure remain valid and will be
// excluded from the next run by the index.
func (bt *Batcher) FormBatches(ctx context.Context, issues []batch.Issue) ([]*batch.Batch, error) {
	idx, err := bt.store.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch index: %w", err)
	}

	var available []batch.Issue
	for _, issue := range issues {
		if !idx.Has(issue.Number) {
			available = append(available, issue)
		}
	}

	if len(available) == 0 {
		bt.logEvent("no_unbatched_issues", map[string]interface{}{
			"pool_size": len(issues),
		})
		return nil, nil
	}

	bt.logEvent("batch_formation_started", map[string]interface{}{
		"pool_size": len(issues),
		"available": len(available),
	})

	matrix, _ := bt.buildSimilarityMatrix(ctx, available)

	numbers := make([]int, len(available))
	for i, issue := range available {
		numbers[i] = issue.Number
	}
	clusters := clusterIssues(numbers, matrix, bt.opts.SimilarityThreshold, bt.opts.MaxBatchSize)

	var assembled []*batch.Batch
	for _, cluster := range clusters {
		if len(cluster) < bt.opts.MinBatchSize {
			continue
		}
		if b := assembleBatch(bt.opts.Pool, cluster, available, matrix); b != nil {
			assembled = append(assembled, b)
		}
	}

	finalized := bt.validateBatches(ctx, assembled, matrix)

	// Persist: record first, then index claim. A crash between the two can
	// only leave an unclaimed record, never an index entry without a record.
	for _, b := range finalized {
		if err := bt.store.SaveBatch(ctx, b); err != nil {
			return nil, fmt.Errorf("failed to persist batch %s: %w", b.ID, err)
		}

		for _, n := range b.IssueNumbers() {
			idx.Assign(n, b.ID)
		}
		if err := bt.store.SaveIndex(ctx, idx); err != nil {
			return nil, fmt.Errorf("failed to persist batch index: %w", err)
		}

		bt.logEvent("batch_saved", map[string]interface{}{
			"batch_id":   b.ID,
			"issues":     b.IssueNumbers(),
			"validated":  b.Validated,
			"confidence": b.ValidationConfidence,
		})
	}

	return finalized, nil
}

// GetBatchForIssue returns the batch owning the given issue.
// Returns store.ErrNotFound if the issue is not in any batch.
func (bt *Batcher) GetBatchForIssue(ctx context.Context, issueNumber int) (*batch.Batch, error) {
	idx, err := bt.store.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch index: %w", err)
	}

	batchID, ok := idx.BatchFor(issueNumber)
	if !ok {
		return nil, fmt.Errorf("issue %d is not batched: %w", issueNumber, store.ErrNotFound)
	}

	return bt.store.GetBatch(ctx, batchID)
}

// IsIssueBatched reports whether the issue is already owned by a batch.
func (bt *Batcher) IsIssueBatched(ctx context.Context, issueNumber int) (bool, error) {
	idx, err := bt.store.LoadIndex(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load batch index: %w", err)
	}
	return idx.Has(issueNumber), nil
}

// PendingBatches returns batches queued for downstream spec creation
// (pending or analyzing), most recent first.
func (bt *Batcher) PendingBatches(ctx context.Context) ([]*batch.Batch, error) {
	return bt.listByStatus(ctx, batch.StatusPending, batch.StatusAnalyzing)
}

// ActiveBatches returns batches currently being processed
// (creating_spec, building, or qa_review), most recent first.
func (bt *Batcher) ActiveBatches(ctx context.Context) ([]*batch.Batch, error) {
	return bt.listByStatus(ctx, batch.StatusCreatingSpec, batch.StatusBuilding, batch.StatusQAReview)
}

func (bt *Batcher) listByStatus(ctx context.Context, statuses ...batch.Status) ([]*batch.Batch, error) {
	all, err := bt.store.ListBatches(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*batch.Batch
	for _, b := range all {
		for _, s := range statuses {
			if b.Status == s {
				matched = append(matched, b)
				break
			}
		}
	}
	return matched, nil
}

// UpdateStatus drives the batch lifecycle state machine: it loads the batch,
// applies the transition (enforcing the transition table), and persists the
// result. errMsg is recorded on the batch when non-empty.
func (bt *Batcher) UpdateStatus(ctx context.Context, batchID string, next batch.Status, errMsg string) (*batch.Batch, error) {
	b, err := bt.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	previous := b.Status
	if err := b.TransitionTo(next, errMsg); err != nil {
		return nil, err
	}

	if err := bt.store.SaveBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to persist status update for batch %s: %w", batchID, err)
	}

	bt.logEvent("batch_status_updated", map[string]interface{}{
		"batch_id": b.ID,
		"from":     string(previous),
		"to":       string(next),
	})

	return b, nil
}

// RemoveBatch deletes a batch and releases its issues from the index.
// The index is released and persisted before the record is deleted, so a
// crash in between can only leave an unclaimed record behind.
func (bt *Batcher) RemoveBatch(ctx context.Context, batchID string) error {
	b, err := bt.store.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}

	idx, err := bt.store.LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to load batch index: %w", err)
	}

	for _, n := range b.IssueNumbers() {
		idx.Release(n)
	}
	if err := bt.store.SaveIndex(ctx, idx); err != nil {
		return fmt.Errorf("failed to persist batch index: %w", err)
	}

	if err := bt.store.RemoveBatch(ctx, batchID); err != nil {
		return err
	}

	bt.logEvent("batch_removed", map[string]interface{}{
		"batch_id": batchID,
		"issues":   b.IssueNumbers(),
	})

	return nil
}

// logEvent logs a structured event in JSON format.
func (bt *Batcher) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "batcher"
	data["event_type"] = eventType
	data["pool"] = bt.opts.Pool

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Batcher] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
