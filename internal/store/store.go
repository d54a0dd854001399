// Package store provides durable persistence for batches and the
// issue-to-batch index. Two backends implement the same Store contract: a
// file-per-batch JSON store for single-machine use, and a Redis store for
// deployments where several tools share one pool.
//
// Every mutating call is written through before it returns; there is no
// write-behind caching. Callers rely on that for restart safety.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dyluth/drey/pkg/batch"
)

// ErrNotFound is returned when a requested batch does not exist.
// Use IsNotFound to check for it.
var ErrNotFound = errors.New("batch not found")

// IsNotFound returns true if the error indicates a missing batch.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store is the persistence contract for batch records and the issue index.
//
// SaveBatch is create-or-overwrite keyed by batch ID and refreshes the
// batch's UpdatedAt before writing. ListBatches returns batches ordered by
// creation time, most recent first, skipping malformed records with a
// warning rather than aborting the enumeration.
type Store interface {
	SaveBatch(ctx context.Context, b *batch.Batch) error
	GetBatch(ctx context.Context, id string) (*batch.Batch, error)
	ListBatches(ctx context.Context) ([]*batch.Batch, error)
	RemoveBatch(ctx context.Context, id string) error

	LoadIndex(ctx context.Context) (*Index, error)
	SaveIndex(ctx context.Context, idx *Index) error
}

// Index maps issue numbers to the batch that owns them. It is the single
// source of truth for the one-batch-per-issue guarantee.
//
// The index is never held as shared state: callers load it, mutate it, and
// persist it within a single engine invocation. Concurrent runs against the
// same pool must be serialized externally.
type Index struct {
	IssueToBatch map[int]string `json:"issue_to_batch"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{IssueToBatch: make(map[int]string)}
}

// Has reports whether the issue is already owned by a batch.
func (ix *Index) Has(issue int) bool {
	_, ok := ix.IssueToBatch[issue]
	return ok
}

// BatchFor returns the ID of the batch owning the issue, if any.
func (ix *Index) BatchFor(issue int) (string, bool) {
	id, ok := ix.IssueToBatch[issue]
	return id, ok
}

// Assign records the issue as owned by the given batch.
func (ix *Index) Assign(issue int, batchID string) {
	if ix.IssueToBatch == nil {
		ix.IssueToBatch = make(map[int]string)
	}
	ix.IssueToBatch[issue] = batchID
}

// Release removes the issue's ownership entry, if present.
func (ix *Index) Release(issue int) {
	delete(ix.IssueToBatch, issue)
}

// Len returns the number of owned issues.
func (ix *Index) Len() int {
	return len(ix.IssueToBatch)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
