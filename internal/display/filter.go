package display

import (
	"time"

	"github.com/dyluth/drey/pkg/batch"
)

// Criteria defines filtering criteria for batch listings.
// All filters are ANDed together - a batch must match ALL criteria to pass.
type Criteria struct {
	Since  time.Time    // Zero = no lower bound on creation time
	Until  time.Time    // Zero = no upper bound on creation time
	Status batch.Status // Empty = no status filter
}

// Matches returns true if the batch matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(b *batch.Batch) bool {
	if !c.Since.IsZero() && b.CreatedAt.Before(c.Since) {
		return false
	}
	if !c.Until.IsZero() && b.CreatedAt.After(c.Until) {
		return false
	}

	if c.Status != "" && b.Status != c.Status {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return !c.Since.IsZero() || !c.Until.IsZero() || c.Status != ""
}

// Apply filters the batches down to the ones matching the criteria,
// preserving order.
func (c *Criteria) Apply(batches []*batch.Batch) []*batch.Batch {
	if !c.HasFilters() {
		return batches
	}

	var matched []*batch.Batch
	for _, b := range batches {
		if c.Matches(b) {
			matched = append(matched, b)
		}
	}
	return matched
}
