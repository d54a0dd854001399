// Package resolver resolves batch-ID prefixes typed on the command line to
// full batch identifiers.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/drey/internal/store"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Batch IDs start with the primary issue number and a timestamp, so very
// short prefixes would frequently be ambiguous.
const MinShortIDLength = 6

// ResolveBatchID resolves a batch ID or unique prefix to a full batch ID.
//
// An exact match always wins. Otherwise the prefix must be at least
// MinShortIDLength characters and match exactly one stored batch; zero or
// multiple matches return NotFoundError or AmbiguousError respectively.
func ResolveBatchID(ctx context.Context, st store.Store, shortID string) (string, error) {
	// Exact ID fast path
	if _, err := st.GetBatch(ctx, shortID); err == nil {
		return shortID, nil
	} else if !store.IsNotFound(err) {
		return "", fmt.Errorf("failed to look up batch: %w", err)
	}

	if len(shortID) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(shortID))
	}

	batches, err := st.ListBatches(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for batch: %w", err)
	}

	var matches []string
	for _, b := range batches {
		if strings.HasPrefix(b.ID, shortID) {
			matches = append(matches, b.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no batches matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no batches found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple batches matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d batches", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous
// short IDs. Lists all matching IDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d batches:\n", err.ShortID, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the batch."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
