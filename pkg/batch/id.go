package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID generates a unique batch identifier anchored on the primary issue.
// Format: {primary}-{UTC timestamp}-{8-char uuid fragment}. The uuid fragment
// keeps IDs unique even when two batches share a primary issue within the
// same second.
func NewID(primaryIssue int) string {
	timestamp := time.Now().UTC().Format("20060102150405")
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%d-%s-%s", primaryIssue, timestamp, suffix)
}
