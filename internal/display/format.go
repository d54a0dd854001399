// Package display renders batch listings for the drey CLI: a compact table
// for humans, JSONL for tooling, and pretty JSON for single-batch views.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/drey/pkg/batch"
)

// FormatTable writes batches as a formatted table to the provided writer.
// Columns: ID, STATUS, ISSUES (count with primary), VALID (confidence),
// THEME, and AGE. Returns the number of batches formatted.
func FormatTable(w io.Writer, batches []*batch.Batch, pool string) int {
	if len(batches) == 0 {
		fmt.Fprintf(w, "No batches found for pool '%s'\n", pool)
		return 0
	}

	fmt.Fprintf(w, "Batches for pool '%s':\n\n", pool)

	fmt.Fprintf(w, "%-28s %-13s %-16s %-7s %-14s %s\n",
		"ID", "STATUS", "ISSUES", "VALID", "THEME", "AGE")
	fmt.Fprintf(w, "%-28s %-13s %-16s %-7s %-14s %s\n",
		strings.Repeat("-", 28), strings.Repeat("-", 13), strings.Repeat("-", 16),
		"-------", strings.Repeat("-", 14), "--------")

	for _, b := range batches {
		fmt.Fprintf(w, "%-28s %-13s %-16s %-7s %-14s %s\n",
			formatID(b.ID),
			string(b.Status),
			formatIssues(b),
			formatValidated(b),
			formatTheme(b),
			formatAge(b.CreatedAt),
		)
	}

	countMsg := "batch"
	if len(batches) != 1 {
		countMsg = "batches"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(batches), countMsg)

	return len(batches)
}

// FormatJSONL writes batches as line-delimited JSON (JSONL) to the provided
// writer. Each batch is a single JSON object on its own line, ideal for
// streaming into tools like jq.
func FormatJSONL(w io.Writer, batches []*batch.Batch) error {
	for _, b := range batches {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to marshal batch to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", string(data)); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes a single batch as pretty-printed JSON to the
// provided writer. Used by the get command to display complete batch details.
func FormatSingleJSON(w io.Writer, b *batch.Batch) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	fmt.Fprintln(w)

	return nil
}

// formatID truncates long batch IDs for compact display.
func formatID(id string) string {
	if len(id) > 28 {
		return id[:25] + "..."
	}
	return id
}

// formatIssues shows the member count and the primary issue number.
func formatIssues(b *batch.Batch) string {
	if len(b.Issues) == 1 {
		return fmt.Sprintf("1 (#%d)", b.PrimaryIssue)
	}
	return fmt.Sprintf("%d (primary #%d)", len(b.Issues), b.PrimaryIssue)
}

// formatValidated shows the validation confidence as a percentage, or "-"
// for unvalidated batches.
func formatValidated(b *batch.Batch) string {
	if !b.Validated {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", b.ValidationConfidence*100)
}

// formatTheme prefers the refined theme from validation, falling back to the
// first extracted theme. Empty themes return "-".
func formatTheme(b *batch.Batch) string {
	theme := b.Theme
	if theme == "" && len(b.CommonThemes) > 0 {
		theme = b.CommonThemes[0]
	}
	if theme == "" {
		return "-"
	}
	if len(theme) > 14 {
		return theme[:11] + "..."
	}
	return theme
}

// formatAge formats a creation time as relative age like "2m ago", "1h ago".
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
