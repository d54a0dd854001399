package batch

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadIssues reads a JSON array of issues from a file. This is the input
// format of `drey form --items`: drey does not talk to trackers itself,
// callers export the open-issue pool and hand it over as a file.
func LoadIssues(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read issues file: %w", err)
	}

	var issues []Issue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("failed to parse issues file: %w", err)
	}

	seen := make(map[int]bool, len(issues))
	for _, issue := range issues {
		if seen[issue.Number] {
			return nil, fmt.Errorf("duplicate issue number %d in issues file", issue.Number)
		}
		seen[issue.Number] = true
	}

	return issues, nil
}
