package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/dyluth/drey/pkg/batch"
)

// themeVocabulary is the fixed keyword vocabulary scanned for common themes.
// Matches are reported in vocabulary order, not frequency order. The themes
// are a cheap heuristic label; the validation stage is expected to refine or
// discard them.
var themeVocabulary = []string{
	"authentication",
	"login",
	"oauth",
	"session",
	"api",
	"endpoint",
	"request",
	"response",
	"database",
	"query",
	"connection",
	"timeout",
	"error",
	"exception",
	"crash",
	"bug",
	"performance",
	"slow",
	"memory",
	"leak",
	"ui",
	"display",
	"render",
	"style",
	"test",
	"coverage",
	"assertion",
	"mock",
}

const maxThemes = 5

// extractCommonThemes scans the concatenated lowercase title and body text of
// the issues for vocabulary keywords, returning up to maxThemes matches.
func extractCommonThemes(issues []batch.Issue) []string {
	var sb strings.Builder
	for _, issue := range issues {
		sb.WriteString(issue.Title)
		sb.WriteString(" ")
		sb.WriteString(issue.Body)
		sb.WriteString(" ")
	}
	text := strings.ToLower(sb.String())

	var found []string
	for _, kw := range themeVocabulary {
		if strings.Contains(text, kw) {
			found = append(found, kw)
			if len(found) == maxThemes {
				break
			}
		}
	}

	return found
}

// selectPrimary picks the batch anchor: the cluster member with the highest
// count of related pairwise links to the other members. Ties go to the
// smallest issue number, for determinism.
func selectPrimary(cluster []int, matrix ScoreMatrix) int {
	ordered := append([]int{}, cluster...)
	sort.Ints(ordered)

	primary := ordered[0]
	bestLinks := -1
	for _, candidate := range ordered {
		links := 0
		for _, other := range ordered {
			if candidate != other && matrix.Related(candidate, other) {
				links++
			}
		}
		if links > bestLinks {
			bestLinks = links
			primary = candidate
		}
	}

	return primary
}

// assembleBatch converts one cluster into a pending batch: selects the
// primary, scores and orders the members, and extracts themes. The issues
// slice is the discovery-ordered pool; only members of the cluster are used.
// Returns nil if no issue in the pool matches the cluster.
func assembleBatch(pool string, cluster []int, issues []batch.Issue, matrix ScoreMatrix) *batch.Batch {
	inCluster := make(map[int]bool, len(cluster))
	for _, n := range cluster {
		inCluster[n] = true
	}

	var clusterIssues []batch.Issue
	for _, issue := range issues {
		if inCluster[issue.Number] {
			clusterIssues = append(clusterIssues, issue)
		}
	}
	if len(clusterIssues) == 0 {
		return nil
	}

	primary := selectPrimary(cluster, matrix)

	members := make([]batch.Member, 0, len(clusterIssues))
	for _, issue := range clusterIssues {
		similarity := 0.0
		if issue.Number == primary {
			similarity = 1.0
		} else if score, ok := matrix.Score(primary, issue.Number); ok {
			similarity = score
		}

		members = append(members, batch.Member{
			IssueNumber:         issue.Number,
			Title:               issue.Title,
			Body:                issue.Body,
			Labels:              issue.Labels,
			SimilarityToPrimary: similarity,
		})
	}

	// Primary first, then descending similarity. The stable sort preserves
	// discovery order between equal scores.
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].SimilarityToPrimary > members[j].SimilarityToPrimary
	})

	now := time.Now().UTC()
	return &batch.Batch{
		ID:           batch.NewID(primary),
		Pool:         pool,
		PrimaryIssue: primary,
		Issues:       members,
		CommonThemes: extractCommonThemes(clusterIssues),
		Status:       batch.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
