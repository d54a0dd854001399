package batch

import (
	"fmt"
	"time"
)

// Issue represents a single unit of work from an external tracker.
// Issues are read-only input to the engine: drey never mutates them, it only
// decides which ones belong together.
type Issue struct {
	Number int      `json:"number"` // Unique issue key within the pool
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// SimilarityJudgment is the similarity oracle's verdict for one issue pair.
// Judgments are symmetric by convention: the engine stores the same judgment
// under both orderings of the pair.
type SimilarityJudgment struct {
	Related   bool    `json:"related"`   // Whether the pair belongs in the same batch
	Score     float64 `json:"score"`     // Similarity in [0, 1]
	Reasoning string  `json:"reasoning"` // Free-text rationale, kept for audit
}

// Member is one issue inside a batch, carrying its similarity to the batch's
// primary issue. The primary member always has SimilarityToPrimary == 1.0.
type Member struct {
	IssueNumber         int      `json:"issue_number"`
	Title               string   `json:"title"`
	Body                string   `json:"body"`
	Labels              []string `json:"labels,omitempty"`
	SimilarityToPrimary float64  `json:"similarity_to_primary"`
}

// Batch is a durable grouping of related issues anchored on a primary issue.
// Batches are created in StatusPending by the engine and driven through the
// Status lifecycle by downstream tooling.
type Batch struct {
	ID           string   `json:"batch_id"`
	Pool         string   `json:"pool"` // Owning repository or issue-pool identifier
	PrimaryIssue int      `json:"primary_issue"`
	Issues       []Member `json:"issues"` // Primary first, then descending similarity
	CommonThemes []string `json:"common_themes,omitempty"`
	Status       Status   `json:"status"`
	SpecID       string   `json:"spec_id,omitempty"`   // Downstream work-spec reference
	PRNumber     int      `json:"pr_number,omitempty"` // Pull request opened for this batch
	Error        string   `json:"error,omitempty"`     // Populated when Status is failed

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Validation outcome, stamped by the batch validation stage.
	Validated            bool    `json:"validated"`
	ValidationConfidence float64 `json:"validation_confidence"`
	ValidationReasoning  string  `json:"validation_reasoning,omitempty"`
	Theme                string  `json:"theme,omitempty"` // Refined theme from validation
}

// IssueNumbers returns the numbers of all issues in the batch, in member order.
func (b *Batch) IssueNumbers() []int {
	numbers := make([]int, len(b.Issues))
	for i, m := range b.Issues {
		numbers[i] = m.IssueNumber
	}
	return numbers
}

// Touch refreshes the batch's last-updated timestamp.
func (b *Batch) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// TransitionTo moves the batch to the next lifecycle status, enforcing the
// transition table. errMsg is recorded when non-empty (typically alongside
// StatusFailed). UpdatedAt is refreshed on success.
func (b *Batch) TransitionTo(next Status, errMsg string) error {
	if err := next.Validate(); err != nil {
		return err
	}

	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition: %q to %q", b.Status, next)
	}

	b.Status = next
	if errMsg != "" {
		b.Error = errMsg
	}
	b.Touch()

	return nil
}

// Validate checks if the Batch has valid field values and satisfies the
// structural invariants every persisted batch must hold: at least one member,
// the primary present with similarity exactly 1.0, and members sorted by
// descending similarity to the primary.
func (b *Batch) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("batch ID cannot be empty")
	}

	if b.Pool == "" {
		return fmt.Errorf("pool cannot be empty")
	}

	if err := b.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	if len(b.Issues) == 0 {
		return fmt.Errorf("batch must contain at least one issue")
	}

	primaryCount := 0
	for i, m := range b.Issues {
		if m.SimilarityToPrimary < 0 || m.SimilarityToPrimary > 1 {
			return fmt.Errorf("issue %d: similarity_to_primary must be in [0, 1], got %v", m.IssueNumber, m.SimilarityToPrimary)
		}

		if m.IssueNumber == b.PrimaryIssue {
			if m.SimilarityToPrimary != 1.0 {
				return fmt.Errorf("primary issue %d must have similarity_to_primary 1.0, got %v", m.IssueNumber, m.SimilarityToPrimary)
			}
			primaryCount++
		}

		// Members must be non-increasing by similarity
		if i > 0 && m.SimilarityToPrimary > b.Issues[i-1].SimilarityToPrimary {
			return fmt.Errorf("issues not sorted by descending similarity_to_primary at index %d", i)
		}
	}

	if primaryCount != 1 {
		return fmt.Errorf("primary issue %d must appear exactly once in members, found %d times", b.PrimaryIssue, primaryCount)
	}

	if b.ValidationConfidence < 0 || b.ValidationConfidence > 1 {
		return fmt.Errorf("validation_confidence must be in [0, 1], got %v", b.ValidationConfidence)
	}

	return nil
}

// Validate checks the Member for sane field values.
func (m *Member) Validate() error {
	if m.SimilarityToPrimary < 0 || m.SimilarityToPrimary > 1 {
		return fmt.Errorf("similarity_to_primary must be in [0, 1], got %v", m.SimilarityToPrimary)
	}
	return nil
}
