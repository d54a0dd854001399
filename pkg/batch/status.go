package batch

import "fmt"

// Status defines the lifecycle state of a batch.
// Batches progress pending → analyzing → creating_spec → building → qa_review
// → pr_created → completed, with failed reachable from any non-terminal state.
// The engine only ever creates batches in StatusPending; all later transitions
// are driven by downstream tooling through TransitionTo.
type Status string

const (
	// StatusPending indicates the batch is formed and waiting to be picked up
	StatusPending Status = "pending"

	// StatusAnalyzing indicates the batch is being analyzed before spec creation
	StatusAnalyzing Status = "analyzing"

	// StatusCreatingSpec indicates a combined work spec is being written
	StatusCreatingSpec Status = "creating_spec"

	// StatusBuilding indicates the fix is being built
	StatusBuilding Status = "building"

	// StatusQAReview indicates the built fix is under QA review
	StatusQAReview Status = "qa_review"

	// StatusPRCreated indicates a pull request exists and awaits external completion
	StatusPRCreated Status = "pr_created"

	// StatusCompleted indicates the batch is fully done (terminal)
	StatusCompleted Status = "completed"

	// StatusFailed indicates processing failed (terminal)
	StatusFailed Status = "failed"
)

// statusSuccessor maps each status to the single forward transition allowed
// from it. Failed is handled separately since it is reachable from any
// non-terminal state.
var statusSuccessor = map[Status]Status{
	StatusPending:      StatusAnalyzing,
	StatusAnalyzing:    StatusCreatingSpec,
	StatusCreatingSpec: StatusBuilding,
	StatusBuilding:     StatusQAReview,
	StatusQAReview:     StatusPRCreated,
	StatusPRCreated:    StatusCompleted,
}

// Validate checks if the Status is a valid enum value.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusAnalyzing, StatusCreatingSpec, StatusBuilding,
		StatusQAReview, StatusPRCreated, StatusCompleted, StatusFailed:
		return nil
	default:
		return fmt.Errorf("unknown batch status: %q", s)
	}
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the transition from s to next is allowed.
// Only the single forward step in the lifecycle is permitted, except for
// StatusFailed which is reachable from every non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return statusSuccessor[s] == next
}
