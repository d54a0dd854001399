package engine

import (
	"context"

	"github.com/dyluth/drey/pkg/batch"
)

// SimilarityOracle judges whether two issues belong in the same batch.
// Implementations may be rule-based, embedding-based, or delegated to a
// remote service; the engine depends only on this contract. An oracle may be
// called once per unordered pair of the pool, so up to N·(N-1)/2 times per
// run. If Compare returns an error the engine treats the pair as unrelated
// and continues.
type SimilarityOracle interface {
	Compare(ctx context.Context, a, b batch.Issue) (batch.SimilarityJudgment, error)
}

// ValidationRequest carries everything the validation oracle needs to judge
// an assembled batch.
type ValidationRequest struct {
	BatchID      string
	PrimaryIssue int
	Issues       []batch.Member
	Themes       []string
}

// ValidationResult is the validation oracle's verdict on a batch.
// SuggestedSplits is only meaningful when Valid is false: each inner slice
// lists the issue numbers of one proposed sub-batch.
type ValidationResult struct {
	Valid           bool
	Confidence      float64
	Reasoning       string
	CommonTheme     string
	SuggestedSplits [][]int
}

// ValidationOracle judges whether an assembled batch is coherent enough to
// fix together and, when it is not, may propose how to split it.
type ValidationOracle interface {
	ValidateBatch(ctx context.Context, req ValidationRequest) (ValidationResult, error)
}
