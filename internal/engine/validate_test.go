package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/pkg/batch"
)

// fourIssueSimilarity relates issues 1..4 mutually at 0.8, which clusters
// them into a single four-member batch under the default parameters.
func fourIssueSimilarity() *scriptedSimilarity {
	sim := newScriptedSimilarity()
	for a := 1; a <= 4; a++ {
		for b := a + 1; b <= 4; b++ {
			sim.relate(a, b, 0.8)
		}
	}
	return sim
}

func allIssueNumbers(batches []*batch.Batch) []int {
	var numbers []int
	for _, b := range batches {
		numbers = append(numbers, b.IssueNumbers()...)
	}
	sort.Ints(numbers)
	return numbers
}

func TestValidation_Disabled(t *testing.T) {
	ctx := context.Background()

	batcher, _ := newTestBatcher(t, fourIssueSimilarity(), nil, Options{})

	batches, err := batcher.FormBatches(ctx, testIssues(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, batches, 1)

	b := batches[0]
	assert.True(t, b.Validated)
	assert.Equal(t, 1.0, b.ValidationConfidence)
	assert.Equal(t, "validation disabled", b.ValidationReasoning)
}

func TestValidation_AcceptsValidBatch(t *testing.T) {
	ctx := context.Background()

	validator := &scriptedValidator{
		fn: func(req ValidationRequest) (ValidationResult, error) {
			return ValidationResult{
				Valid:       true,
				Confidence:  0.92,
				Reasoning:   "all members touch the login flow",
				CommonTheme: "authentication",
			}, nil
		},
	}

	batcher, _ := newTestBatcher(t, fourIssueSimilarity(), validator, Options{ValidationEnabled: true})

	batches, err := batcher.FormBatches(ctx, testIssues(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 1, validator.calls)

	b := batches[0]
	assert.True(t, b.Validated)
	assert.Equal(t, 0.92, b.ValidationConfidence)
	assert.Equal(t, "all members touch the login flow", b.ValidationReasoning)
	assert.Equal(t, "authentication", b.Theme)
}

func TestValidation_SplitsPerSuggestion(t *testing.T) {
	ctx := context.Background()

	validator := &scriptedValidator{
		fn: func(req ValidationRequest) (ValidationResult, error) {
			return ValidationResult{
				Valid:           false,
				Confidence:      0.6,
				Reasoning:       "two distinct concerns",
				SuggestedSplits: [][]int{{1, 2}, {3, 4}},
			}, nil
		},
	}

	batcher, st := newTestBatcher(t, fourIssueSimilarity(), validator, Options{ValidationEnabled: true})

	batches, err := batcher.FormBatches(ctx, testIssues(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, batches, 2)

	// Splits cover exactly the original membership
	assert.Equal(t, []int{1, 2, 3, 4}, allIssueNumbers(batches))

	for _, b := range batches {
		require.Len(t, b.Issues, 2)
		assert.True(t, b.Validated)
		assert.Contains(t, b.ValidationReasoning, "split from")
		assert.Contains(t, b.ValidationReasoning, "two distinct concerns")
		assert.NoError(t, b.Validate())
	}

	// Both sub-batches were persisted and indexed
	idx, err := st.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
}

func TestValidation_RejectionDegradesToSingletons(t *testing.T) {
	ctx := context.Background()

	validator := &scriptedValidator{
		fn: func(req ValidationRequest) (ValidationResult, error) {
			return ValidationResult{
				Valid:      false,
				Confidence: 0.3,
				Reasoning:  "members are unrelated on inspection",
			}, nil
		},
	}

	batcher, _ := newTestBatcher(t, fourIssueSimilarity(), validator, Options{ValidationEnabled: true})

	batches, err := batcher.FormBatches(ctx, testIssues(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, batches, 4)

	// No issue lost, no issue duplicated
	assert.Equal(t, []int{1, 2, 3, 4}, allIssueNumbers(batches))

	for _, b := range batches {
		require.Len(t, b.Issues, 1)
		assert.Equal(t, b.Issues[0].IssueNumber, b.PrimaryIssue)
		assert.Equal(t, 1.0, b.Issues[0].SimilarityToPrimary)
		assert.True(t, b.Validated)
		assert.Equal(t, 0.3, b.ValidationConfidence)
		assert.Contains(t, b.ValidationReasoning, "split from invalid batch")
		assert.NoError(t, b.Validate())
	}
}

func TestValidation_OracleErrorDegradesToSingletons(t *testing.T) {
	ctx := context.Background()

	validator := &scriptedValidator{
		fn: func(req ValidationRequest) (ValidationResult, error) {
			return ValidationResult{}, errors.New("oracle timed out")
		},
	}

	batcher, _ := newTestBatcher(t, fourIssueSimilarity(), validator, Options{ValidationEnabled: true})

	batches, err := batcher.FormBatches(ctx, testIssues(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, batches, 4)

	assert.Equal(t, []int{1, 2, 3, 4}, allIssueNumbers(batches))

	for _, b := range batches {
		require.Len(t, b.Issues, 1)
		assert.Equal(t, 0.0, b.ValidationConfidence)
		assert.Contains(t, b.ValidationReasoning, "validation failed")
		assert.Contains(t, b.ValidationReasoning, "oracle timed out")
	}
}

func TestValidation_SplitBelowMinSizeSkipped(t *testing.T) {
	ctx := context.Background()

	// Min batch size 2: the oracle suggests a pair and a leftover singleton,
	// and only the pair survives as a batch.
	validator := &scriptedValidator{
		fn: func(req ValidationRequest) (ValidationResult, error) {
			return ValidationResult{
				Valid:           false,
				Confidence:      0.5,
				Reasoning:       "issue 4 does not belong",
				SuggestedSplits: [][]int{{1, 2, 3}, {4}},
			}, nil
		},
	}

	batcher, _ := newTestBatcher(t, fourIssueSimilarity(), validator, Options{
		ValidationEnabled: true,
		MinBatchSize:      2,
	})

	batches, err := batcher.FormBatches(ctx, testIssues(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.ElementsMatch(t, []int{1, 2, 3}, batches[0].IssueNumbers())
}

func TestValidation_PerBatchVerdicts(t *testing.T) {
	ctx := context.Background()

	// Two clusters: {1,2} and {3,4}. The oracle accepts the first and
	// rejects the second.
	sim := newScriptedSimilarity()
	sim.relate(1, 2, 0.9)
	sim.relate(3, 4, 0.9)

	validator := &scriptedValidator{
		fn: func(req ValidationRequest) (ValidationResult, error) {
			if req.PrimaryIssue == 1 || req.PrimaryIssue == 2 {
				return ValidationResult{Valid: true, Confidence: 0.9, Reasoning: "coherent"}, nil
			}
			return ValidationResult{Valid: false, Confidence: 0.2, Reasoning: "incoherent"}, nil
		},
	}

	batcher, _ := newTestBatcher(t, sim, validator, Options{ValidationEnabled: true})

	batches, err := batcher.FormBatches(ctx, testIssues(1, 2, 3, 4))
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, 2, validator.calls)

	var pairCount, singleCount int
	for _, b := range batches {
		switch len(b.Issues) {
		case 2:
			pairCount++
			assert.ElementsMatch(t, []int{1, 2}, b.IssueNumbers())
		case 1:
			singleCount++
		default:
			t.Fatalf("unexpected batch size %d", len(b.Issues))
		}
	}
	assert.Equal(t, 1, pairCount)
	assert.Equal(t, 2, singleCount)
}

func TestDegradeToSingletons_PreservesTimestamps(t *testing.T) {
	original := &batch.Batch{
		ID:           batch.NewID(1),
		Pool:         "test/pool",
		PrimaryIssue: 1,
		Issues: []batch.Member{
			{IssueNumber: 1, Title: "a", SimilarityToPrimary: 1.0},
			{IssueNumber: 2, Title: "b", SimilarityToPrimary: 0.8},
		},
		Status: batch.StatusPending,
	}
	original.Touch()
	original.CreatedAt = original.UpdatedAt

	bt := &Batcher{opts: Options{Pool: "test/pool"}}
	singles := bt.degradeToSingletons(original, 0.4, fmt.Sprintf("split from invalid batch %s: nope", original.ID))

	require.Len(t, singles, 2)
	for _, s := range singles {
		assert.Equal(t, original.CreatedAt, s.CreatedAt)
		assert.NotEqual(t, original.ID, s.ID)
		assert.Equal(t, batch.StatusPending, s.Status)
	}
}
