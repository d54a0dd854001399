package batch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBatch() *Batch {
	now := time.Now().UTC()
	return &Batch{
		ID:           "12-20260101120000-abcd1234",
		Pool:         "acme/widgets",
		PrimaryIssue: 12,
		Issues: []Member{
			{IssueNumber: 12, Title: "Login times out", SimilarityToPrimary: 1.0},
			{IssueNumber: 15, Title: "Session dropped", SimilarityToPrimary: 0.85},
			{IssueNumber: 9, Title: "OAuth refresh fails", SimilarityToPrimary: 0.7},
		},
		CommonThemes: []string{"login", "session"},
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestBatchValidate(t *testing.T) {
	t.Run("valid batch", func(t *testing.T) {
		assert.NoError(t, validBatch().Validate())
	})

	t.Run("empty ID", func(t *testing.T) {
		b := validBatch()
		b.ID = ""
		assert.Error(t, b.Validate())
	})

	t.Run("empty pool", func(t *testing.T) {
		b := validBatch()
		b.Pool = ""
		assert.Error(t, b.Validate())
	})

	t.Run("unknown status", func(t *testing.T) {
		b := validBatch()
		b.Status = "limbo"
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid status")
	})

	t.Run("no members", func(t *testing.T) {
		b := validBatch()
		b.Issues = nil
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one issue")
	})

	t.Run("primary missing from members", func(t *testing.T) {
		b := validBatch()
		b.PrimaryIssue = 999
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly once")
	})

	t.Run("primary without similarity 1.0", func(t *testing.T) {
		b := validBatch()
		b.Issues[0].SimilarityToPrimary = 0.99
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "similarity_to_primary 1.0")
	})

	t.Run("members out of order", func(t *testing.T) {
		b := validBatch()
		b.Issues[1], b.Issues[2] = b.Issues[2], b.Issues[1]
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not sorted")
	})

	t.Run("similarity out of range", func(t *testing.T) {
		b := validBatch()
		b.Issues[1].SimilarityToPrimary = 1.3
		assert.Error(t, b.Validate())
	})

	t.Run("equal similarities are allowed", func(t *testing.T) {
		b := validBatch()
		b.Issues[2].SimilarityToPrimary = 0.85
		assert.NoError(t, b.Validate())
	})

	t.Run("confidence out of range", func(t *testing.T) {
		b := validBatch()
		b.ValidationConfidence = -0.1
		assert.Error(t, b.Validate())
	})

	t.Run("singleton anchors itself", func(t *testing.T) {
		b := validBatch()
		b.Issues = b.Issues[:1]
		assert.NoError(t, b.Validate())
	})
}

func TestMemberValidate(t *testing.T) {
	m := Member{IssueNumber: 1, SimilarityToPrimary: 0.5}
	assert.NoError(t, m.Validate())

	m.SimilarityToPrimary = -0.2
	assert.Error(t, m.Validate())

	m.SimilarityToPrimary = 1.1
	assert.Error(t, m.Validate())
}

func TestIssueNumbers(t *testing.T) {
	b := validBatch()
	assert.Equal(t, []int{12, 15, 9}, b.IssueNumbers())
}

func TestTransitionTo(t *testing.T) {
	t.Run("walks the full lifecycle", func(t *testing.T) {
		b := validBatch()
		for _, next := range []Status{
			StatusAnalyzing, StatusCreatingSpec, StatusBuilding,
			StatusQAReview, StatusPRCreated, StatusCompleted,
		} {
			require.NoError(t, b.TransitionTo(next, ""))
			assert.Equal(t, next, b.Status)
		}
		assert.True(t, b.Status.Terminal())
	})

	t.Run("refreshes UpdatedAt", func(t *testing.T) {
		b := validBatch()
		before := b.UpdatedAt
		time.Sleep(time.Millisecond)
		require.NoError(t, b.TransitionTo(StatusAnalyzing, ""))
		assert.True(t, b.UpdatedAt.After(before))
	})

	t.Run("rejects skipping a stage", func(t *testing.T) {
		b := validBatch()
		err := b.TransitionTo(StatusBuilding, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid status transition")
		assert.Equal(t, StatusPending, b.Status)
	})

	t.Run("rejects moving backwards", func(t *testing.T) {
		b := validBatch()
		require.NoError(t, b.TransitionTo(StatusAnalyzing, ""))
		assert.Error(t, b.TransitionTo(StatusPending, ""))
	})

	t.Run("failed is reachable from any non-terminal state", func(t *testing.T) {
		b := validBatch()
		require.NoError(t, b.TransitionTo(StatusAnalyzing, ""))
		require.NoError(t, b.TransitionTo(StatusCreatingSpec, ""))
		require.NoError(t, b.TransitionTo(StatusFailed, "spec generation crashed"))
		assert.Equal(t, "spec generation crashed", b.Error)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		b := validBatch()
		b.Status = StatusCompleted
		assert.Error(t, b.TransitionTo(StatusFailed, ""))

		b.Status = StatusFailed
		assert.Error(t, b.TransitionTo(StatusPending, ""))
	})

	t.Run("rejects unknown target", func(t *testing.T) {
		b := validBatch()
		assert.Error(t, b.TransitionTo("limbo", ""))
	})
}

func TestStatus(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		for _, s := range []Status{
			StatusPending, StatusAnalyzing, StatusCreatingSpec, StatusBuilding,
			StatusQAReview, StatusPRCreated, StatusCompleted, StatusFailed,
		} {
			assert.NoError(t, s.Validate(), "status %q", s)
		}
		assert.Error(t, Status("").Validate())
		assert.Error(t, Status("done").Validate())
	})

	t.Run("terminal", func(t *testing.T) {
		assert.True(t, StatusCompleted.Terminal())
		assert.True(t, StatusFailed.Terminal())
		assert.False(t, StatusPending.Terminal())
		assert.False(t, StatusPRCreated.Terminal())
	})
}

func TestBatchJSONRoundTrip(t *testing.T) {
	b := validBatch()
	b.Validated = true
	b.ValidationConfidence = 0.9
	b.Theme = "authentication"

	data, err := json.Marshal(b)
	require.NoError(t, err)

	// Wire field names are part of the on-disk format
	assert.Contains(t, string(data), `"batch_id"`)
	assert.Contains(t, string(data), `"primary_issue"`)
	assert.Contains(t, string(data), `"similarity_to_primary"`)
	assert.Contains(t, string(data), `"common_themes"`)

	var decoded Batch
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b.ID, decoded.ID)
	assert.Equal(t, b.PrimaryIssue, decoded.PrimaryIssue)
	assert.Equal(t, b.Issues, decoded.Issues)
	assert.Equal(t, b.Status, decoded.Status)
	assert.True(t, decoded.Validated)
}
