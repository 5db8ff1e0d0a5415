package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmission_Transition(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pending to submitted stamps submitted_at", func(t *testing.T) {
		sub := &Submission{Status: StatusPending}

		require.NoError(t, sub.Transition(StatusSubmitted, at))

		assert.Equal(t, StatusSubmitted, sub.Status)
		require.NotNil(t, sub.SubmittedAt)
		assert.Equal(t, at, *sub.SubmittedAt)
		assert.Nil(t, sub.ApprovedAt)
	})

	t.Run("direct approval stamps both timestamps", func(t *testing.T) {
		sub := &Submission{Status: StatusPending}

		require.NoError(t, sub.Transition(StatusApproved, at))

		assert.Equal(t, StatusApproved, sub.Status)
		require.NotNil(t, sub.SubmittedAt)
		require.NotNil(t, sub.ApprovedAt)
		assert.Equal(t, at, *sub.ApprovedAt)
	})

	t.Run("approval keeps earlier submitted_at", func(t *testing.T) {
		earlier := at.Add(-time.Hour)
		sub := &Submission{Status: StatusSubmitted, SubmittedAt: &earlier}

		require.NoError(t, sub.Transition(StatusApproved, at))

		assert.Equal(t, earlier, *sub.SubmittedAt)
		assert.Equal(t, at, *sub.ApprovedAt)
	})

	t.Run("rejection stamps rejected_at", func(t *testing.T) {
		sub := &Submission{Status: StatusSubmitted}

		require.NoError(t, sub.Transition(StatusRejected, at))

		require.NotNil(t, sub.RejectedAt)
		assert.Equal(t, at, *sub.RejectedAt)
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		sub := &Submission{Status: StatusApproved}

		err := sub.Transition(StatusPending, at)

		require.ErrorIs(t, err, ErrIllegalTransition)
		assert.Equal(t, StatusApproved, sub.Status)
	})

	t.Run("failed back to pending for retry", func(t *testing.T) {
		sub := &Submission{Status: StatusFailed}

		require.NoError(t, sub.Transition(StatusPending, at))
		assert.Equal(t, StatusPending, sub.Status)
	})
}

func TestSubmission_RecordError(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sub := &Submission{Status: StatusPending}

	sub.RecordError(at, "first failure")
	sub.RecordError(at.Add(time.Minute), "second failure")

	// The log is append-only; earlier entries survive.
	require.Len(t, sub.ErrorLog, 2)
	assert.Equal(t, "first failure", sub.ErrorLog[0].Error)
	assert.Equal(t, "second failure", sub.ErrorLog[1].Error)
	assert.Equal(t, "second failure", sub.ResponseMessage)
}

func TestSubmission_RetriesRemaining(t *testing.T) {
	tests := []struct {
		name       string
		retryCount int
		maxRetries int
		want       bool
	}{
		{"untouched budget", 0, 3, true},
		{"partial budget", 2, 3, true},
		{"spent budget", 3, 3, false},
		{"over budget", 4, 3, false},
		{"zero budget", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &Submission{RetryCount: tt.retryCount, MaxRetries: tt.maxRetries}
			assert.Equal(t, tt.want, sub.RetriesRemaining())
		})
	}
}

func TestErrorLog_Scan(t *testing.T) {
	var log ErrorLog
	require.NoError(t, log.Scan([]byte(`[{"timestamp":"2025-06-01T12:00:00Z","error":"boom"}]`)))
	require.Len(t, log, 1)
	assert.Equal(t, "boom", log[0].Error)

	var empty ErrorLog
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}
