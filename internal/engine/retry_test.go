package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/listforge/listforge-be/internal/domain"
)

func TestRetryPolicy_Decide(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	delay := 5 * time.Minute

	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name     string
		sub      *domain.Submission
		want     RetryDecision
		wantWait time.Duration
	}{
		{
			name: "exhausted budget",
			sub: &domain.Submission{
				RetryCount: 3,
				MaxRetries: 3,
				CreatedAt:  now.Add(-time.Hour),
			},
			want: Exhausted,
		},
		{
			name: "zero budget is exhausted immediately",
			sub: &domain.Submission{
				RetryCount: 0,
				MaxRetries: 0,
				CreatedAt:  now.Add(-time.Hour),
			},
			want: Exhausted,
		},
		{
			name: "delay elapsed since creation",
			sub: &domain.Submission{
				MaxRetries: 3,
				CreatedAt:  now.Add(-10 * time.Minute),
			},
			want: RetryNow,
		},
		{
			name: "delay not elapsed since creation",
			sub: &domain.Submission{
				MaxRetries: 3,
				CreatedAt:  now.Add(-2 * time.Minute),
			},
			want:     RetryAfter,
			wantWait: 3 * time.Minute,
		},
		{
			name: "submitted_at overrides created_at",
			sub: &domain.Submission{
				MaxRetries:  3,
				CreatedAt:   now.Add(-time.Hour),
				SubmittedAt: ptr(now.Add(-time.Minute)),
			},
			want:     RetryAfter,
			wantWait: 4 * time.Minute,
		},
		{
			name: "last_retry_at overrides everything",
			sub: &domain.Submission{
				RetryCount:  1,
				MaxRetries:  3,
				CreatedAt:   now.Add(-time.Hour),
				SubmittedAt: ptr(now.Add(-time.Hour)),
				LastRetryAt: ptr(now.Add(-delay)),
			},
			want: RetryNow,
		},
		{
			name: "recent retry still waiting",
			sub: &domain.Submission{
				RetryCount:  1,
				MaxRetries:  3,
				CreatedAt:   now.Add(-time.Hour),
				LastRetryAt: ptr(now.Add(-time.Minute)),
			},
			want:     RetryAfter,
			wantWait: 4 * time.Minute,
		},
	}

	policy := RetryPolicy{Delay: delay}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, wait := policy.Decide(tt.sub, now)

			assert.Equal(t, tt.want, got)
			if tt.want == RetryAfter {
				assert.Equal(t, tt.wantWait, wait)
			} else {
				assert.Zero(t, wait)
			}
		})
	}
}

func TestRetryDecision_String(t *testing.T) {
	assert.Equal(t, "retry_now", RetryNow.String())
	assert.Equal(t, "retry_after", RetryAfter.String())
	assert.Equal(t, "exhausted", Exhausted.String())
}
