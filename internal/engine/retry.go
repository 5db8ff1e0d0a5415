package engine

import (
	"time"

	"github.com/listforge/listforge-be/internal/domain"
)

// RetryDecision is the outcome of evaluating a failed submission against
// the retry policy.
type RetryDecision int

const (
	// RetryNow means the delay has elapsed and another attempt may run.
	RetryNow RetryDecision = iota
	// RetryAfter means the retry budget allows another attempt, but not
	// before the returned wait elapses.
	RetryAfter
	// Exhausted means the retry budget is spent.
	Exhausted
)

func (d RetryDecision) String() string {
	switch d {
	case RetryNow:
		return "retry_now"
	case RetryAfter:
		return "retry_after"
	case Exhausted:
		return "exhausted"
	}
	return "unknown"
}

// RetryPolicy decides whether and when a failed submission may be
// retried. It is a pure function of the submission's retry bookkeeping.
type RetryPolicy struct {
	Delay time.Duration
}

// Decide evaluates sub at the given time. The wait result is only
// meaningful for RetryAfter. The submission's own max_retries, fixed at
// creation, bounds the budget.
func (p RetryPolicy) Decide(sub *domain.Submission, now time.Time) (RetryDecision, time.Duration) {
	if !sub.RetriesRemaining() {
		return Exhausted, 0
	}

	base := sub.CreatedAt
	if sub.SubmittedAt != nil {
		base = *sub.SubmittedAt
	}
	if sub.LastRetryAt != nil {
		base = *sub.LastRetryAt
	}

	next := base.Add(p.Delay)
	if wait := next.Sub(now); wait > 0 {
		return RetryAfter, wait
	}

	return RetryNow, 0
}
