package engine

import "context"

// Limiter bounds the number of simultaneously in-flight submission
// pipelines. It gives no ordering guarantee among admitted tasks; the
// runtime's channel scheduling keeps waiters from starving under steady
// load.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a Limiter admitting at most size concurrent holders.
// A size below 1 is raised to 1.
func NewLimiter(size int) *Limiter {
	if size < 1 {
		size = 1
	}
	return &Limiter{slots: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot. It must be called exactly once per successful
// Acquire, regardless of how the pipeline run ended.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
		panic("limiter: release without acquire")
	}
}

// InFlight returns the number of currently held slots.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}

// Size returns the maximum number of concurrent holders.
func (l *Limiter) Size() int {
	return cap(l.slots)
}
