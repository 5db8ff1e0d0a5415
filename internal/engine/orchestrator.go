package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/listforge/listforge-be/internal/domain"
)

// Orchestrator fans a product out to a set of directories, running each
// submission pipeline under the shared concurrency limiter.
type Orchestrator struct {
	store       SubmissionStore
	directories DirectoryReader
	products    ProductReader
	pipeline    *Pipeline
	limiter     *Limiter
	scheduler   RetryScheduler
	policy      RetryPolicy
	cfg         Config
	logger      *slog.Logger

	now func() time.Time
}

// NewOrchestrator wires the orchestrator. scheduler may be nil, which
// disables automatic retry scheduling.
func NewOrchestrator(store SubmissionStore, directories DirectoryReader, products ProductReader, pipeline *Pipeline, scheduler RetryScheduler, logger *slog.Logger, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:       store,
		directories: directories,
		products:    products,
		pipeline:    pipeline,
		limiter:     NewLimiter(cfg.ConcurrentSubmissions),
		scheduler:   scheduler,
		policy:      RetryPolicy{Delay: cfg.RetryDelay},
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit runs a single product/directory submission to completion.
func (o *Orchestrator) Submit(ctx context.Context, productID, directoryID int64) (*domain.Submission, error) {
	results, err := o.BulkSubmit(ctx, productID, []int64{directoryID})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// BulkSubmit submits one product to every directory in directoryIDs.
// All submission rows are created as pending before any pipeline runs,
// so the full batch is visible immediately. Results come back in input
// order. Per-directory pipeline failures are recorded on the submission
// rather than returned; BulkSubmit itself only fails on bad input or an
// unusable store.
func (o *Orchestrator) BulkSubmit(ctx context.Context, productID int64, directoryIDs []int64) ([]*domain.Submission, error) {
	if len(directoryIDs) == 0 {
		return nil, domain.NewValidationError("directory_ids must not be empty")
	}

	seen := make(map[int64]struct{}, len(directoryIDs))
	for _, id := range directoryIDs {
		if _, dup := seen[id]; dup {
			return nil, domain.NewValidationError("duplicate directory id %d", id)
		}
		seen[id] = struct{}{}
	}

	product, err := o.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	dirs := make([]*domain.Directory, len(directoryIDs))
	for i, id := range directoryIDs {
		dir, err := o.directories.GetDirectory(ctx, id)
		if err != nil {
			return nil, err
		}
		dirs[i] = dir
	}

	now := o.now()
	subs := make([]*domain.Submission, len(directoryIDs))
	for i, dir := range dirs {
		sub := &domain.Submission{
			SaasProductID: productID,
			DirectoryID:   dir.ID,
			Status:        domain.StatusPending,
			MaxRetries:    o.cfg.MaxRetries,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := o.store.CreateSubmission(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create submission for directory %d: %w", dir.ID, err)
		}
		subs[i] = sub
	}

	o.logger.Info("Bulk submission started",
		slog.Int64("saas_product_id", productID),
		slog.Int("directories", len(dirs)),
	)

	var wg sync.WaitGroup
	errs := make([]error, len(subs))
	for i := range subs {
		wg.Add(1)
		go func(sub *domain.Submission, dir *domain.Directory, idx int) {
			defer wg.Done()
			subs[idx], errs[idx] = o.runOne(ctx, sub, product, dir)
		}(subs[i], dirs[i], i)
	}
	wg.Wait()

	// A store write failure means the returned state cannot be trusted, so
	// it fails the whole request instead of hiding inside one unit.
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("submission %d for directory %d: %w", subs[i].ID, subs[i].DirectoryID, err)
		}
	}

	return subs, nil
}

// runOne gates one pipeline run on the limiter. A cancelled context
// before a slot opens marks the submission failed so the batch still
// reports every row. The returned error is non-nil only when the store
// rejected a write, leaving the submission's persisted state behind its
// in-memory state.
func (o *Orchestrator) runOne(ctx context.Context, sub *domain.Submission, product *domain.SaasProduct, dir *domain.Directory) (*domain.Submission, error) {
	if err := o.limiter.Acquire(ctx); err != nil {
		now := o.now()
		sub.RecordError(now, fmt.Sprintf("cancelled before start: %v", err))
		if terr := sub.Transition(domain.StatusFailed, now); terr == nil {
			// Best effort with a detached context; the batch context is
			// already dead.
			persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if uerr := o.store.UpdateSubmission(persistCtx, sub); uerr != nil {
				o.logger.Error("Failed to persist cancelled submission",
					slog.Int64("submission_id", sub.ID),
					slog.Any("error", uerr),
				)
			}
		}
		return sub, nil
	}
	defer o.limiter.Release()

	done, err := o.pipeline.Run(ctx, sub, product, dir)
	if err != nil {
		o.logger.Error("Pipeline aborted",
			slog.Int64("submission_id", sub.ID),
			slog.Any("error", err),
		)
		return sub, err
	}

	if done.Status == domain.StatusFailed {
		o.scheduleAutoRetry(ctx, done)
	}

	return done, nil
}

// scheduleAutoRetry queues a failed submission with remaining budget for
// a later attempt. Scheduling failures are logged, not propagated; a
// manual retry remains possible.
func (o *Orchestrator) scheduleAutoRetry(ctx context.Context, sub *domain.Submission) {
	if o.scheduler == nil {
		return
	}

	decision, wait := o.policy.Decide(sub, o.now())
	if decision == Exhausted {
		return
	}

	notBefore := o.now().Add(wait)
	if err := o.scheduler.ScheduleRetry(ctx, sub.ID, notBefore); err != nil {
		o.logger.Warn("Failed to schedule automatic retry",
			slog.Int64("submission_id", sub.ID),
			slog.Any("error", err),
		)
		return
	}

	o.logger.Info("Automatic retry scheduled",
		slog.Int64("submission_id", sub.ID),
		slog.Time("not_before", notBefore),
	)
}

// Retry re-runs a failed submission. manual retries skip the delay
// check; automatic retries honor it and surface ErrRetryNotDue when the
// delay has not elapsed yet.
func (o *Orchestrator) Retry(ctx context.Context, submissionID int64, manual bool) (*domain.Submission, error) {
	sub, err := o.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if sub.Status != domain.StatusFailed {
		return nil, fmt.Errorf("%w: cannot retry submission in status %s", domain.ErrIllegalTransition, sub.Status)
	}

	now := o.now()
	decision, _ := o.policy.Decide(sub, now)
	switch decision {
	case Exhausted:
		return nil, fmt.Errorf("%w: %d of %d retries used", domain.ErrExhaustedRetries, sub.RetryCount, sub.MaxRetries)
	case RetryAfter:
		if !manual {
			return nil, domain.ErrRetryNotDue
		}
	}

	dir, err := o.directories.GetDirectory(ctx, sub.DirectoryID)
	if err != nil {
		return nil, err
	}
	product, err := o.products.GetProduct(ctx, sub.SaasProductID)
	if err != nil {
		return nil, err
	}

	sub.RetryCount++
	t := now
	sub.LastRetryAt = &t
	if err := sub.Transition(domain.StatusPending, now); err != nil {
		return nil, err
	}
	if err := o.store.UpdateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist retry attempt: %w", err)
	}

	o.logger.Info("Retrying submission",
		slog.Int64("submission_id", sub.ID),
		slog.Int("retry_count", sub.RetryCount),
		slog.Bool("manual", manual),
	)

	done, err := o.runOne(ctx, sub, product, dir)
	if err != nil {
		return nil, err
	}
	return done, nil
}
