package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/internal/formcache"
	"github.com/listforge/listforge-be/internal/provider"
)

// Pipeline drives one (product, directory) submission from pending to a
// terminal or submitted state. A submission row is owned by exactly one
// pipeline run at a time.
type Pipeline struct {
	store    SubmissionStore
	cache    formcache.Cache
	provider provider.FormAutomation
	logger   *slog.Logger

	browserTimeout time.Duration
	formCacheTTL   time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// NewPipeline creates a Pipeline with the given collaborators.
func NewPipeline(store SubmissionStore, cache formcache.Cache, automation provider.FormAutomation, logger *slog.Logger, cfg Config) *Pipeline {
	return &Pipeline{
		store:          store,
		cache:          cache,
		provider:       automation,
		logger:         logger,
		browserTimeout: cfg.BrowserTimeout,
		formCacheTTL:   cfg.FormCacheTTL,
		now:            time.Now,
	}
}

// Run executes the submission pipeline. Failures are recorded on the
// submission itself; the returned submission always reflects the final
// persisted state. Run only returns an error when the store itself is
// unusable.
func (p *Pipeline) Run(ctx context.Context, sub *domain.Submission, product *domain.SaasProduct, dir *domain.Directory) (*domain.Submission, error) {
	log := p.logger.With(
		slog.Int64("submission_id", sub.ID),
		slog.Int64("directory_id", dir.ID),
		slog.String("directory", dir.Name),
	)

	target := provider.TargetFor(dir)

	// Step 1: resolve form metadata, re-detecting when absent or stale.
	form, err := p.resolveForm(ctx, target, dir)
	if err != nil {
		log.Error("Form detection failed", slog.Any("error", err))
		return p.fail(ctx, sub, dir, fmt.Sprintf("form detection failed: %v", err))
	}

	sub.DetectedFields = *form

	// Step 2: login before filling when the directory requires it.
	if dir.RequiresLogin {
		creds := provider.Credentials{
			LoginURL: dir.LoginURL,
			Username: dir.LoginUsername,
			Password: dir.LoginPassword,
		}

		if err := p.withBrowserTimeout(ctx, func(callCtx context.Context) error {
			return p.provider.Login(callCtx, target, creds)
		}); err != nil {
			log.Error("Login failed", slog.Any("error", err))
			return p.fail(ctx, sub, dir, fmt.Sprintf("login failed: %v", err))
		}

		log.Debug("Logged in to directory")
	}

	// Step 3: map product data onto the detected fields.
	values := MapProductToFields(product, form.Fields)
	if len(values) == 0 {
		return p.fail(ctx, sub, dir, "no form fields could be mapped")
	}

	// Step 4: walk intermediate steps of a multi-step form, resuming
	// after the last completed step from any earlier attempt.
	if form.IsMultiStep && form.StepCount > 1 {
		if err := p.runSteps(ctx, sub, target, form, values, log); err != nil {
			log.Error("Multi-step fill failed",
				slog.Int("step", sub.CurrentStep),
				slog.Any("error", err),
			)
			return p.fail(ctx, sub, dir, fmt.Sprintf("step %d failed: %v", sub.CurrentStep, err))
		}
	}

	// Step 5: final submit.
	var result *provider.SubmitResult
	err = p.withBrowserTimeout(ctx, func(callCtx context.Context) error {
		var submitErr error
		result, submitErr = p.provider.Submit(callCtx, target, values, form)
		return submitErr
	})
	if err != nil {
		log.Error("Submit failed", slog.Any("error", err))
		return p.fail(ctx, sub, dir, fmt.Sprintf("submit failed: %v", err))
	}

	return p.finish(ctx, sub, dir, result, log)
}

// resolveForm reads the form cache and falls back to fresh detection,
// writing the result back before the pipeline proceeds.
func (p *Pipeline) resolveForm(ctx context.Context, target provider.Target, dir *domain.Directory) (*domain.FormStructure, error) {
	now := p.now()

	entry, ok, err := p.cache.Get(ctx, dir.ID)
	if err != nil {
		// A broken cache only costs a re-detection.
		p.logger.Warn("Form cache read failed",
			slog.Int64("directory_id", dir.ID),
			slog.Any("error", err),
		)
	} else if ok && !entry.Stale(now, p.formCacheTTL) {
		return &entry.Structure, nil
	}

	var form *domain.FormStructure
	err = p.withBrowserTimeout(ctx, func(callCtx context.Context) error {
		var detectErr error
		form, detectErr = p.provider.DetectForm(callCtx, target)
		return detectErr
	})
	if err != nil {
		return nil, err
	}

	if form.StepCount < 1 {
		form.StepCount = 1
	}
	if dir.IsMultiStep && !form.IsMultiStep {
		form.IsMultiStep = true
		if form.StepCount < dir.StepCount {
			form.StepCount = dir.StepCount
		}
	}

	newEntry := &domain.FormCacheEntry{
		Structure:   *form,
		IsMultiStep: form.IsMultiStep,
		StepCount:   form.StepCount,
		DetectedAt:  p.now(),
	}
	if err := p.cache.Put(ctx, dir.ID, newEntry); err != nil {
		p.logger.Warn("Form cache write failed",
			slog.Int64("directory_id", dir.ID),
			slog.Any("error", err),
		)
	}

	return form, nil
}

// runSteps fills steps 1..StepCount-1, checkpointing progress after each
// so a mid-sequence failure resumes from the last completed step.
func (p *Pipeline) runSteps(ctx context.Context, sub *domain.Submission, target provider.Target, form *domain.FormStructure, values map[string]string, log *slog.Logger) error {
	lastCompleted := 0
	for _, step := range sub.CompletedSteps {
		if step > lastCompleted {
			lastCompleted = step
		}
	}

	for step := lastCompleted + 1; step < form.StepCount; step++ {
		sub.CurrentStep = step

		stepValues := make(map[string]string)
		for _, field := range form.FieldsForStep(step) {
			key := field.Selector
			if key == "" {
				key = field.Name
			}
			if v, ok := values[key]; ok {
				stepValues[key] = v
			}
		}

		err := p.withBrowserTimeout(ctx, func(callCtx context.Context) error {
			return p.provider.FillStep(callCtx, target, step, stepValues)
		})
		if err != nil {
			return err
		}

		sub.CompletedSteps = append(sub.CompletedSteps, step)
		sub.CurrentStep = step + 1

		// Checkpoint so a retry picks up here.
		if err := p.store.UpdateSubmission(ctx, sub); err != nil {
			return fmt.Errorf("failed to checkpoint step %d: %w", step, err)
		}

		log.Debug("Form step completed",
			slog.Int("step", step),
			slog.Int("step_count", form.StepCount),
		)
	}

	return nil
}

// finish applies the provider's verdict and persists the final state.
func (p *Pipeline) finish(ctx context.Context, sub *domain.Submission, dir *domain.Directory, result *provider.SubmitResult, log *slog.Logger) (*domain.Submission, error) {
	now := p.now()

	next := result.Status
	if !next.Valid() || next == domain.StatusPending {
		next = domain.StatusFailed
	}

	if next == domain.StatusFailed {
		msg := result.Message
		if msg == "" {
			msg = "provider reported failure"
		}
		return p.fail(ctx, sub, dir, msg)
	}

	if sub.Status != next {
		if err := sub.Transition(next, now); err != nil {
			return nil, err
		}
	}

	// A listing URL only makes sense for a live or accepted listing; a
	// rejection carries none.
	if result.ListingURL != "" && (next == domain.StatusApproved || next == domain.StatusSubmitted) {
		sub.ListingURL = result.ListingURL
	}
	if result.Message != "" {
		sub.ResponseMessage = result.Message
	}

	if err := p.store.UpdateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist submission result: %w", err)
	}

	success := next == domain.StatusApproved || next == domain.StatusSubmitted
	if err := p.store.RecordDirectoryOutcome(ctx, dir.ID, success); err != nil {
		log.Warn("Failed to record directory outcome", slog.Any("error", err))
	}

	log.Info("Submission finished",
		slog.String("status", next.String()),
		slog.String("listing_url", sub.ListingURL),
	)

	return sub, nil
}

// fail records a pipeline failure on the submission and persists it.
func (p *Pipeline) fail(ctx context.Context, sub *domain.Submission, dir *domain.Directory, msg string) (*domain.Submission, error) {
	now := p.now()

	sub.RecordError(now, msg)
	if err := sub.Transition(domain.StatusFailed, now); err != nil {
		return nil, err
	}

	if err := p.store.UpdateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist failed submission: %w", err)
	}

	if err := p.store.RecordDirectoryOutcome(ctx, dir.ID, false); err != nil {
		p.logger.Warn("Failed to record directory outcome",
			slog.Int64("directory_id", dir.ID),
			slog.Any("error", err),
		)
	}

	return sub, nil
}

// withBrowserTimeout bounds one provider call with the browser timeout
// budget so a hung page never wedges a limiter slot.
func (p *Pipeline) withBrowserTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.browserTimeout <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.browserTimeout)
	defer cancel()

	return fn(callCtx)
}
