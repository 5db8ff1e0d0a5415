package retryworker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/shared/rabbitmq"
)

// Retryer re-runs a failed submission. Satisfied by the engine
// orchestrator.
type Retryer interface {
	Retry(ctx context.Context, submissionID int64, manual bool) (*domain.Submission, error)
}

// RetryLister finds failed submissions whose retry delay has elapsed.
type RetryLister interface {
	ListRetryDue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Retryer       Retryer
	Lister        RetryLister
	Concurrency   int
	PrefetchCount int
	SweepInterval time.Duration
	RetryDelay    time.Duration
	SweepLimit    int
}

// Worker consumes scheduled retries and runs the periodic sweep.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	retryer       Retryer
	lister        RetryLister
	concurrency   int
	prefetchCount int
	sweepInterval time.Duration
	retryDelay    time.Duration
	sweepLimit    int

	workerID string
	msgsChan chan *retryDelivery
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sweepLimit := cfg.SweepLimit
	if sweepLimit < 1 {
		sweepLimit = 100
	}

	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		retryer:       cfg.Retryer,
		lister:        cfg.Lister,
		concurrency:   concurrency,
		prefetchCount: cfg.PrefetchCount,
		sweepInterval: cfg.SweepInterval,
		retryDelay:    cfg.RetryDelay,
		sweepLimit:    sweepLimit,
		workerID:      fmt.Sprintf("retry-worker-%s", uuid.New().String()[:8]),
		msgsChan:      make(chan *retryDelivery),
		stopChan:      make(chan struct{}),
	}
}

// Start runs the consumer, the worker pool, and the sweep loop until the
// context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting retry worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("sweep_interval", w.sweepInterval),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.dispatch(ctx, deliveries)
	}()

	if w.sweepInterval > 0 {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.sweepLoop(ctx)
		}()
	}

	<-ctx.Done()
	w.logger.Info("Retry worker context canceled, stopping...")

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping retry worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Retry worker stopped")
}

func (w *Worker) spawnPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	w.logger.Info("Retry worker pool spawned",
		slog.Int("worker_count", w.concurrency),
	)
}

func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	for {
		select {
		case <-w.stopChan:
			return

		case <-ctx.Done():
			return

		case msg, ok := <-w.msgsChan:
			if !ok {
				return
			}
			w.handleDelivery(ctx, workerName, msg)
		}
	}
}

// handleDelivery waits out the scheduled delay, runs the retry, and
// acknowledges the message according to the outcome.
func (w *Worker) handleDelivery(ctx context.Context, workerName string, msg *retryDelivery) {
	log := w.logger.With(
		slog.String("worker_name", workerName),
		slog.Int64("submission_id", msg.SubmissionID),
	)

	if wait := time.Until(msg.NotBefore); wait > 0 {
		log.Debug("Retry not due yet, waiting",
			slog.Duration("wait", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			msg.nack(true, log)
			return
		}
	}

	sub, err := w.retryer.Retry(ctx, msg.SubmissionID, false)
	if err != nil {
		w.resolveFailure(msg, err, log)
		return
	}

	log.Info("Scheduled retry finished",
		slog.String("status", sub.Status.String()),
		slog.Int("retry_count", sub.RetryCount),
	)
	msg.ack(log)
}

// resolveFailure decides the fate of a message whose retry call failed.
// Terminal conditions drop the message; transient ones requeue it.
func (w *Worker) resolveFailure(msg *retryDelivery, err error, log *slog.Logger) {
	switch {
	case errors.Is(err, domain.ErrExhaustedRetries),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrSubmissionNotFound):
		// Nothing left to do for this submission.
		log.Info("Dropping scheduled retry", slog.String("reason", err.Error()))
		msg.ack(log)

	case errors.Is(err, domain.ErrRetryNotDue):
		// Another attempt moved the clock. The sweep will pick it up
		// once the new delay elapses.
		log.Debug("Retry superseded by a newer attempt")
		msg.ack(log)

	default:
		log.Error("Scheduled retry failed", slog.String("error", err.Error()))
		msg.nack(true, log)
	}
}

// sweepLoop periodically re-runs failed submissions whose delay elapsed
// but whose queue message was lost.
func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.logger.Info("Retry sweep started",
		slog.Duration("interval", w.sweepInterval),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.retryDelay)

	ids, err := w.lister.ListRetryDue(ctx, cutoff, w.sweepLimit)
	if err != nil {
		w.logger.Error("Retry sweep query failed", slog.String("error", err.Error()))
		return
	}
	if len(ids) == 0 {
		return
	}

	w.logger.Info("Retry sweep found due submissions",
		slog.Int("count", len(ids)),
	)

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}

		sub, err := w.retryer.Retry(ctx, id, false)
		if err != nil {
			if errors.Is(err, domain.ErrRetryNotDue) || errors.Is(err, domain.ErrIllegalTransition) {
				// Raced with a queued retry for the same row.
				continue
			}
			w.logger.Error("Sweep retry failed",
				slog.Int64("submission_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}

		w.logger.Info("Sweep retry finished",
			slog.Int64("submission_id", id),
			slog.String("status", sub.Status.String()),
		)
	}
}
