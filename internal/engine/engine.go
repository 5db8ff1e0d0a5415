// Package engine implements the submission workflow: fanning one product
// out to many directories under a concurrency bound, driving each
// submission through its status state machine, and applying the retry
// policy on failure.
package engine

import (
	"context"
	"time"

	"github.com/listforge/listforge-be/internal/domain"
)

// SubmissionStore is the durable record of submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *domain.Submission) error
	GetSubmission(ctx context.Context, id int64) (*domain.Submission, error)
	UpdateSubmission(ctx context.Context, sub *domain.Submission) error
	CountSubmissionsByStatus(ctx context.Context) (map[domain.SubmissionStatus]int, error)
	RecordDirectoryOutcome(ctx context.Context, directoryID int64, success bool) error
}

// DirectoryReader resolves directory records and counts.
type DirectoryReader interface {
	GetDirectory(ctx context.Context, id int64) (*domain.Directory, error)
	CountDirectories(ctx context.Context) (total, active int, err error)
}

// ProductReader resolves saas product records.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.SaasProduct, error)
}

// RetryScheduler queues a failed submission for a later automatic retry.
// A nil scheduler disables automatic retries.
type RetryScheduler interface {
	ScheduleRetry(ctx context.Context, submissionID int64, notBefore time.Time) error
}

// Config holds the engine knobs, fixed at construction.
type Config struct {
	MaxRetries            int
	RetryDelay            time.Duration
	ConcurrentSubmissions int
	BrowserTimeout        time.Duration
	FormCacheTTL          time.Duration
}
