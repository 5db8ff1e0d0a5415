package handler

import (
	"context"
	"log/slog"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/internal/storage"
)

// SubmissionEngine runs and retries submissions.
type SubmissionEngine interface {
	Submit(ctx context.Context, productID, directoryID int64) (*domain.Submission, error)
	BulkSubmit(ctx context.Context, productID int64, directoryIDs []int64) ([]*domain.Submission, error)
	Retry(ctx context.Context, submissionID int64, manual bool) (*domain.Submission, error)
}

// SubmissionReader serves the listing and detail queries.
type SubmissionReader interface {
	ListSubmissions(ctx context.Context, filter storage.SubmissionFilter) ([]domain.SubmissionWithDetails, error)
	GetSubmissionWithDetails(ctx context.Context, id int64) (*domain.SubmissionWithDetails, error)
}

// StatsReader serves the dashboard snapshot.
type StatsReader interface {
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger *slog.Logger
	Engine SubmissionEngine
	Reader SubmissionReader
	Stats  StatsReader
}

// SubmissionHandler handles submission-related HTTP requests
type SubmissionHandler struct {
	logger *slog.Logger
	engine SubmissionEngine
	reader SubmissionReader
	stats  StatsReader
}

// NewSubmissionHandler creates a new SubmissionHandler instance
func NewSubmissionHandler(deps *Dependencies) *SubmissionHandler {
	return &SubmissionHandler{
		logger: deps.Logger,
		engine: deps.Engine,
		reader: deps.Reader,
		stats:  deps.Stats,
	}
}
