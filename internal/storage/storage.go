package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/shared/postgresql"
)

// Storage handles all database operations for the submission engine.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

const submissionColumns = `
	id, saas_product_id, directory_id, status,
	submitted_at, approved_at, rejected_at,
	response_message, listing_url,
	retry_count, max_retries, last_retry_at, error_log,
	detected_fields, current_step, completed_steps,
	created_at, updated_at
`

// CreateSubmission inserts a pending submission and assigns its id.
func (s *Storage) CreateSubmission(ctx context.Context, sub *domain.Submission) error {
	query := `
		INSERT INTO submissions (
			saas_product_id, directory_id, status,
			retry_count, max_retries, current_step
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowxContext(
		ctx,
		query,
		sub.SaasProductID,
		sub.DirectoryID,
		sub.Status,
		sub.RetryCount,
		sub.MaxRetries,
		sub.CurrentStep,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetSubmission retrieves a submission by id.
func (s *Storage) GetSubmission(ctx context.Context, id int64) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	var sub domain.Submission
	if err := s.db.GetContext(ctx, &sub, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return &sub, nil
}

// UpdateSubmission persists every mutable field of the submission.
func (s *Storage) UpdateSubmission(ctx context.Context, sub *domain.Submission) error {
	query := `
		UPDATE submissions
		SET status = $1,
		    submitted_at = $2,
		    approved_at = $3,
		    rejected_at = $4,
		    response_message = $5,
		    listing_url = $6,
		    retry_count = $7,
		    last_retry_at = $8,
		    error_log = $9,
		    detected_fields = $10,
		    current_step = $11,
		    completed_steps = $12,
		    updated_at = NOW()
		WHERE id = $13
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		sub.Status,
		sub.SubmittedAt,
		sub.ApprovedAt,
		sub.RejectedAt,
		sub.ResponseMessage,
		sub.ListingURL,
		sub.RetryCount,
		sub.LastRetryAt,
		sub.ErrorLog,
		sub.DetectedFields,
		sub.CurrentStep,
		sub.CompletedSteps,
		sub.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrSubmissionNotFound
	}

	return nil
}

// CountSubmissionsByStatus groups the full submission table by status.
func (s *Storage) CountSubmissionsByStatus(ctx context.Context) (map[domain.SubmissionStatus]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM submissions GROUP BY status`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SubmissionStatus]int)
	for rows.Next() {
		var status domain.SubmissionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan submission count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submission counts: %w", err)
	}

	return counts, nil
}

// ListRetryDue returns ids of failed submissions with remaining budget
// whose most recent activity predates the cutoff.
func (s *Storage) ListRetryDue(ctx context.Context, cutoff time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id FROM submissions
		WHERE status = $1
		  AND retry_count < max_retries
		  AND COALESCE(last_retry_at, submitted_at, created_at) < $2
		ORDER BY COALESCE(last_retry_at, submitted_at, created_at)
		LIMIT $3
	`

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, query, domain.StatusFailed, cutoff, limit); err != nil {
		return nil, fmt.Errorf("failed to list retry-due submissions: %w", err)
	}

	return ids, nil
}
