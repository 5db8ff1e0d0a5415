package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listforge/listforge-be/internal/domain"
)

// GetDirectory retrieves a directory by id, including login credentials
// and multi-step metadata.
func (s *Storage) GetDirectory(ctx context.Context, id int64) (*domain.Directory, error) {
	query := `
		SELECT id, name, url, submission_url, status,
		       requires_login, login_url, login_username, login_password,
		       is_multi_step, step_count, category, requires_approval,
		       total_submissions, successful_submissions,
		       created_at, updated_at
		FROM directories
		WHERE id = $1
	`

	var dir domain.Directory
	if err := s.db.GetContext(ctx, &dir, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDirectoryNotFound
		}
		return nil, fmt.Errorf("failed to get directory: %w", err)
	}

	return &dir, nil
}

// CountDirectories returns the total and active directory counts.
func (s *Storage) CountDirectories(ctx context.Context) (total, active int, err error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE status = $1) AS active
		FROM directories
	`

	row := s.db.QueryRowxContext(ctx, query, domain.DirectoryActive)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("failed to count directories: %w", err)
	}

	return total, active, nil
}

// RecordDirectoryOutcome bumps a directory's submission counters after a
// pipeline run finishes.
func (s *Storage) RecordDirectoryOutcome(ctx context.Context, directoryID int64, success bool) error {
	query := `
		UPDATE directories
		SET total_submissions = total_submissions + 1,
		    successful_submissions = successful_submissions + CASE WHEN $1 THEN 1 ELSE 0 END,
		    updated_at = NOW()
		WHERE id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, success, directoryID); err != nil {
		return fmt.Errorf("failed to record directory outcome: %w", err)
	}

	s.logger.Debug("Directory outcome recorded",
		slog.Int64("directory_id", directoryID),
		slog.Bool("success", success),
	)

	return nil
}

// GetProduct retrieves a saas product by id.
func (s *Storage) GetProduct(ctx context.Context, id int64) (*domain.SaasProduct, error) {
	query := `
		SELECT id, name, website_url, description, short_description,
		       category, logo_url, contact_email, tagline, pricing_model,
		       features, social_links, created_at, updated_at
		FROM saas_products
		WHERE id = $1
	`

	var product domain.SaasProduct
	if err := s.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get saas product: %w", err)
	}

	return &product, nil
}
