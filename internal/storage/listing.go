package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/listforge/listforge-be/internal/domain"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// SubmissionFilter narrows a submission listing. Zero values mean "any".
type SubmissionFilter struct {
	Status        domain.SubmissionStatus
	SaasProductID int64
	DirectoryID   int64
	Search        string
	Skip          int
	Limit         int
}

const detailColumns = `
	s.id, s.saas_product_id, s.directory_id, s.status,
	s.submitted_at, s.approved_at, s.rejected_at,
	s.response_message, s.listing_url,
	s.retry_count, s.max_retries, s.last_retry_at, s.error_log,
	s.detected_fields, s.current_step, s.completed_steps,
	s.created_at, s.updated_at,
	d.id AS "directory.id",
	d.name AS "directory.name",
	d.url AS "directory.url",
	d.submission_url AS "directory.submission_url",
	d.status AS "directory.status",
	d.requires_login AS "directory.requires_login",
	d.is_multi_step AS "directory.is_multi_step",
	d.step_count AS "directory.step_count",
	d.category AS "directory.category",
	d.requires_approval AS "directory.requires_approval",
	d.total_submissions AS "directory.total_submissions",
	d.successful_submissions AS "directory.successful_submissions",
	d.created_at AS "directory.created_at",
	d.updated_at AS "directory.updated_at",
	p.id AS "saas_product.id",
	p.name AS "saas_product.name",
	p.website_url AS "saas_product.website_url",
	p.description AS "saas_product.description",
	p.short_description AS "saas_product.short_description",
	p.category AS "saas_product.category",
	p.logo_url AS "saas_product.logo_url",
	p.contact_email AS "saas_product.contact_email",
	p.tagline AS "saas_product.tagline",
	p.pricing_model AS "saas_product.pricing_model",
	p.features AS "saas_product.features",
	p.social_links AS "saas_product.social_links",
	p.created_at AS "saas_product.created_at",
	p.updated_at AS "saas_product.updated_at"
`

// ListSubmissions returns submissions joined with their directory and
// product, filtered and paginated by skip/limit, newest first.
func (s *Storage) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]domain.SubmissionWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM submissions s
		JOIN directories d ON d.id = s.directory_id
		JOIN saas_products p ON p.id = s.saas_product_id
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND s.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.SaasProductID != 0 {
		query += fmt.Sprintf(" AND s.saas_product_id = $%d", argIdx)
		args = append(args, filter.SaasProductID)
		argIdx++
	}

	if filter.DirectoryID != 0 {
		query += fmt.Sprintf(" AND s.directory_id = $%d", argIdx)
		args = append(args, filter.DirectoryID)
		argIdx++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (d.name ILIKE $%d OR p.name ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	query += " ORDER BY s.created_at DESC, s.id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Skip > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Skip)
	}

	subs := make([]domain.SubmissionWithDetails, 0)
	if err := s.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return subs, nil
}

// GetSubmissionWithDetails retrieves one submission joined with its
// directory and product.
func (s *Storage) GetSubmissionWithDetails(ctx context.Context, id int64) (*domain.SubmissionWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM submissions s
		JOIN directories d ON d.id = s.directory_id
		JOIN saas_products p ON p.id = s.saas_product_id
		WHERE s.id = $1
	`

	var sub domain.SubmissionWithDetails
	if err := s.db.GetContext(ctx, &sub, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission details: %w", err)
	}

	return &sub, nil
}
