package dto

import "github.com/listforge/listforge-be/internal/domain"

type CreateSubmissionRequest struct {
	SaasProductID int64 `json:"saas_product_id" binding:"required"`
	DirectoryID   int64 `json:"directory_id" binding:"required"`
}

type BulkSubmissionRequest struct {
	SaasProductID int64   `json:"saas_product_id" binding:"required"`
	DirectoryIDs  []int64 `json:"directory_ids" binding:"required"`
}

type ListSubmissionsRequest struct {
	Status        string `form:"status"`
	SaasProductID int64  `form:"saas_product_id"`
	DirectoryID   int64  `form:"directory_id"`
	Search        string `form:"search"`
	Skip          int    `form:"skip"`
	Limit         int    `form:"limit"`
}

// BulkSubmissionResponse carries the full submissions in the order the
// directories were given, with summary counters alongside. Each result
// is the complete record, so callers can inspect retry bookkeeping and
// the error log of a failed unit directly.
type BulkSubmissionResponse struct {
	SaasProductID int64                `json:"saas_product_id"`
	Total         int                  `json:"total"`
	Succeeded     int                  `json:"succeeded"`
	Failed        int                  `json:"failed"`
	Results       []*domain.Submission `json:"results"`
}
