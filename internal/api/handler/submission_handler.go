package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-be/internal/api/dto"
	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/internal/storage"
)

// CreateSubmission handles POST /api/submissions
// Submits one product to one directory and waits for the outcome.
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	sub, err := h.engine.Submit(c.Request.Context(), req.SaasProductID, req.DirectoryID)
	if err != nil {
		h.logger.Error("Failed to create submission", slog.String("error", err.Error()))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// BulkSubmit handles POST /api/submissions/bulk
// Fans one product out to many directories. Responds 207 when at least
// one directory failed, 200 when the whole batch went through.
func (h *SubmissionHandler) BulkSubmit(c *gin.Context) {
	var req dto.BulkSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	subs, err := h.engine.BulkSubmit(c.Request.Context(), req.SaasProductID, req.DirectoryIDs)
	if err != nil {
		h.logger.Error("Bulk submission rejected", slog.String("error", err.Error()))
		writeError(c, err)
		return
	}

	resp := dto.BulkSubmissionResponse{
		SaasProductID: req.SaasProductID,
		Total:         len(subs),
		Results:       subs,
	}

	for _, sub := range subs {
		if sub.Status == domain.StatusFailed {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	status := http.StatusOK
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}

	c.JSON(status, resp)
}

// RetrySubmission handles POST /api/submissions/:id/retry
// Re-runs a failed submission, counting against its retry budget.
func (h *SubmissionHandler) RetrySubmission(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a positive integer",
		})
		return
	}

	sub, err := h.engine.Retry(c.Request.Context(), id, true)
	if err != nil {
		h.logger.Error("Retry rejected",
			slog.Int64("submission_id", id),
			slog.String("error", err.Error()),
		)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// ListSubmissions handles GET /api/submissions
// Lists submissions with their directory and product details.
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	var req dto.ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Status != "" && !domain.SubmissionStatus(req.Status).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid status filter: " + req.Status,
		})
		return
	}
	if req.Skip < 0 || req.Limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "skip and limit must not be negative",
		})
		return
	}

	subs, err := h.reader.ListSubmissions(c.Request.Context(), storage.SubmissionFilter{
		Status:        domain.SubmissionStatus(req.Status),
		SaasProductID: req.SaasProductID,
		DirectoryID:   req.DirectoryID,
		Search:        req.Search,
		Skip:          req.Skip,
		Limit:         req.Limit,
	})
	if err != nil {
		h.logger.Error("Failed to list submissions", slog.String("error", err.Error()))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, subs)
}

// GetSubmission handles GET /api/submissions/:id
// Returns one submission with directory and product details.
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a positive integer",
		})
		return
	}

	sub, err := h.reader.GetSubmissionWithDetails(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// GetStats handles GET /api/submissions/stats
// Returns the dashboard counters.
func (h *SubmissionHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.DashboardStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to compute stats", slog.String("error", err.Error()))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("invalid id")
	}
	return id, nil
}
