package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-be/internal/domain"
)

// writeError maps domain errors onto HTTP status codes with a uniform
// {"error": "..."} body.
func writeError(c *gin.Context, err error) {
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrDirectoryNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrExhaustedRetries):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, domain.ErrRetryNotDue):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
