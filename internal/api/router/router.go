package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "submission-api-service",
		})
	})

	submissionHandler := handler.NewSubmissionHandler(deps)

	api := r.Group("/api")
	{
		submissions := api.Group("/submissions")
		{
			// POST /api/submissions - Submit one product to one directory
			submissions.POST("", submissionHandler.CreateSubmission)

			// POST /api/submissions/bulk - Submit one product to many directories
			submissions.POST("/bulk", submissionHandler.BulkSubmit)

			// GET /api/submissions - List submissions with filtering
			submissions.GET("", submissionHandler.ListSubmissions)

			// GET /api/submissions/stats - Dashboard counters
			submissions.GET("/stats", submissionHandler.GetStats)

			// GET /api/submissions/:id - Get submission details
			submissions.GET("/:id", submissionHandler.GetSubmission)

			// POST /api/submissions/:id/retry - Retry a failed submission
			submissions.POST("/:id/retry", submissionHandler.RetrySubmission)
		}
	}

	return r
}
