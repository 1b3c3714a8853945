package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-anagram-search/config"
	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/services"
)

// Dependencies are the services the handlers call into.
type Dependencies struct {
	Searcher services.Searcher
	Corpus   services.CorpusManager
	Jobs     services.JobManager
	Metrics  http.Handler // Prometheus exposition; nil leaves /metrics unrouted
	Logger   *log.Logger
}

// API holds dependencies for API handlers.
type API struct {
	searcher services.Searcher
	corpus   services.CorpusManager
	jobs     services.JobManager
	logger   *log.Logger
}

// NewAPI creates a new API handler structure.
func NewAPI(deps Dependencies) *API {
	if deps.Logger == nil {
		deps.Logger = logger.New("api")
	}
	return &API{
		searcher: deps.Searcher,
		corpus:   deps.Corpus,
		jobs:     deps.Jobs,
		logger:   deps.Logger,
	}
}

// NewRouter builds a gin engine with the service middleware chain and all routes.
func NewRouter(server config.ServerSettings, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.New("api")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		AccessLogMiddleware(deps.Logger),
		CORSMiddleware(),
		RequestSizeLimitMiddleware(1<<20),
		RateLimitMiddleware(server.RateLimit, server.RateBurst),
	)
	SetupRoutes(router, deps)
	return router
}

// SetupRoutes defines all the API routes of the anagram service.
func SetupRoutes(router *gin.Engine, deps Dependencies) *API {
	apiHandler := NewAPI(deps)

	router.GET("/search", apiHandler.SearchHandler)
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Corpus administration routes
	corpusRoutes := router.Group("/corpus")
	{
		corpusRoutes.GET("", apiHandler.GetCorpusHandler)              // Cache state and corpus statistics
		corpusRoutes.DELETE("", apiHandler.InvalidateCorpusHandler)    // Forget the corpus; the next search reloads it
		corpusRoutes.POST("/refresh", apiHandler.RefreshCorpusHandler) // Refetch the word list in a background job
	}

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)              // List jobs, optionally by status
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
	}

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		SendError(c, http.StatusNotFound, ErrorCodeNotFound, "No route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	return apiHandler
}

// HealthCheckHandler provides a simple health check endpoint.
// The service is healthy whether or not the corpus is loaded yet.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "go-anagram-search",
		"corpus_loaded": api.corpus != nil && api.corpus.Current() != nil,
		"timestamp":     fmt.Sprintf("%d", time.Now().Unix()),
	})
}
