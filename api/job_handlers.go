package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-anagram-search/internal/errors"
	"github.com/gcbaptista/go-anagram-search/internal/jobs"
	"github.com/gcbaptista/go-anagram-search/model"
)

// JobMetricsProvider is implemented by job managers that track performance metrics
type JobMetricsProvider interface {
	GetMetrics() jobs.JobMetricsData
	GetSuccessRate() float64
	GetCurrentWorkload() int64
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	if result := ValidateJobID(jobID); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrJobNotFound) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "get job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler handles requests to list jobs
func (api *API) ListJobsHandler(c *gin.Context) {
	statusParam := c.Query("status")
	if result := ValidateJobStatus(statusParam); result.HasErrors() {
		SendStructuredValidationError(c, result)
		return
	}

	var statusFilter *model.JobStatus
	if statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobList := api.jobs.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobList,
		"total": len(jobList),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	provider, ok := api.jobs.(JobMetricsProvider)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Job metrics not supported by this job manager"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics":          provider.GetMetrics(),
		"success_rate":     provider.GetSuccessRate(),
		"current_workload": provider.GetCurrentWorkload(),
	})
}
