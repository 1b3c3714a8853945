package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-anagram-search/model"
)

// GetCorpusHandler reports the cache state without triggering a load
func (api *API) GetCorpusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.corpus.Stats())
}

// InvalidateCorpusHandler drops the loaded corpus. The next search loads it again.
func (api *API) InvalidateCorpusHandler(c *gin.Context) {
	api.corpus.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Corpus invalidated"})
}

// RefreshCorpusHandler refetches the word list in a background job.
// The current corpus keeps serving searches until the new one is ready.
func (api *API) RefreshCorpusHandler(c *gin.Context) {
	source := api.corpus.Stats().Source
	jobID := api.jobs.CreateJob(model.JobTypeCorpusRefresh, source, map[string]string{
		"request_id": c.GetString(requestIDKey),
	})

	err := api.jobs.ExecuteJob(jobID, func(ctx context.Context, _ *model.Job) error {
		_, err := api.corpus.Refresh(ctx)
		return err
	})
	if err != nil {
		SendJobExecutionError(c, "corpus refresh", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Corpus refresh started for '" + source + "'",
		"job_id":  jobID,
	})
}
