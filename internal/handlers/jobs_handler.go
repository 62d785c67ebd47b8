package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/lock"
	"fintrack/internal/scheduler"
)

// JobRunner runs a named background job once.
type JobRunner interface {
	RunJob(ctx context.Context, name string) error
	Jobs() []string
}

// JobsHandler lets an external trigger, such as a platform cron, run
// scheduled jobs.
type JobsHandler struct {
	runner JobRunner
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(runner JobRunner) *JobsHandler {
	return &JobsHandler{runner: runner}
}

// ListJobs returns the registered job names.
func (h *JobsHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.runner.Jobs()})
}

// RunJob runs the job named in the path and waits for it to finish.
func (h *JobsHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	err := h.runner.RunJob(c.Request.Context(), name)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"job": name, "status": "ok"})
	case errors.Is(err, scheduler.ErrUnknownJob):
		respondWithError(c, apperrors.ErrJobNotFound)
	case errors.Is(err, lock.ErrNotAcquired):
		respondWithError(c, apperrors.ErrJobRunning)
	default:
		respondWithError(c, apperrors.Wrap(apperrors.ErrJobFailed, err))
	}
}
