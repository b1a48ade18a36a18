package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"driftapp.dev/drift/internal/queue"
	"driftapp.dev/drift/internal/service"
)

type IngestHandler struct {
	batch    service.BatchService
	producer queue.Producer
}

func NewIngestHandler(batch service.BatchService, producer queue.Producer) *IngestHandler {
	return &IngestHandler{
		batch:    batch,
		producer: producer,
	}
}

// IngestProject runs ingestion for one project synchronously.
func (h *IngestHandler) IngestProject(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	result, err := h.batch.IngestProject(ctx, projectID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, service.ErrOrganizationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		default:
			slog.ErrorContext(ctx, "project ingestion failed", "project_id", projectID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingested": result.Ingested,
		"filtered": result.Filtered,
	})
}

type enqueueJobRequest struct {
	JobType string `json:"job_type" binding:"required"`
}

// EnqueueJob pushes a batch job for an organization onto the worker
// stream instead of running it inline.
func (h *IngestHandler) EnqueueJob(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid organization id"})
		return
	}

	var req enqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobType := queue.JobType(req.JobType)
	if !jobType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown job_type"})
		return
	}

	if err := h.producer.Enqueue(ctx, queue.JobMessage{
		JobType:        jobType,
		OrganizationID: orgID,
	}); err != nil {
		slog.ErrorContext(ctx, "enqueueing job failed",
			"organization_id", orgID, "job_type", jobType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_type":        jobType,
		"organization_id": orgID,
	})
}
