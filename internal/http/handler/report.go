package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"driftapp.dev/drift/internal/service"
	"driftapp.dev/drift/internal/store"
)

type ReportHandler struct {
	batch   service.BatchService
	reports store.ReportStore
}

func NewReportHandler(batch service.BatchService, reports store.ReportStore) *ReportHandler {
	return &ReportHandler{
		batch:   batch,
		reports: reports,
	}
}

// Generate runs the synthesis pipeline for one project synchronously and
// returns the persisted report. Terminal parse failures surface directly.
func (h *ReportHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	report, err := h.batch.GenerateProject(ctx, projectID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, service.ErrOrganizationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		case errors.Is(err, service.ErrGenerationInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "report generation already in progress"})
		default:
			slog.ErrorContext(ctx, "report generation failed", "project_id", projectID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report generation failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (h *ReportHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	report, err := h.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		slog.ErrorContext(ctx, "fetching report failed", "report_id", reportID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report"})
		return
	}

	c.JSON(http.StatusOK, report)
}
