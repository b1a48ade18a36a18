package router

import (
	"github.com/gin-gonic/gin"

	"driftapp.dev/drift/internal/http/handler"
	"driftapp.dev/drift/internal/queue"
	"driftapp.dev/drift/internal/service"
	"driftapp.dev/drift/internal/store"
)

func SetupRoutes(router *gin.Engine, services *service.Services, stores *store.Stores, producer queue.Producer) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	batch := services.Batch()
	reportHandler := handler.NewReportHandler(batch, stores.Reports())
	ingestHandler := handler.NewIngestHandler(batch, producer)

	v1 := router.Group("/api/v1")
	{
		projects := v1.Group("/projects")
		{
			projects.POST("/:id/reports", reportHandler.Generate)
			projects.POST("/:id/ingest", ingestHandler.IngestProject)
		}

		v1.GET("/reports/:id", reportHandler.Get)
		v1.POST("/organizations/:id/jobs", ingestHandler.EnqueueJob)
	}
}
