package routes

import (
	"github.com/gin-gonic/gin"

	handler "hours-reconciliation-backend/internal/handlers"
)

func RegisterRoutes(r *gin.Engine, reconHandler *handler.ReconciliationHandler) {
	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	recon := api.Group("/reconciliation")
	recon.POST("/ingest", reconHandler.Ingest)
	recon.GET("/summary", reconHandler.Summary)
	recon.GET("/compare", reconHandler.Compare)

	// Run routes
	recon.GET("/runs", reconHandler.ListRuns)
	recon.GET("/runs/:runId", reconHandler.GetRun)
	recon.GET("/runs/:runId/rows", reconHandler.ListRunRows)
	recon.DELETE("/runs/:runId", reconHandler.DeleteRun)
	recon.DELETE("/run", reconHandler.DeleteRunByQuery)

	// Row routes
	recon.PATCH("/rows/:rowId/notes", reconHandler.UpdateRowNotes)
}
