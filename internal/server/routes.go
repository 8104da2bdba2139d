package server

import (
	"github.com/caselight/backend/internal/server/middleware"
	"github.com/caselight/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph lifecycle routes (async, handled by the worker)
	apiRoutes.POST("/graphs", routes.CreateGraphHandler)
	apiRoutes.POST("/graphs/:id/documents", routes.AddDocumentsHandler)
	apiRoutes.DELETE("/graphs/:id/documents", routes.DeleteDocumentsHandler)
	apiRoutes.DELETE("/graphs/:id", routes.DeleteGraphHandler)

	// Curation routes
	apiRoutes.POST("/graphs/:id/merge", routes.MergeNodesHandler)
	apiRoutes.POST("/graphs/:id/split", routes.SplitNodeHandler)

	// Query routes
	apiRoutes.GET("/graphs/:id/stats", routes.GetStatsHandler)
	apiRoutes.GET("/graphs/:id/search", routes.SearchNodesHandler)
	apiRoutes.GET("/graphs/:id/paths", routes.GetPathsHandler)
	apiRoutes.GET("/graphs/:id/export", routes.ExportGraphHandler)
	apiRoutes.GET("/graphs/:id/integrity", routes.CheckIntegrityHandler)
	apiRoutes.GET("/graphs/:id/snapshots", routes.ListSnapshotsHandler)

	// Provenance routes
	apiRoutes.GET("/graphs/:id/provenance", routes.GetProvenanceChainHandler)
	apiRoutes.GET("/provenance/:record_id", routes.GetLineageHandler)
}
