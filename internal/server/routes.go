package server

import (
	"github.com/41rumble/great-fire-smyrna-rag/internal/server/middleware"
	"github.com/41rumble/great-fire-smyrna-rag/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	e.GET("/api/health", routes.HealthHandler)
	e.GET("/api/capabilities", routes.CapabilitiesHandler)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)
	apiRoutes.POST("/query", routes.QueryHandler)
	apiRoutes.POST("/ingest", routes.IngestHandler)
}
