package routes

import (
	"net/http"

	"github.com/41rumble/great-fire-smyrna-rag/internal/server/middleware"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/query"
	storepgx "github.com/41rumble/great-fire-smyrna-rag/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// CapabilitiesHandler reports what the system can answer: supported analysis
// modes, the size of the graph and a sample of known entities.
func CapabilitiesHandler(c echo.Context) error {
	type capabilitiesResponse struct {
		AnalysisModes []string `json:"analysis_modes"`
		EntityCount   int64    `json:"entity_count"`
		KnownEntities []string `json:"known_entities"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storageClient, err := storepgx.NewGraphDBStorageWithConnection(ctx, app.DBConn, app.AiClient)
	if err != nil {
		logger.Error("Failed to create graph storage", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	count, err := storageClient.CountEntities(ctx)
	if err != nil {
		logger.Error("Failed to count entities", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	names, err := storageClient.ListEntityNames(ctx, 25)
	if err != nil {
		logger.Error("Failed to list entities", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	if names == nil {
		names = []string{}
	}

	return c.JSON(http.StatusOK, capabilitiesResponse{
		AnalysisModes: query.AnalysisModes(),
		EntityCount:   count,
		KnownEntities: names,
	})
}
