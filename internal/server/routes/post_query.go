package routes

import (
	"net/http"

	"github.com/41rumble/great-fire-smyrna-rag/internal/server/middleware"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/query"
	storepgx "github.com/41rumble/great-fire-smyrna-rag/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// QueryHandler answers a question against the knowledge graph.
func QueryHandler(c echo.Context) error {
	type queryRequest struct {
		Question     string `json:"question" validate:"required"`
		AnalysisMode string `json:"analysis_mode"`
	}

	type queryResponse struct {
		Message string             `json:"message,omitempty"`
		*query.QueryResult
	}

	data := new(queryRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storageClient, err := storepgx.NewGraphDBStorageWithConnection(ctx, app.DBConn, app.AiClient)
	if err != nil {
		logger.Error("Failed to create graph storage", "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	queryClient := query.NewNarrativeQueryClient(app.AiClient, storageClient)

	var opts []query.QueryOption
	if data.AnalysisMode != "" {
		opts = append(opts, query.WithAnalysisMode(data.AnalysisMode))
	}

	result, err := queryClient.Query(ctx, data.Question, opts...)
	if err != nil {
		logger.Error("Query failed", "err", err)
		return c.JSON(http.StatusInternalServerError, queryResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, queryResponse{QueryResult: result})
}
