package routes

import (
	"net/http"

	"github.com/41rumble/great-fire-smyrna-rag/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports service liveness and database reachability.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	database := "ok"
	if err := app.DBConn.Ping(ctx); err != nil {
		database = "unreachable"
	}

	status := "ok"
	if database != "ok" {
		status = "degraded"
	}

	return c.JSON(http.StatusOK, healthResponse{
		Status:   status,
		Database: database,
	})
}
