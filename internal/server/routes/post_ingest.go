package routes

import (
	"encoding/json"
	"net/http"

	"github.com/41rumble/great-fire-smyrna-rag/internal/queue"
	"github.com/41rumble/great-fire-smyrna-rag/internal/server/middleware"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IngestHandler accepts an ingestion request and publishes it to the ingest
// queue. The worker picks the job up and runs the pipeline; the API replies
// immediately with 202.
func IngestHandler(c echo.Context) error {
	type ingestRequest struct {
		Path        string `json:"path" validate:"required"`
		Title       string `json:"title"`
		Author      string `json:"author"`
		Year        int    `json:"year"`
		Perspective string `json:"perspective"`
		Language    string `json:"language"`
	}

	type ingestResponse struct {
		Message string `json:"message"`
	}

	data := new(ingestRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}

	job := queue.IngestJob{
		Path:        data.Path,
		Title:       data.Title,
		Author:      data.Author,
		Year:        data.Year,
		Perspective: data.Perspective,
		Language:    data.Language,
	}
	body, err := json.Marshal(job)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	app := c.(*middleware.AppContext).App
	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, body); err != nil {
		logger.Error("Failed to publish ingest job", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("Queued ingest job", "path", data.Path)
	return c.JSON(http.StatusAccepted, ingestResponse{
		Message: "Ingestion queued",
	})
}
