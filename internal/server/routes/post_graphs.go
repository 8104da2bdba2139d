package routes

import (
	"encoding/json"
	"net/http"

	"github.com/caselight/backend/internal/queue"
	"github.com/caselight/backend/internal/server/middleware"
	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/logger"

	_ "github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CreateGraphHandler enqueues a full graph build. The build itself runs
// on the worker; the response carries a correlation id for tracking.
func CreateGraphHandler(c echo.Context) error {
	type createGraphBody struct {
		GraphID      string           `json:"graph_id" validate:"required"`
		Mentions     []common.Mention `json:"mentions" validate:"required,min=1,dive"`
		Mode         string           `json:"mode" validate:"omitempty,oneof=exact fuzzy"`
		ClusterLabel string           `json:"cluster_label"`
		Rebuild      bool             `json:"rebuild"`
	}

	type createGraphResponse struct {
		Message       string `json:"message"`
		GraphID       string `json:"graph_id,omitempty"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(createGraphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGraphResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createGraphResponse{
			Message: "Invalid request body",
		})
	}

	correlationID := uuid.New().String()
	queueData := queue.QueueBuildMsg{
		Message:       "Build graph",
		GraphID:       data.GraphID,
		CorrelationID: correlationID,
		Mentions:      data.Mentions,
		Mode:          data.Mode,
		ClusterLabel:  data.ClusterLabel,
		Rebuild:       data.Rebuild,
	}

	msgBytes, err := json.Marshal(queueData)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createGraphResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.BuildQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to build_queue", "graph_id", data.GraphID, "err", err)
		return c.JSON(http.StatusInternalServerError, createGraphResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, createGraphResponse{
		Message:       "Graph build queued",
		GraphID:       data.GraphID,
		CorrelationID: correlationID,
	})
}

// AddDocumentsHandler enqueues an incremental update with new documents'
// mentions for an existing graph.
func AddDocumentsHandler(c echo.Context) error {
	type addDocumentsBody struct {
		GraphID      string           `param:"id" validate:"required"`
		Mentions     []common.Mention `json:"mentions" validate:"required,min=1,dive"`
		Mode         string           `json:"mode" validate:"omitempty,oneof=exact fuzzy"`
		ClusterLabel string           `json:"cluster_label"`
	}

	type addDocumentsResponse struct {
		Message       string `json:"message"`
		GraphID       string `json:"graph_id,omitempty"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(addDocumentsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, addDocumentsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, addDocumentsResponse{
			Message: "Invalid request body",
		})
	}

	correlationID := uuid.New().String()
	queueData := queue.QueueIncrementalMsg{
		Message:       "Update graph",
		GraphID:       data.GraphID,
		CorrelationID: correlationID,
		Mentions:      data.Mentions,
		Mode:          data.Mode,
		ClusterLabel:  data.ClusterLabel,
	}

	msgBytes, err := json.Marshal(queueData)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, addDocumentsResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.IncrementalQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to incremental_queue", "graph_id", data.GraphID, "err", err)
		return c.JSON(http.StatusInternalServerError, addDocumentsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, addDocumentsResponse{
		Message:       "Graph update queued",
		GraphID:       data.GraphID,
		CorrelationID: correlationID,
	})
}
