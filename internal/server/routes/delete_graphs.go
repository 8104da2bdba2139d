package routes

import (
	"encoding/json"
	"net/http"

	"github.com/caselight/backend/internal/queue"
	"github.com/caselight/backend/internal/server/middleware"
	"github.com/caselight/backend/internal/storage"
	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/store"
	graphstorage "github.com/caselight/backend/pkg/store/pgx"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DeleteDocumentsHandler enqueues removal of documents from a graph. The
// worker recomputes node aggregates and prunes orphaned nodes and edges.
func DeleteDocumentsHandler(c echo.Context) error {
	type deleteDocumentsBody struct {
		GraphID     string   `param:"id" validate:"required"`
		DocumentIDs []string `json:"document_ids" validate:"required,min=1"`
	}

	type deleteDocumentsResponse struct {
		Message       string `json:"message"`
		GraphID       string `json:"graph_id,omitempty"`
		CorrelationID string `json:"correlation_id,omitempty"`
	}

	data := new(deleteDocumentsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteDocumentsResponse{
			Message: "Invalid request body",
		})
	}

	correlationID := uuid.New().String()
	queueData := queue.QueueDeleteMsg{
		Message:       "Remove documents",
		GraphID:       data.GraphID,
		CorrelationID: correlationID,
		DocumentIDs:   data.DocumentIDs,
	}

	msgBytes, err := json.Marshal(queueData)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteDocumentsResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.DeleteQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to delete_queue", "graph_id", data.GraphID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteDocumentsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, deleteDocumentsResponse{
		Message:       "Document removal queued",
		GraphID:       data.GraphID,
		CorrelationID: correlationID,
	})
}

// DeleteGraphHandler drops a graph and its stored snapshots. Runs inline:
// the teardown is a single cascading statement plus object deletes.
func DeleteGraphHandler(c echo.Context) error {
	type deleteGraphParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type deleteGraphResponse struct {
		Message string `json:"message"`
		GraphID string `json:"graph_id,omitempty"`
	}

	params := new(deleteGraphParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteGraphResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, deleteGraphResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	dbStore := graphstorage.NewGraphDBStore(app.DBConn)
	err := dbStore.RunInTx(ctx, func(tx store.Store) error {
		exists, err := tx.GraphExists(ctx, params.GraphID)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		return tx.DeleteGraph(ctx, params.GraphID)
	})
	if err != nil {
		if err == store.ErrNotFound {
			return c.JSON(http.StatusNotFound, deleteGraphResponse{
				Message: "Graph not found",
			})
		}
		logger.Error("Failed to delete graph", "graph_id", params.GraphID, "err", err)
		return c.JSON(http.StatusInternalServerError, deleteGraphResponse{
			Message: "Internal server error",
		})
	}

	if app.S3 != nil {
		if err := storage.DeleteSnapshots(ctx, app.S3, params.GraphID); err != nil {
			logger.Error("Failed to delete snapshots", "graph_id", params.GraphID, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deleteGraphResponse{
		Message: "Graph deleted",
		GraphID: params.GraphID,
	})
}
