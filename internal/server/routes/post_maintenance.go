package routes

import (
	"net/http"

	"github.com/caselight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MergeNodesHandler merges one node into another. Merge is destructive,
// so the request must set confirm; without it the handler reports what
// would happen and returns 409.
func MergeNodesHandler(c echo.Context) error {
	type mergeBody struct {
		GraphID  string `param:"id" validate:"required"`
		SourceID int64  `json:"source_id" validate:"required,numeric"`
		TargetID int64  `json:"target_id" validate:"required,numeric"`
		Confirm  bool   `json:"confirm"`
	}

	type mergeResponse struct {
		Message  string `json:"message"`
		GraphID  string `json:"graph_id,omitempty"`
		TargetID int64  `json:"target_id,omitempty"`
	}

	data := new(mergeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, mergeResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, mergeResponse{
			Message: "Invalid request body",
		})
	}

	client, err := graphClient(c)
	if err != nil {
		logger.Error("Failed to create graph client", "err", err)
		return c.JSON(http.StatusInternalServerError, mergeResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	err = client.Merge(ctx, data.GraphID, data.SourceID, data.TargetID, data.Confirm)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to merge nodes", "graph_id", data.GraphID, "source_id", data.SourceID, "target_id", data.TargetID, "err", err)
			return c.JSON(status, mergeResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(status, mergeResponse{
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, mergeResponse{
		Message:  "Nodes merged",
		GraphID:  data.GraphID,
		TargetID: data.TargetID,
	})
}

// SplitNodeHandler splits the given entity records out of a node into a
// new node.
func SplitNodeHandler(c echo.Context) error {
	type splitBody struct {
		GraphID   string   `param:"id" validate:"required"`
		NodeID    int64    `json:"node_id" validate:"required,numeric"`
		EntityIDs []string `json:"entity_ids" validate:"required,min=1"`
		NewName   string   `json:"new_name"`
	}

	type splitResponse struct {
		Message   string `json:"message"`
		GraphID   string `json:"graph_id,omitempty"`
		NewNodeID int64  `json:"new_node_id,omitempty"`
	}

	data := new(splitBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, splitResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, splitResponse{
			Message: "Invalid request body",
		})
	}

	client, err := graphClient(c)
	if err != nil {
		logger.Error("Failed to create graph client", "err", err)
		return c.JSON(http.StatusInternalServerError, splitResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	newNodeID, err := client.Split(ctx, data.GraphID, data.NodeID, data.EntityIDs, data.NewName)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error("Failed to split node", "graph_id", data.GraphID, "node_id", data.NodeID, "err", err)
			return c.JSON(status, splitResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(status, splitResponse{
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, splitResponse{
		Message:   "Node split",
		GraphID:   data.GraphID,
		NewNodeID: newNodeID,
	})
}
