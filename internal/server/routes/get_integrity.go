package routes

import (
	"errors"
	"net/http"

	"github.com/caselight/backend/pkg/graph"
	"github.com/caselight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CheckIntegrityHandler verifies the stored edge counts against a live
// tally. Meant for operators; a failure indicates a bug, not bad input.
func CheckIntegrityHandler(c echo.Context) error {
	type integrityParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type integrityResponse struct {
		Message string `json:"message"`
		OK      bool   `json:"ok"`
	}

	params := new(integrityParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, integrityResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, integrityResponse{
			Message: "Invalid request body",
		})
	}

	client, err := graphClient(c)
	if err != nil {
		logger.Error("Failed to create graph client", "err", err)
		return c.JSON(http.StatusInternalServerError, integrityResponse{
			Message: "Internal server error",
		})
	}

	err = client.CheckEdgeCounts(c.Request().Context(), params.GraphID)
	if err != nil {
		if errors.Is(err, graph.ErrIntegrity) {
			return c.JSON(http.StatusOK, integrityResponse{
				Message: err.Error(),
				OK:      false,
			})
		}
		logger.Error("Failed to check integrity", "graph_id", params.GraphID, "err", err)
		return c.JSON(errorStatus(err), integrityResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, integrityResponse{
		Message: "OK",
		OK:      true,
	})
}
