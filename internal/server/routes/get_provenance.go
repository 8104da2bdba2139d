package routes

import (
	"net/http"

	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/provenance"

	"github.com/labstack/echo/v4"
)

// GetProvenanceChainHandler returns every provenance record of a graph,
// oldest first.
func GetProvenanceChainHandler(c echo.Context) error {
	type chainParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type chainResponse struct {
		Message string              `json:"message"`
		Records []provenance.Record `json:"records"`
	}

	params := new(chainParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, chainResponse{
			Message: "Invalid request body",
			Records: []provenance.Record{},
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, chainResponse{
			Message: "Invalid request body",
			Records: []provenance.Record{},
		})
	}

	records, err := recorder(c).Chain(c.Request().Context(), params.GraphID)
	if err != nil {
		logger.Error("Failed to get provenance chain", "graph_id", params.GraphID, "err", err)
		return c.JSON(http.StatusInternalServerError, chainResponse{
			Message: "Internal server error",
			Records: []provenance.Record{},
		})
	}

	return c.JSON(http.StatusOK, chainResponse{
		Message: "OK",
		Records: records,
	})
}

// GetLineageHandler walks parent links from a record back to its root
// and returns the chain root first.
func GetLineageHandler(c echo.Context) error {
	type lineageParams struct {
		RecordID string `param:"record_id" validate:"required"`
	}

	type lineageResponse struct {
		Message string              `json:"message"`
		Records []provenance.Record `json:"records"`
	}

	params := new(lineageParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, lineageResponse{
			Message: "Invalid request body",
			Records: []provenance.Record{},
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, lineageResponse{
			Message: "Invalid request body",
			Records: []provenance.Record{},
		})
	}

	records, err := recorder(c).Lineage(c.Request().Context(), params.RecordID)
	if err != nil {
		logger.Error("Failed to get lineage", "record_id", params.RecordID, "err", err)
		return c.JSON(http.StatusInternalServerError, lineageResponse{
			Message: "Internal server error",
			Records: []provenance.Record{},
		})
	}
	if len(records) == 0 {
		return c.JSON(http.StatusNotFound, lineageResponse{
			Message: "Record not found",
			Records: []provenance.Record{},
		})
	}

	return c.JSON(http.StatusOK, lineageResponse{
		Message: "OK",
		Records: records,
	})
}
