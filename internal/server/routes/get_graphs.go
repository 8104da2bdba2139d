package routes

import (
	"net/http"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetStatsHandler returns the aggregate counts for a graph.
func GetStatsHandler(c echo.Context) error {
	type statsParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type statsResponse struct {
		Message string             `json:"message"`
		Stats   *common.GraphStats `json:"stats,omitempty"`
	}

	params := new(statsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, statsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, statsResponse{
			Message: "Invalid request body",
		})
	}

	client, err := graphClient(c)
	if err != nil {
		logger.Error("Failed to create graph client", "err", err)
		return c.JSON(http.StatusInternalServerError, statsResponse{
			Message: "Internal server error",
		})
	}

	stats, err := client.Stats(c.Request().Context(), params.GraphID)
	if err != nil {
		logger.Error("Failed to get stats", "graph_id", params.GraphID, "err", err)
		return c.JSON(errorStatus(err), statsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, statsResponse{
		Message: "OK",
		Stats:   &stats,
	})
}

// SearchNodesHandler performs free-text node search over canonical names
// and aliases.
func SearchNodesHandler(c echo.Context) error {
	type searchParams struct {
		GraphID string `param:"id" validate:"required"`
		Query   string `query:"q" validate:"required"`
		Limit   int    `query:"limit"`
	}

	type searchResponse struct {
		Message string        `json:"message"`
		Nodes   []common.Node `json:"nodes,omitempty"`
	}

	params := new(searchParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	client, err := graphClient(c)
	if err != nil {
		logger.Error("Failed to create graph client", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Internal server error",
		})
	}

	nodes, err := client.Search(c.Request().Context(), params.GraphID, params.Query, params.Limit)
	if err != nil {
		logger.Error("Failed to search nodes", "graph_id", params.GraphID, "err", err)
		return c.JSON(errorStatus(err), searchResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchResponse{
		Message: "OK",
		Nodes:   nodes,
	})
}

// GetPathsHandler finds the shortest connection chains between two named
// entities. Unresolvable names yield an empty path list, not an error.
func GetPathsHandler(c echo.Context) error {
	type pathsParams struct {
		GraphID string `param:"id" validate:"required"`
		Source  string `query:"source" validate:"required"`
		Target  string `query:"target" validate:"required"`
		MaxHops int    `query:"max_hops"`
	}

	type pathsResponse struct {
		Message string        `json:"message"`
		Source  *common.Node  `json:"source,omitempty"`
		Target  *common.Node  `json:"target,omitempty"`
		Paths   []common.Path `json:"paths"`
	}

	params := new(pathsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, pathsResponse{
			Message: "Invalid request body",
			Paths:   []common.Path{},
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, pathsResponse{
			Message: "Invalid request body",
			Paths:   []common.Path{},
		})
	}

	client, err := graphClient(c)
	if err != nil {
		logger.Error("Failed to create graph client", "err", err)
		return c.JSON(http.StatusInternalServerError, pathsResponse{
			Message: "Internal server error",
			Paths:   []common.Path{},
		})
	}

	result, err := client.FindPaths(c.Request().Context(), params.GraphID, params.Source, params.Target, params.MaxHops)
	if err != nil {
		logger.Error("Failed to find paths", "graph_id", params.GraphID, "err", err)
		return c.JSON(errorStatus(err), pathsResponse{
			Message: "Internal server error",
			Paths:   []common.Path{},
		})
	}

	paths := result.Paths
	if paths == nil {
		paths = []common.Path{}
	}

	return c.JSON(http.StatusOK, pathsResponse{
		Message: "OK",
		Source:  result.Source,
		Target:  result.Target,
		Paths:   paths,
	})
}

// ExportGraphHandler returns the full graph as a self-contained snapshot.
func ExportGraphHandler(c echo.Context) error {
	type exportParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type exportResponse struct {
		Message string              `json:"message"`
		Export  *common.GraphExport `json:"export,omitempty"`
	}

	params := new(exportParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, exportResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, exportResponse{
			Message: "Invalid request body",
		})
	}

	client, err := graphClient(c)
	if err != nil {
		logger.Error("Failed to create graph client", "err", err)
		return c.JSON(http.StatusInternalServerError, exportResponse{
			Message: "Internal server error",
		})
	}

	export, err := client.Export(c.Request().Context(), params.GraphID)
	if err != nil {
		logger.Error("Failed to export graph", "graph_id", params.GraphID, "err", err)
		return c.JSON(errorStatus(err), exportResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, exportResponse{
		Message: "OK",
		Export:  export,
	})
}
