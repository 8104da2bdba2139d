package routes

import (
	"errors"
	"net/http"

	"github.com/caselight/backend/internal/server/middleware"
	"github.com/caselight/backend/pkg/graph"
	"github.com/caselight/backend/pkg/provenance"
	graphstorage "github.com/caselight/backend/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// graphClient assembles a client over the request's connection pool.
func graphClient(c echo.Context) (*graph.GraphClient, error) {
	app := c.(*middleware.AppContext).App
	return graph.NewGraphClient(graph.NewGraphClientParams{
		Store:      graphstorage.NewGraphDBStore(app.DBConn),
		Provenance: provenance.NewDBRecorder(app.DBConn),
		Classifier: app.Classifier,
	})
}

// recorder returns a provenance reader over the request's connection pool.
func recorder(c echo.Context) *provenance.DBRecorder {
	app := c.(*middleware.AppContext).App
	return provenance.NewDBRecorder(app.DBConn)
}

// errorStatus maps engine errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrGraphExists),
		errors.Is(err, graph.ErrConfirmRequired):
		return http.StatusConflict
	case errors.Is(err, graph.ErrNoInput),
		errors.Is(err, graph.ErrSameNode),
		errors.Is(err, graph.ErrEmptySplit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
