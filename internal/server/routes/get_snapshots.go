package routes

import (
	"net/http"

	"github.com/caselight/backend/internal/server/middleware"
	"github.com/caselight/backend/internal/storage"
	"github.com/caselight/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ListSnapshotsHandler lists the stored export snapshots of a graph with
// presigned download links, newest first.
func ListSnapshotsHandler(c echo.Context) error {
	type snapshotsParams struct {
		GraphID string `param:"id" validate:"required"`
	}

	type snapshotEntry struct {
		Key string `json:"key"`
		URL string `json:"url,omitempty"`
	}

	type snapshotsResponse struct {
		Message   string          `json:"message"`
		Snapshots []snapshotEntry `json:"snapshots"`
	}

	params := new(snapshotsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, snapshotsResponse{
			Message:   "Invalid request body",
			Snapshots: []snapshotEntry{},
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, snapshotsResponse{
			Message:   "Invalid request body",
			Snapshots: []snapshotEntry{},
		})
	}

	s3Client := c.(*middleware.AppContext).App.S3
	if s3Client == nil {
		return c.JSON(http.StatusServiceUnavailable, snapshotsResponse{
			Message:   "Object storage is not configured",
			Snapshots: []snapshotEntry{},
		})
	}

	ctx := c.Request().Context()
	keys, err := storage.SnapshotKeys(ctx, s3Client, params.GraphID)
	if err != nil {
		logger.Error("Failed to list snapshots", "graph_id", params.GraphID, "err", err)
		return c.JSON(http.StatusInternalServerError, snapshotsResponse{
			Message:   "Internal server error",
			Snapshots: []snapshotEntry{},
		})
	}

	snapshots := make([]snapshotEntry, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		entry := snapshotEntry{Key: keys[i]}
		url, err := storage.GenerateDownloadLink(ctx, s3Client, keys[i])
		if err != nil {
			logger.Error("Failed to presign snapshot", "key", keys[i], "err", err)
		} else {
			entry.URL = url
		}
		snapshots = append(snapshots, entry)
	}

	return c.JSON(http.StatusOK, snapshotsResponse{
		Message:   "OK",
		Snapshots: snapshots,
	})
}
