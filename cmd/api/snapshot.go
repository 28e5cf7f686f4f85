package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/response"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/export"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

const liveSnapshotKey = "live"

const (
	sourceArtifact = "artifact"
	sourceLive     = "live"
)

type GetSnapshotResponse = response.APIResponse[*types.Snapshot]

// artifactCache holds the last decoded artifact. It is decoded again only
// when the file's modification time or size changes.
type artifactCache struct {
	mu       sync.Mutex
	modTime  time.Time
	size     int64
	snapshot *types.Snapshot
}

func (c *artifactCache) load(path string) (*types.Snapshot, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && info.ModTime().Equal(c.modTime) && info.Size() == c.size {
		return c.snapshot, c.modTime, nil
	}

	s, modTime, err := export.ReadJSON(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	c.snapshot, c.modTime, c.size = s, modTime, info.Size()
	return s, modTime, nil
}

// snapshot returns the published artifact when it is fresh enough, otherwise
// a live snapshot kept in memory for CACHE_TTL. Concurrent misses share one
// build.
func (app *application) snapshot(ctx context.Context) (*types.Snapshot, string, error) {
	const component = "SnapshotLoader"

	s, modTime, err := app.artifact.load(app.config.build.OutputPath)
	switch {
	case err == nil && (app.config.snapshotMaxAge <= 0 || time.Since(modTime) <= app.config.snapshotMaxAge):
		return s, sourceArtifact, nil
	case err == nil:
		app.logger.Warn(component, "Artifact is stale, using live data: path=%s age=%s", app.config.build.OutputPath, time.Since(modTime).Round(time.Second))
	case errors.Is(err, fs.ErrNotExist):
		app.logger.Warn(component, "Artifact missing, using live data: path=%s", app.config.build.OutputPath)
	default:
		app.logger.Error(component, "Artifact unreadable, using live data: path=%s error=%v", app.config.build.OutputPath, err)
	}

	if s, ok := app.snapshots.Get(liveSnapshotKey); ok {
		return s, sourceLive, nil
	}

	v, err, _ := app.group.Do(liveSnapshotKey, func() (any, error) {
		s, _, err := app.live.Build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		app.snapshots.Set(liveSnapshotKey, s)
		return s, nil
	})
	if err != nil {
		return nil, "", err
	}
	return v.(*types.Snapshot), sourceLive, nil
}

// @Summary		Get snapshot
// @Description	Returns the published snapshot, or a live one (no executors) when the artifact is missing or stale.
// @Tags			Snapshot
// @Produce		json
// @Success		200	{object}	GetSnapshotResponse		"Snapshot with its source in the message"
// @Failure		502	{object}	response.ErrorResponse	"Artifact unavailable and the live build failed"
// @Router			/snapshot [get]
func (app *application) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	s, source, err := app.snapshot(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "failed to build snapshot: "+err.Error())
		return
	}

	w.Header().Set("X-Snapshot-Source", source)
	response := &GetSnapshotResponse{
		Success: true,
		Data:    s,
		Source:  source,
		Message: "Snapshot served from " + source + " data",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
