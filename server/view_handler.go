package server

import (
	"encoding/json"
	"net/http"

	"CutRoom/cache"
	"CutRoom/core/view"
	"CutRoom/logger"
	"CutRoom/model"
)

// GeometryHandler computes the multi-track lane geometry for the session's
// current timeline at the requested zoom and scroll. The server owns all
// layout math; clients only draw the boxes they get back.
func (h *APIHandler) GeometryHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	scale := view.NewScale(
		floatQuery(r, "pps", h.cfg.MinPixelsPerSec),
		h.cfg.MinPixelsPerSec,
		h.cfg.MaxPixelsPerSec,
	)
	scroll := floatQuery(r, "scroll", 0)

	timeline := session.Snapshot()
	engine := session.Engine()

	shotAtPlayhead := ""
	if shot := view.ShotAt(timeline, engine.CurrentTime()); shot != nil {
		shotAtPlayhead = shot.ShotID
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pixelsPerSecond": scale.PixelsPerSecond,
		"totalDuration":   timeline.TotalDuration,
		"ticks":           view.RulerTicks(timeline.TotalDuration, scale),
		"shots":           view.ShotBoxes(timeline, scale, h.cfg.MinClipPixels),
		"narration":       view.AudioClipBoxes(timeline, model.CategoryNarration, scale, h.cfg.MinClipPixels),
		"dialogue":        view.AudioClipBoxes(timeline, model.CategoryDialogue, scale, h.cfg.MinClipPixels),
		"playheadX":       view.PlayheadX(engine.CurrentTime(), scale),
		"shotAtPlayhead":  shotAtPlayhead,
		"timeAtScroll":    scale.TimeAt(0, scroll),
	})
}

// ZoomPrefHandler reads and writes the user's persisted zoom level. The
// stored value is clamped into the configured pixels-per-second range on
// both paths, so a stale pref from an older build can never explode a lane.
func (h *APIHandler) ZoomPrefHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		pps := cache.LoadZoom(userID, h.cfg.MinPixelsPerSec)
		scale := view.NewScale(pps, h.cfg.MinPixelsPerSec, h.cfg.MaxPixelsPerSec)
		writeJSON(w, http.StatusOK, map[string]float64{
			"pixelsPerSecond": scale.PixelsPerSecond,
		})

	case http.MethodPut:
		var req struct {
			PixelsPerSecond float64 `json:"pixelsPerSecond"`
			Factor          float64 `json:"factor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		var scale view.Scale
		if req.Factor > 0 {
			// Relative zoom: scale the stored level by the factor, still
			// clamped to the configured range.
			current := cache.LoadZoom(userID, h.cfg.MinPixelsPerSec)
			scale = view.NewScale(current, h.cfg.MinPixelsPerSec, h.cfg.MaxPixelsPerSec).Zoom(req.Factor)
		} else {
			scale = view.NewScale(req.PixelsPerSecond, h.cfg.MinPixelsPerSec, h.cfg.MaxPixelsPerSec)
		}
		if err := cache.SaveZoom(userID, scale.PixelsPerSecond); err != nil {
			logger.Warn("failed to persist zoom pref",
				logger.Int64("userId", userID),
				logger.ErrorField(err))
		}
		writeJSON(w, http.StatusOK, map[string]float64{
			"pixelsPerSecond": scale.PixelsPerSecond,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
