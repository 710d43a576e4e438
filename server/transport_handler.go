package server

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"

	"CutRoom/core/transport"
	"CutRoom/logger"
)

func transportStatus(engine *transport.Engine) map[string]interface{} {
	return map[string]interface{}{
		"state":    engine.CurrentState(),
		"url":      engine.URL(),
		"position": engine.CurrentTime(),
		"duration": engine.Duration(),
		"playing":  engine.IsPlaying(),
	}
}

// TransportLoadHandler points the session's engine at an audio URL. The
// decode runs in the background; clients watch the websocket feed (or poll
// status) for ready/error.
func (h *APIHandler) TransportLoadHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resolved := h.ctrl.Resolver().Resolve(req.URL)
	if resolved == "" {
		session.Engine().Unload()
		writeJSON(w, http.StatusOK, transportStatus(session.Engine()))
		return
	}

	// The load outlives this request; tying it to r.Context() would cancel
	// the decode as soon as the 202 goes out.
	session.Engine().Load(context.Background(), resolved)
	writeJSON(w, http.StatusAccepted, transportStatus(session.Engine()))
}

// TransportPlayHandler starts playback, optionally bounded to a range.
func (h *APIHandler) TransportPlayHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	var req struct {
		Start *float64 `json:"start,omitempty"`
		End   *float64 `json:"end,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := session.Engine().Play(req.Start, req.End); err != nil {
		if errors.Is(err, transport.ErrNotLoaded) {
			http.Error(w, "No audio loaded", http.StatusConflict)
			return
		}
		logger.Error("play failed", logger.ErrorField(err))
		http.Error(w, "Play failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, transportStatus(session.Engine()))
}

// TransportPauseHandler pauses playback. Pausing an already-paused engine
// is a no-op.
func (h *APIHandler) TransportPauseHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}
	session.Engine().Pause()
	writeJSON(w, http.StatusOK, transportStatus(session.Engine()))
}

// TransportSeekHandler seeks to an absolute time or a 0..1 ratio of the
// loaded duration.
func (h *APIHandler) TransportSeekHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	var req struct {
		Seconds *float64 `json:"seconds,omitempty"`
		Ratio   *float64 `json:"ratio,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch {
	case req.Seconds != nil:
		session.Engine().SeekTo(*req.Seconds)
	case req.Ratio != nil:
		session.Engine().SeekToRatio(*req.Ratio)
	default:
		http.Error(w, "seconds or ratio is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, transportStatus(session.Engine()))
}

// TransportStatusHandler reports the current transport state.
func (h *APIHandler) TransportStatusHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}
	writeJSON(w, http.StatusOK, transportStatus(session.Engine()))
}

// TransportFramePNGHandler rasterizes the interactive waveform with the
// progress cursor at the engine's current position.
func (h *APIHandler) TransportFramePNGHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}
	width := intQuery(r, "w", 640)
	height := intQuery(r, "h", 96)
	if width > 4096 || height > 1024 {
		http.Error(w, "Requested size too large", http.StatusBadRequest)
		return
	}

	img := session.Engine().WaveformFrame(width, height)
	if img == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		logger.Error("failed to encode transport frame", logger.ErrorField(err))
	}
}
