package server

import (
	"image/png"
	"net/http"
	"strconv"

	"CutRoom/core/view"
	"CutRoom/logger"
)

func intQuery(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}

func floatQuery(r *http.Request, key string, fallback float64) float64 {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

// PeaksHandler returns the downsampled peak envelope for an audio URL.
// Results come from the process-wide cache; concurrent requests for the
// same URL and point count share one decode.
func (h *APIHandler) PeaksHandler(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}
	points := intQuery(r, "points", h.cfg.DefaultPeakPoints)

	resolved := h.ctrl.Resolver().Resolve(url)
	if resolved == "" {
		http.Error(w, "URL resolves to nothing", http.StatusBadRequest)
		return
	}

	data, err := h.ctrl.PeakCache().GetPeaks(r.Context(), resolved, points)
	if err != nil {
		logger.Warn("peak extraction failed",
			logger.String("url", url),
			logger.ErrorField(err))
		http.Error(w, "Failed to extract peaks", http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// WaveformPNGHandler renders the static mini waveform for an audio URL.
func (h *APIHandler) WaveformPNGHandler(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}
	width := intQuery(r, "w", 320)
	height := intQuery(r, "h", 48)
	if width > 4096 || height > 1024 {
		http.Error(w, "Requested size too large", http.StatusBadRequest)
		return
	}

	resolved := h.ctrl.Resolver().Resolve(url)
	if resolved == "" {
		http.Error(w, "URL resolves to nothing", http.StatusBadRequest)
		return
	}

	data, err := h.ctrl.PeakCache().GetPeaks(r.Context(), resolved, width)
	if err != nil {
		logger.Warn("peak extraction failed",
			logger.String("url", url),
			logger.ErrorField(err))
		http.Error(w, "Failed to extract peaks", http.StatusUnprocessableEntity)
		return
	}

	img := view.RenderWaveform(data, view.Box{Width: width, Height: height})
	if img == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := png.Encode(w, img); err != nil {
		logger.Error("failed to encode waveform png", logger.ErrorField(err))
	}
}
