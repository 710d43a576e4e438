package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"CutRoom/core/renderapi"
	"CutRoom/core/view"
	"CutRoom/core/workbench"
	"CutRoom/logger"
	"CutRoom/repository"
)

// sessionFor resolves the project's open session or answers 404.
func (h *APIHandler) sessionFor(w http.ResponseWriter, r *http.Request) *workbench.Session {
	projectID := mux.Vars(r)["projectId"]
	session := h.ctrl.Session(projectID)
	if session == nil {
		http.Error(w, "No open session for project", http.StatusNotFound)
		return nil
	}
	return session
}

// timelineResponse is the session state returned by most workbench endpoints.
func timelineResponse(session *workbench.Session) map[string]interface{} {
	return map[string]interface{}{
		"timeline":   session.Snapshot(),
		"violations": session.Violations(),
		"locked":     session.Locked(),
	}
}

// OpenWorkbenchHandler opens (or returns) the project's workbench session.
func (h *APIHandler) OpenWorkbenchHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	session, err := h.ctrl.OpenSession(projectID)
	if err != nil {
		if errors.Is(err, repository.ErrTimelineNotFound) {
			http.Error(w, "Timeline not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to open session",
			logger.String("projectId", projectID),
			logger.ErrorField(err))
		http.Error(w, "Failed to open workbench", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, timelineResponse(session))
}

// CloseWorkbenchHandler closes the project's session, if any.
func (h *APIHandler) CloseWorkbenchHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	h.ctrl.CloseSession(projectID)
	w.WriteHeader(http.StatusNoContent)
}

// ResizeShotHandler applies a duration change to one shot. The applied
// duration may differ from the requested one: the floor and grid snap win.
func (h *APIHandler) ResizeShotHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}
	shotID := mux.Vars(r)["shotId"]

	var req struct {
		Seconds float64 `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	applied, err := session.ResizeShot(shotID, req.Seconds)
	if err != nil {
		if errors.Is(err, workbench.ErrLocked) {
			http.Error(w, err.Error(), http.StatusLocked)
			return
		}
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	resp := timelineResponse(session)
	resp["applied"] = applied
	writeJSON(w, http.StatusOK, resp)
}

// DragShotHandler drives the trailing-edge resize state machine: begin at a
// pointer position, move for live bounded feedback, end to apply, cancel to
// abandon. Refused while locked.
func (h *APIHandler) DragShotHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}
	shotID := mux.Vars(r)["shotId"]

	var req struct {
		Action          string  `json:"action"`
		PointerX        float64 `json:"pointerX"`
		PixelsPerSecond float64 `json:"pixelsPerSecond"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "begin":
		scale := view.NewScale(req.PixelsPerSecond, h.cfg.MinPixelsPerSec, h.cfg.MaxPixelsPerSec)
		if err := session.BeginDrag(shotID, req.PointerX, scale); err != nil {
			if errors.Is(err, workbench.ErrLocked) {
				http.Error(w, err.Error(), http.StatusLocked)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"shotId": shotID})

	case "move":
		bounded, err := session.MoveDrag(req.PointerX)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"duration": bounded})

	case "end":
		bounded, err := session.EndDrag(req.PointerX)
		if err != nil {
			if errors.Is(err, workbench.ErrLocked) {
				http.Error(w, err.Error(), http.StatusLocked)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		resp := timelineResponse(session)
		resp["applied"] = bounded
		writeJSON(w, http.StatusOK, resp)

	case "cancel":
		session.CancelDrag()
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Unknown drag action", http.StatusBadRequest)
	}
}

// AlignHandler bulk-aligns every shot's duration to its voice track.
func (h *APIHandler) AlignHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	if err := session.AlignToVoice(); err != nil {
		if errors.Is(err, workbench.ErrLocked) {
			http.Error(w, err.Error(), http.StatusLocked)
			return
		}
		logger.Error("align failed", logger.ErrorField(err))
		http.Error(w, "Align failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, timelineResponse(session))
}

// ViolationsHandler reports the current constraint violations.
func (h *APIHandler) ViolationsHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"violations": session.Violations(),
	})
}

// SaveHandler persists the working timeline.
func (h *APIHandler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	var req struct {
		ApplyToProject bool `json:"applyToProject"`
		ResetVideos    bool `json:"resetVideos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := session.Save(req.ApplyToProject, req.ResetVideos); err != nil {
		if errors.Is(err, workbench.ErrViolations) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		logger.Error("save failed",
			logger.String("projectId", session.ProjectID),
			logger.ErrorField(err))
		http.Error(w, "Save failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, timelineResponse(session))
}

// GenerateVoiceHandler proxies voice generation to the render backend and
// reloads the timeline afterwards.
func (h *APIHandler) GenerateVoiceHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	var req renderapi.GenerateVoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ProjectID = session.ProjectID

	result, err := session.GenerateVoice(r.Context(), req)
	if err != nil {
		logger.Error("voice generation failed",
			logger.String("projectId", session.ProjectID),
			logger.ErrorField(err))
		// The backend's message explains what the user must fix (missing
		// script text, unsupported language) and is passed through as-is.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := timelineResponse(session)
	resp["result"] = result
	writeJSON(w, http.StatusOK, resp)
}

// RenderMasterHandler asks the backend for preview master tracks.
func (h *APIHandler) RenderMasterHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	var req struct {
		Variants []renderapi.MasterVariant `json:"variants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Variants) == 0 {
		req.Variants = []renderapi.MasterVariant{renderapi.VariantNarrationOnly, renderapi.VariantFinalMix}
	}

	result, err := session.RenderMaster(r.Context(), req.Variants)
	if err != nil {
		logger.Error("master render failed",
			logger.String("projectId", session.ProjectID),
			logger.ErrorField(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := timelineResponse(session)
	resp["result"] = result
	writeJSON(w, http.StatusOK, resp)
}

// ExtractAudioHandler pulls voice tracks out of already-rendered shot videos.
func (h *APIHandler) ExtractAudioHandler(w http.ResponseWriter, r *http.Request) {
	session := h.sessionFor(w, r)
	if session == nil {
		return
	}

	var req struct {
		ShotIDs []string `json:"shotIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcomes, err := session.ExtractVideoAudio(r.Context(), req.ShotIDs)
	if err != nil {
		logger.Error("audio extraction failed",
			logger.String("projectId", session.ProjectID),
			logger.ErrorField(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := timelineResponse(session)
	resp["outcomes"] = outcomes
	writeJSON(w, http.StatusOK, resp)
}
