package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"CutRoom/logger"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 5 * time.Second

// TransportEventsHandler streams the session's transport events over a
// websocket. Each subscriber gets its own buffered feed; a subscriber that
// stops draining misses events instead of stalling the engine.
func (h *APIHandler) TransportEventsHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	session := h.ctrl.Session(projectID)
	if session == nil {
		http.Error(w, "No open session for project", http.StatusNotFound)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	bus := session.Engine().Events()
	id, events := bus.Subscribe()
	defer bus.Unsubscribe(id)

	logger.Debug("transport event feed opened",
		logger.String("projectId", projectID),
		logger.String("subscriber", id))

	// Reader goroutine: we never expect client messages, but reading is
	// what surfaces the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				logger.Debug("transport event feed write failed",
					logger.String("projectId", projectID),
					logger.ErrorField(err))
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
