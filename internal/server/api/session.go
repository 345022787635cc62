package api

import (
	"net/http"
	"strings"

	log "github.com/echocat/slf4g"
)

// SessionHandler serves /api/session, /api/session/start and /api/session/stop.
type SessionHandler struct {
	session SessionControl
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(s SessionControl) *SessionHandler {
	return &SessionHandler{session: s}
}

type sessionResponse struct {
	State     string `json:"state"`
	SessionID string `json:"sessionId,omitempty"`
	Frames    int64  `json:"frames"`
}

// ServeHTTP implements the http.Handler interface.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/session")
	action = strings.Trim(action, "/")

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.status(w)
	case "start":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.start(w)
	case "stop":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.session.Stop()
		h.status(w)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) start(w http.ResponseWriter) {
	if err := h.session.Start(); err != nil {
		log.WithError(err).Warn("Cannot start session from API.")
		writeError(w, http.StatusServiceUnavailable, "Failed to start session: "+err.Error())
		return
	}
	h.status(w)
}

func (h *SessionHandler) status(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, sessionResponse{
		State:     string(h.session.State()),
		SessionID: h.session.SessionID(),
		Frames:    h.session.Frames(),
	})
}
