// Package api provides the HTTP control handlers for signvoice.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/signvoice/internal/announce"
	"github.com/ayusman/signvoice/internal/session"
	"github.com/ayusman/signvoice/internal/store"
)

// SessionControl is the part of the session controller the API drives.
type SessionControl interface {
	Start() error
	Stop()
	State() session.State
	SessionID() string
	Frames() int64
}

// ModeControl reads and switches the announce mode.
type ModeControl interface {
	Mode() announce.Mode
	SetMode(announce.Mode) error
}

// History lists journaled announcements.
type History interface {
	Recent(limit int) ([]*store.Announcement, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
