package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/signvoice/internal/announce"
)

// ModeHandler serves GET and PUT /api/mode.
type ModeHandler struct {
	mode     ModeControl
	onChange func(announce.Mode)
}

// NewModeHandler creates a ModeHandler. onChange, if set, runs after a
// successful switch so other controls can follow.
func NewModeHandler(m ModeControl, onChange func(announce.Mode)) *ModeHandler {
	return &ModeHandler{mode: m, onChange: onChange}
}

type modeBody struct {
	Mode string `json:"mode"`
}

// ServeHTTP implements the http.Handler interface.
func (h *ModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, modeBody{Mode: h.mode.Mode().String()})
	case http.MethodPut:
		h.update(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ModeHandler) update(w http.ResponseWriter, r *http.Request) {
	var req modeBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	m, err := announce.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Mode must be voice or text")
		return
	}
	if err := h.mode.SetMode(m); err != nil {
		if errors.Is(err, announce.ErrInvalidMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set mode")
		return
	}
	if h.onChange != nil {
		h.onChange(m)
	}

	writeJSON(w, http.StatusOK, modeBody{Mode: m.String()})
}
