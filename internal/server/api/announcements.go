package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/signvoice/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

// AnnouncementsHandler serves GET /api/announcements from the journal.
type AnnouncementsHandler struct {
	history History
}

// NewAnnouncementsHandler creates an AnnouncementsHandler.
func NewAnnouncementsHandler(h History) *AnnouncementsHandler {
	return &AnnouncementsHandler{history: h}
}

type announcementsResponse struct {
	Announcements []*store.Announcement `json:"announcements"`
}

// ServeHTTP implements the http.Handler interface.
func (h *AnnouncementsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}

	list, err := h.history.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list announcements")
		return
	}
	if list == nil {
		list = []*store.Announcement{}
	}

	writeJSON(w, http.StatusOK, announcementsResponse{Announcements: list})
}
