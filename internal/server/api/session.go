package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/handlevel/internal/session"
)

// SessionController is the part of a session the HTTP API drives.
type SessionController interface {
	Snapshot() session.Snapshot
	Enable() error
	Disable()
}

// SessionHandler serves the session status and the enable/disable switch.
type SessionHandler struct {
	session SessionController
}

// NewSessionHandler creates a SessionHandler for s.
func NewSessionHandler(s SessionController) *SessionHandler {
	return &SessionHandler{session: s}
}

// ServeHTTP routes /api/status and /api/session/{enable,disable}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/status" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.session.Snapshot())
		return
	}

	action := strings.TrimPrefix(r.URL.Path, "/api/session/")
	switch action {
	case "enable", "disable":
	default:
		writeError(w, http.StatusNotFound, "Unknown session action")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if action == "enable" {
		if err := h.session.Enable(); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	} else {
		h.session.Disable()
	}

	writeJSON(w, http.StatusOK, h.session.Snapshot())
}
