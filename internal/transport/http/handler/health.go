package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type presenceCounter interface {
	Count() int
}

// HealthHandler serves /health-check/{action}.
type HealthHandler struct {
	presence presenceCounter
}

func NewHealthHandler(presence presenceCounter) *HealthHandler {
	return &HealthHandler{presence: presence}
}

// StatusResponse is returned by the status action.
type StatusResponse struct {
	Status      string `json:"status"`
	OnlineUsers int    `json:"online_users"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "status":
		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", OnlineUsers: h.presence.Count()})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
