package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devconnect-api/internal/application/message"
	"github.com/devconnect-api/internal/domain"
)

// MessageHandler handles direct messages.
type MessageHandler struct {
	svc message.Service
}

func NewMessageHandler(svc message.Service) *MessageHandler { return &MessageHandler{svc: svc} }

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req domain.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.Send(r.Context(), userID, req.ReceiverID, req.Content)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	convs, err := h.svc.Conversations(r.Context(), userID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	msgs, err := h.svc.Thread(r.Context(), userID, chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) MarkThreadRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkThreadRead(r.Context(), userID, chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

func (h *MessageHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.DeleteConversation(r.Context(), userID, chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "messageID")); err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "message deleted"})
}
