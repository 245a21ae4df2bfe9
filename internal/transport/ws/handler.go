// Package ws serves the realtime socket: clients announce presence, send
// direct messages and receive relayed events.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devconnect-api/internal/domain"
	jwtinfra "github.com/devconnect-api/internal/infrastructure/jwt"
	"github.com/devconnect-api/internal/presence"
	"github.com/devconnect-api/internal/realtime"
	"github.com/devconnect-api/internal/transport/http/middleware"
)

type TokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type messageSender interface {
	Send(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error)
}

type Options struct {
	Registry *presence.Registry
	Messages messageSender
	// Verifier authenticates the upgrade request. Nil trusts whatever id the
	// client announces (development).
	Verifier       TokenVerifier
	AllowedOrigins []string
	SendBuffer     int
	Logger         *slog.Logger
}

type Handler struct {
	registry   *presence.Registry
	messages   messageSender
	verifier   TokenVerifier
	sendBuffer int
	log        *slog.Logger
	upgrader   websocket.Upgrader

	mu       sync.Mutex
	conns    map[*Conn]struct{}
	stopping bool
}

func NewHandler(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	origins := opts.AllowedOrigins
	return &Handler{
		registry:   opts.Registry,
		messages:   opts.Messages,
		verifier:   opts.Verifier,
		sendBuffer: opts.SendBuffer,
		log:        log,
		conns:      make(map[*Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return originAllowed(origins, r.Header.Get("Origin")) },
		},
	}
}

type sendMessagePayload struct {
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}

type messageSentPayload struct {
	Success bool            `json:"success"`
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var tokenUser string
	if h.verifier != nil {
		tok, ok := middleware.BearerToken(r)
		if !ok {
			middleware.WriteError(w, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := h.verifier.Verify(tok)
		if err != nil {
			middleware.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		tokenUser = claims.UserID
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Debug("ws: upgrade failed", "error", err)
		return
	}
	c := newConn(wsConn, tokenUser, h.sendBuffer)
	if !h.track(c) {
		c.goingAway()
		return
	}
	defer h.untrack(c)
	h.log.Debug("ws: connected", "conn_id", c.ID(), "user_id", tokenUser)

	go c.writePump()
	h.readLoop(r.Context(), c)

	offline := h.registry.Clear(c)
	c.close()
	h.log.Debug("ws: disconnected", "conn_id", c.ID(), "offline", offline)
}

// Shutdown closes every live session with a going-away frame and refuses
// new ones. Register it with (*http.Server).RegisterOnShutdown, since
// Shutdown does not wait for hijacked connections.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	h.stopping = true
	live := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		live = append(live, c)
	}
	h.mu.Unlock()

	for _, c := range live {
		c.goingAway()
	}
	if len(live) > 0 {
		h.log.Info("ws: closed sessions for shutdown", "count", len(live))
	}
}

// Live reports the number of open sessions.
func (h *Handler) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Handler) track(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopping {
		return false
	}
	h.conns[c] = struct{}{}
	return true
}

func (h *Handler) untrack(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

func (h *Handler) readLoop(ctx context.Context, c *Conn) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	// The request context ends when the handler returns; messages persisted
	// from this loop must not be cut short by it.
	ctx = context.WithoutCancel(ctx)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("ws: read", "conn_id", c.ID(), "error", err)
			}
			return
		}
		var f realtime.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.reply(c, realtime.EventError, errorPayload{Error: "malformed frame"})
			continue
		}
		h.dispatch(ctx, c, f)
	}
}

func (h *Handler) dispatch(ctx context.Context, c *Conn, f realtime.Frame) {
	switch f.Event {
	case realtime.EventUserOnline:
		var userID string
		if err := json.Unmarshal(f.Data, &userID); err != nil || strings.TrimSpace(userID) == "" {
			h.reply(c, realtime.EventError, errorPayload{Error: "user-online expects a user id"})
			return
		}
		if c.tokenUser != "" && userID != c.tokenUser {
			h.reply(c, realtime.EventError, errorPayload{Error: "user id does not match token"})
			return
		}
		c.user = userID
		if h.registry.SetOnline(userID, c) {
			h.log.Debug("ws: session replaced", "user_id", userID, "conn_id", c.ID())
		}

	case realtime.EventUserOffline:
		for _, u := range h.registry.Users(c) {
			h.registry.SetOffline(u, c)
		}
		// Sending again needs a fresh user-online. A verified session
		// keeps its token identity.
		c.user = c.tokenUser

	case realtime.EventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			h.reply(c, realtime.EventMessageSent, messageSentPayload{Error: "malformed send-message payload"})
			return
		}
		if c.user == "" {
			h.reply(c, realtime.EventMessageSent, messageSentPayload{Error: "announce user-online first"})
			return
		}
		m, err := h.messages.Send(ctx, c.user, p.Receiver, p.Content)
		if err != nil {
			h.reply(c, realtime.EventMessageSent, messageSentPayload{Error: clientError(err)})
			if !isClientError(err) {
				h.log.Error("ws: send message", "sender_id", c.user, "error", err)
			}
			return
		}
		h.reply(c, realtime.EventMessageSent, messageSentPayload{Success: true, Message: m})

	default:
		h.reply(c, realtime.EventError, errorPayload{Error: "unknown event " + f.Event})
	}
}

func (h *Handler) reply(c *Conn, event string, payload any) {
	frame, err := realtime.EncodeFrame(event, payload)
	if err != nil {
		h.log.Error("ws: encode reply", "event", event, "error", err)
		return
	}
	if !c.TrySend(frame) {
		h.log.Debug("ws: reply dropped", "conn_id", c.ID(), "event", event)
	}
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrBadRequest) || errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthorized)
}

func clientError(err error) string {
	if isClientError(err) {
		return err.Error()
	}
	return "internal server error"
}

// originAllowed accepts requests without an Origin header (non-browser
// clients), a wildcard list, or an exact match.
func originAllowed(allowed []string, origin string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
