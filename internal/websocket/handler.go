package websocket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/videotube/backend/internal/auth"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/logger"
)

// Authenticator resolves an access token to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Account, error)
}

type Handler struct {
	hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewHandler accepts connections whose Origin is in allowedOrigins. An empty
// list or "*" accepts any origin.
func NewHandler(hub *Hub, authenticator Authenticator, allowedOrigins []string) *Handler {
	return &Handler{
		hub:  hub,
		auth: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: logger.Default().WithComponent("websocket"),
	}
}

// ServeWS upgrades an authenticated request. Browsers cannot set headers on
// websocket requests, so the token may come from ?token= as well as the
// access cookie or a bearer header.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	requestID := apperrors.GetRequestID(r.Context())

	token := tokenFrom(r)
	if token == "" {
		apperrors.WriteError(w, requestID, apperrors.Unauthorized("missing token parameter"))
		return
	}

	account, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		apperrors.WriteError(w, requestID, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn(r.Context(), "websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := NewClient(h.hub, conn, account.ID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func tokenFrom(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if c, err := r.Cookie(auth.AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
