package runws

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      logger.Logger

	secret string
}

func NewHandler(hub *Hub, log logger.Logger, secret string, allowedOrigins []string) *Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			allowed := slices.Contains(allowedOrigins, origin)
			if !allowed {
				log.Warn("ws auth: origin rejected", "origin", origin)
			}
			return allowed
		},
	}

	return &Handler{
		hub:      hub,
		upgrader: upgrader,
		log:      log,
		secret:   secret,
	}
}

// Serve authenticates with a bearer header or a token query parameter.
// New clients start subscribed to the runs channel.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	}

	claims, err := domain.ValidateToken(token, h.secret)
	if err != nil {
		h.log.Warn("ws auth: invalid credentials", "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientID := uuid.NewString()
	if sub, ok := claims["sub"]; ok && sub != nil {
		clientID = fmt.Sprintf("%v:%s", sub, clientID[:8])
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws auth: upgrade failed", "error", err)
		return
	}

	c := NewClient(h.hub, conn, h.log, clientID)
	h.hub.Register(c)

	go c.writePump()
	go c.readPump()
}
