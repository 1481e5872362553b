package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kioskvoice/ordergate/pkg/chat/relay"
	"github.com/kioskvoice/ordergate/pkg/gateway/config"
)

// ChatHandler upgrades /ws/order requests and hands the socket to the
// relay. Each connection gets a fresh session id.
type ChatHandler struct {
	Config config.Config
	Relay  *relay.Relay
	Logger *slog.Logger
}

func (h ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.originAllowed(r) {
		http.Error(w, "origin is not allowed", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", "error", err)
		}
		return
	}
	defer conn.Close()

	sessionID := "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	h.Relay.HandleSession(r.Context(), sessionID, conn)
}

func (h ChatHandler) originAllowed(r *http.Request) bool {
	if len(h.Config.AllowedOrigins) == 0 {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Non-browser clients send no Origin header.
		return true
	}
	_, ok := h.Config.AllowedOrigins[origin]
	return ok
}
