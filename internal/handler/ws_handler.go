package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"echospace/internal/pkg/logx"
)

// HandleWebSocket upgrades the request and hands the connection to the socket hub.
// It blocks until the connection ends.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade connection to WebSocket", "error", err.Error())
			return
		}

		deps.Hub.Serve(conn, r.RemoteAddr)
	}
}
