package httpserver

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Origin is checked by handleWS before the upgrade, so the upgrader's
// own check always passes.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWS upgrades the connection and registers it with the
// Broadcaster, mirroring the teacher's ws.Server.handleWS: an explicit
// CheckOrigin gate, a registered client that only ever receives
// (messages flow server -> client, never the reverse on this stream),
// and a read loop solely to detect the client going away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !s.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client, err := s.bcast.AddClient(conn)
	if err != nil {
		s.logger.Warn("ws client rejected", "error", err)
		return
	}

	// The connection is outbound-only from the server's perspective; the
	// read loop exists purely to notice the client disconnecting (a
	// read error or close frame), at which point the client is dropped.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.bcast.RemoveClient(client)
			return
		}
	}
}
