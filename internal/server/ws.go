package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same policy as the CORS middleware: any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS streams refresh events to a dashboard client. Each connection
// gets its own subscription; slow clients miss events rather than blocking
// the refresh loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	s.metrics.IncrementWSClients()
	defer s.metrics.DecrementWSClients()

	events, cancel := s.svc.Subscribe()
	defer cancel()

	// Reader goroutine: we never expect client messages, but reading is
	// required to process close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("Websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
