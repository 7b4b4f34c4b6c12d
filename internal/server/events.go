package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The REST layer already serves permissive CORS; the event stream
	// follows the same policy for local-network UIs.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const eventWriteTimeout = 5 * time.Second

// handleEvents upgrades to a websocket and streams the session's typed
// events as JSON until the client disconnects or the session finalizes.
// A slow client drops events (the subscription buffer is bounded) rather
// than stalling the pipeline.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := sess.Subscribe(64)
	defer cancel()

	// Reader goroutine: we never expect client messages, but reading is how
	// gorilla surfaces close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, open := <-events:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
