package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/learn-platform/services/scorm/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser enforces no same-origin policy for websockets; the
	// bearer token in the query already gates the endpoint.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsSink serializes writes to one connection. The relay goroutine and the
// close path both touch the socket.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(m relay.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(m)
}

// Events upgrades to a websocket carrying the cross-frame message contract:
// outbound SCORM_PROGRESS samples, inbound SCORM_SAVE / SCORM_FINISH
// signals. The socket lives as long as the session and the read loop.
func Events(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := d.session(w, r)
		if sess == nil {
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Log.Warn("events: upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		rel := relay.New(sess, &wsSink{conn: conn}, d.Cfg.RelayInterval, d.Log)
		done := make(chan struct{})
		go func() {
			defer close(done)
			rel.Run(ctx)
		}()

		for {
			var msg relay.Message
			if err := conn.ReadJSON(&msg); err != nil {
				break
			}
			rel.Handle(ctx, msg)
		}

		cancel()
		<-done
	}
}
