/**
 * @description
 * WebSocket relay for live debates.
 * Browsers that prefer a socket over SSE connect to /ws/debate/{id}; each
 * connection is one DebateStreamHub subscriber, so sockets and SSE readers of
 * the same debate share a single upstream.
 *
 * @dependencies
 * - github.com/gorilla/websocket
 * - frontend/internal/services
 *
 * @notes
 * - Runs on its own net/http listener (WS_PORT); fiber's fasthttp server
 *   cannot hand a hijacked connection to gorilla.
 * - Client messages are ignored; the read pump only services pongs and close.
 */

package wsrelay

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/polydebate"
)

const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 512
)

// Subscriber is the part of the stream hub the relay uses
type Subscriber interface {
	Subscribe(debateID string) (<-chan polydebate.Event, func())
}

// Relay upgrades debate stream requests to websockets
type Relay struct {
	hub      Subscriber
	upgrader websocket.Upgrader
}

// New creates a relay. An empty origin list accepts any origin.
func New(hub Subscriber, allowedOrigins []string) *Relay {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return &Relay{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handler returns the relay's routes
func (r *Relay) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/debate/{id}", r.serveDebate)
	mux.HandleFunc("GET /ws/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// NewServer wraps the relay in an http.Server listening on addr
func NewServer(addr string, r *Relay) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (r *Relay) serveDebate(w http.ResponseWriter, req *http.Request) {
	debateID := req.PathValue("id")
	if debateID == "" {
		http.Error(w, "debate id is required", http.StatusBadRequest)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Warn("wsrelay: upgrade failed for debate %s: %v", debateID, err)
		return
	}

	events, unsubscribe := r.hub.Subscribe(debateID)
	closed := make(chan struct{})

	go readPump(conn, closed)
	go writePump(conn, debateID, events, unsubscribe, closed)
}

// readPump discards client frames and signals when the peer goes away
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("wsrelay: unexpected close: %v", err)
			}
			return
		}
	}
}

// writePump forwards hub events in order and keeps the connection alive
func writePump(conn *websocket.Conn, debateID string, events <-chan polydebate.Event, unsubscribe func(), closed <-chan struct{}) {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		unsubscribe()
		conn.Close()
	}()

	for {
		select {
		case <-closed:
			return

		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				// Upstream ended or this connection fell behind
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream closed"))
				return
			}
			if err := conn.WriteJSON(frame(ev)); err != nil {
				logger.Debug("wsrelay: write to debate %s subscriber failed: %v", debateID, err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// frame makes an event safe to encode: a payload that is not JSON is sent as
// a JSON string so the socket carries it unchanged, like the SSE route does
func frame(ev polydebate.Event) polydebate.Event {
	switch {
	case len(ev.Data) == 0:
		ev.Data = nil
	case !json.Valid(ev.Data):
		quoted, _ := json.Marshal(string(ev.Data))
		ev.Data = quoted
	}
	return ev
}
