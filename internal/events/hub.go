package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultClientBuffer = 256
	writeWait           = 10 * time.Second
	pingPeriod          = 30 * time.Second
)

// frame is the wire shape of one event sent to a websocket client.
type frame struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

// Hub is a Publisher that forwards events to connected websocket clients.
// Each client has a bounded queue; when it is full the event is dropped for
// that client only.
type Hub struct {
	mu       sync.Mutex
	clients  map[*hubClient]struct{}
	upgrader websocket.Upgrader
	buffer   int
	dropped  atomic.Uint64
	log      zerolog.Logger
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithClientBuffer sets the per-client queue length.
func WithClientBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(l zerolog.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub constructs an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[*hubClient]struct{}),
		buffer:  defaultClientBuffer,
		log:     zerolog.Nop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Publish encodes e once and queues it for every client.
func (h *Hub) Publish(e Event) {
	b, err := json.Marshal(frame{Name: e.Name, Payload: e.Payload})
	if err != nil {
		h.log.Warn().Err(err).Str("event", e.Name).Msg("encode event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many per-client deliveries were dropped.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	c := &hubClient{conn: conn, send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("events client connected")

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
	<-done
	_ = conn.Close()
	h.log.Debug().Str("remote", r.RemoteAddr).Msg("events client disconnected")
}

// readLoop discards inbound frames and returns when the connection closes.
func (h *Hub) readLoop(c *hubClient) {
	c.conn.SetReadLimit(4096)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *hubClient, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				_ = c.conn.Close()
				drain(c.send)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				drain(c.send)
				return
			}
		}
	}
}

// drain consumes queued frames until the channel is closed.
func drain(ch <-chan []byte) {
	for range ch {
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}
