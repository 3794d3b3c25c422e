package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/state"
)

// Message is the envelope pushed over /ws.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	MessageSnapshot = "snapshot"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// hub fans store snapshots out to every connected browser.
type hub struct {
	store *state.Store

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn    *websocket.Conn
	send    chan state.Snapshot // holds at most the latest snapshot
	version uint64              // newest version offered, guarded by hub.mu
}

func newHub(store *state.Store) *hub {
	h := &hub{store: store, clients: map[*client]struct{}{}}
	store.Subscribe(h.broadcast)
	return h
}

func (h *hub) broadcast(snap state.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.offer(snap)
	}
}

// offer replaces any snapshot still waiting to be written. Snapshots older
// than one already offered are ignored. Callers hold hub.mu.
func (c *client) offer(snap state.Snapshot) {
	if snap.Version < c.version {
		return
	}
	c.version = snap.Version
	for {
		select {
		case c.send <- snap:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan state.Snapshot, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	c.offer(h.store.Snapshot())
	n := len(h.clients)
	h.mu.Unlock()
	log.Debug().Str("remote", r.RemoteAddr).Int("clients", n).Msg("🔌 websocket connected")

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards client frames and notices disconnects.
func (h *hub) readLoop(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case snap, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				c.conn.Close()
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(Message{Type: MessageSnapshot, Data: snap}); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

func (h *hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// shutdown disconnects every client and refuses new ones.
func (h *hub) shutdown() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}
