// Package stream pushes grid snapshots to WebSocket clients.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/gridsoup/systems"
)

const writeWait = 5 * time.Second

// Message is the JSON frame sent to clients. The first frame on a
// connection has type "hello"; every later frame is a "snapshot".
type Message struct {
	Type       string         `json:"type"`
	Tick       int            `json:"tick"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Codes      [][]float64    `json:"codes,omitempty"` // indexed [x][y]
	Population map[string]int `json:"population,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans snapshots out to connected clients. Run must be running
// for clients to register. Slow clients miss frames rather than stalling
// the simulation.
type Broadcaster struct {
	// Dirt encodes dirty empty cells as systems.CodeDirt.
	Dirt bool

	upgrader   websocket.Upgrader
	bufferSize int

	mu      sync.RWMutex
	clients map[*client]struct{}
	hello   []byte

	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// NewBroadcaster creates a broadcaster whose clients buffer up to
// bufferSize frames.
func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize < 1 {
		bufferSize = 1
	}
	hello, _ := json.Marshal(Message{Type: "hello"})
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		bufferSize: bufferSize,
		clients:    make(map[*client]struct{}),
		hello:      hello,
		broadcast:  make(chan []byte, bufferSize),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run handles registration and fan-out until ctx is cancelled, then
// disconnects every client.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for c := range b.clients {
				close(c.send)
				delete(b.clients, c)
			}
			b.mu.Unlock()
			return

		case c := <-b.register:
			b.mu.Lock()
			b.clients[c] = struct{}{}
			b.mu.Unlock()

		case c := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[c]; ok {
				delete(b.clients, c)
				close(c.send)
			}
			b.mu.Unlock()

		case msg := <-b.broadcast:
			b.mu.RLock()
			for c := range b.clients {
				select {
				case c.send <- msg:
				default:
					// Client is behind; drop this frame for it.
				}
			}
			b.mu.RUnlock()
		}
	}
}

// ServeHTTP upgrades the request and streams frames until the client
// disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, b.bufferSize)}
	b.mu.RLock()
	c.send <- b.hello
	b.mu.RUnlock()

	select {
	case b.register <- c:
	case <-b.done:
		conn.Close()
		return
	}
	slog.Info("stream client connected", "remote", r.RemoteAddr)

	go c.writeLoop()
	c.readLoop()

	select {
	case b.unregister <- c:
	case <-b.done:
	}
	slog.Info("stream client disconnected", "remote", r.RemoteAddr)
}

// Publish queues snap for every client. It never blocks; if the queue is
// full the frame is dropped and false is returned.
func (b *Broadcaster) Publish(snap systems.Snapshot) bool {
	msg := Message{
		Type:   "snapshot",
		Tick:   snap.Tick,
		Width:  snap.Width,
		Height: snap.Height,
		Codes:  snap.Codes(b.Dirt),
		Population: map[string]int{
			systems.CellPrey.String():     snap.Count(systems.CellPrey),
			systems.CellPredator.String(): snap.Count(systems.CellPredator),
			systems.CellCleaner.String():  snap.Count(systems.CellCleaner),
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("encoding snapshot", "tick", snap.Tick, "error", err)
		return false
	}
	hello, _ := json.Marshal(Message{Type: "hello", Tick: snap.Tick, Width: snap.Width, Height: snap.Height})

	b.mu.Lock()
	b.hello = hello
	b.mu.Unlock()

	select {
	case b.broadcast <- data:
		return true
	default:
		return false
	}
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// readLoop discards client input and returns when the connection fails.
func (c *client) readLoop() {
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
