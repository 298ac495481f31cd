package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 20 * time.Second
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
)

// Message is a change feed event.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// SheetChange is the payload of a sheet_changed message.
type SheetChange struct {
	Sheet  string `json:"sheet"`
	Action string `json:"action"`
}

// Feed fans change notifications out to connected websocket clients.
type Feed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewFeed creates an empty feed accepting connections from any origin.
func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]bool),
	}
}

// Broadcast sends m to every client and returns how many received it.
// Clients that fail the write are dropped.
func (f *Feed) Broadcast(m Message) int {
	b, err := json.Marshal(m)
	if err != nil {
		slog.Error("Failed to marshal feed message", "type", m.Type, "error", err)
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for c := range f.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			slog.Debug("Dropping feed client", "error", err)
			_ = c.Close()
			delete(f.clients, c)
			continue
		}
		n++
	}
	slog.Debug("Broadcast feed message", "type", m.Type, "clients", n)
	return n
}

// ClientsCount returns the number of connected clients.
func (f *Feed) ClientsCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every client.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		_ = c.Close()
		delete(f.clients, c)
	}
}

// ServeHTTP upgrades the request and keeps the connection alive with pings
// until the client goes away. Incoming messages are discarded.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.clients[c] = true
	total := len(f.clients)
	f.mu.Unlock()
	slog.Info("Feed client connected", "clients", total)

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				// WriteControl may run concurrently with Broadcast's writes
				if err := c.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	c.SetReadLimit(1024)
	_ = c.SetReadDeadline(time.Now().Add(pongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}

	close(done)
	f.mu.Lock()
	delete(f.clients, c)
	total = len(f.clients)
	f.mu.Unlock()
	_ = c.Close()
	slog.Info("Feed client disconnected", "clients", total)
}
