package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/hertz-contrib/websocket"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
)

var upgrader = websocket.HertzUpgrader{
	CheckOrigin: func(_ *app.RequestContext) bool { return true },
}

// pushEnvelope is the frame sent to every connected client: initial_data
// once on connect, forex_update on every tick.
type pushEnvelope struct {
	Type      string                     `json:"type"`
	Data      map[string]market.RawQuote `json:"data"`
	Timestamp string                     `json:"timestamp"`
}

// Hub owns the set of connected push-channel clients.
type Hub struct {
	store *feed.SymbolStore

	mu      sync.Mutex
	clients map[string]*hubClient
}

type hubClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *hubClient) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func NewHub(store *feed.SymbolStore) *Hub {
	return &Hub{
		store:   store,
		clients: make(map[string]*hubClient),
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handle upgrades the request and serves the connection until the client
// goes away. The current snapshot is sent immediately on connect.
func (h *Hub) Handle(_ context.Context, c *app.RequestContext) {
	err := upgrader.Upgrade(c, func(conn *websocket.Conn) {
		id := uuid.NewString()
		cl := &hubClient{conn: conn}

		h.mu.Lock()
		h.clients[id] = cl
		h.mu.Unlock()
		log.Printf("ws client %s connected (%d total)", id, h.Count())

		defer func() {
			h.mu.Lock()
			delete(h.clients, id)
			h.mu.Unlock()
			log.Printf("ws client %s disconnected", id)
		}()

		if err := cl.write(h.envelope("initial_data")); err != nil {
			log.Printf("ws initial send to %s: %v", id, err)
			return
		}

		// Clients never send anything meaningful; reading just
		// detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	if err != nil {
		log.Printf("ws upgrade: %v", err)
	}
}

// Broadcast pushes the current snapshot to every client, dropping any whose
// write fails.
func (h *Hub) Broadcast() {
	msg := h.envelope("forex_update")

	h.mu.Lock()
	targets := make(map[string]*hubClient, len(h.clients))
	for id, cl := range h.clients {
		targets[id] = cl
	}
	h.mu.Unlock()

	for id, cl := range targets {
		if err := cl.write(msg); err != nil {
			log.Printf("ws send to %s: %v, dropping client", id, err)
			cl.conn.Close()
			h.mu.Lock()
			delete(h.clients, id)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) envelope(msgType string) pushEnvelope {
	quotes := h.store.All()
	data := make(map[string]market.RawQuote, len(quotes))
	for sym, q := range quotes {
		data[sym] = market.Raw(q)
	}
	return pushEnvelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
