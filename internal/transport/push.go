package transport

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
)

const (
	DefaultReconnectBaseDelay   = 2 * time.Second
	DefaultMaxReconnectAttempts = 5
)

type PushConfig struct {
	URL            string
	BaseDelay      time.Duration
	MaxAttempts    int
	RequestTimeout time.Duration
}

// wireMessage is the push-channel envelope: one initial_data frame on
// connect, then a forex_update frame per server tick.
type wireMessage struct {
	Type      string                     `json:"type"`
	Data      map[string]market.RawQuote `json:"data"`
	Timestamp string                     `json:"timestamp"`
}

// Push maintains a persistent websocket to the quote server. Unexpected
// closures trigger linear-backoff reconnection (baseDelay x attempt) up to
// MaxAttempts, after which a terminal max_reconnects_reached event fires
// and nothing happens until Start is called again.
type Push struct {
	cfg    PushConfig
	events *feed.Emitter
	prev   *feed.SymbolStore

	mu       sync.Mutex
	conn     *websocket.Conn
	state    feed.ConnectionState
	running  bool
	stopped  bool
	session  int
	attempts int
	symbols  map[string]struct{}
}

func NewPush(cfg PushConfig) *Push {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultReconnectBaseDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &Push{
		cfg:     cfg,
		events:  feed.NewEmitter(),
		prev:    feed.NewSymbolStore(),
		state:   feed.StateDisconnected,
		symbols: make(map[string]struct{}),
	}
}

func (p *Push) Events() *feed.Emitter { return p.events }

func (p *Push) State() feed.ConnectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Push) Start(symbols []string) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopped = false
	p.session++
	p.attempts = 0
	p.symbols = make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		p.symbols[sym] = struct{}{}
	}
	p.state = feed.StateConnecting
	session := p.session
	p.mu.Unlock()

	p.events.Emit(feed.EventServiceStarted, nil)
	go p.connect(session)
	return nil
}

// Stop closes the connection and invalidates any reconnect scheduled from
// this session, so a Stop immediately followed by Start cannot race with a
// stale retry timer.
func (p *Push) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	p.session++
	conn := p.conn
	p.conn = nil
	p.state = feed.StateDisconnected
	p.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	p.prev.Clear()
	p.events.Emit(feed.EventServiceStopped, nil)
}

func (p *Push) Subscribe(symbols ...string) {
	p.mu.Lock()
	for _, sym := range symbols {
		p.symbols[sym] = struct{}{}
	}
	p.mu.Unlock()
}

func (p *Push) connect(session int) {
	if !p.sessionAlive(session) {
		return
	}

	dialer := websocket.Dialer{HandshakeTimeout: p.cfg.RequestTimeout}
	conn, _, err := dialer.Dial(p.cfg.URL, nil)
	if err != nil {
		p.events.Emit(feed.EventError, err)
		p.scheduleReconnect(session)
		return
	}

	p.mu.Lock()
	if p.stopped || p.session != session {
		p.mu.Unlock()
		conn.Close()
		return
	}
	p.conn = conn
	p.state = feed.StateConnected
	p.attempts = 0
	p.mu.Unlock()

	p.events.Emit(feed.EventConnected, nil)
	p.readLoop(session, conn)
}

func (p *Push) readLoop(session int, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are dropped without tearing the
			// connection down.
			log.Printf("push: malformed frame: %v", err)
			continue
		}
		switch msg.Type {
		case "initial_data", "forex_update":
			// The connect snapshot is handled exactly like a
			// regular update.
			p.process(msg.Data)
		default:
			log.Printf("push: unknown message type %q", msg.Type)
		}
	}
	conn.Close()

	p.mu.Lock()
	if p.conn == conn {
		p.conn = nil
	}
	dead := p.stopped || p.session != session
	if !dead {
		p.state = feed.StateDisconnected
	}
	p.mu.Unlock()
	if dead {
		return
	}

	p.events.Emit(feed.EventDisconnected, nil)
	p.scheduleReconnect(session)
}

func (p *Push) scheduleReconnect(session int) {
	p.mu.Lock()
	if p.stopped || p.session != session {
		p.mu.Unlock()
		return
	}
	if p.attempts >= p.cfg.MaxAttempts {
		p.state = feed.StateError
		p.running = false
		p.mu.Unlock()
		log.Printf("push: max reconnect attempts (%d) reached", p.cfg.MaxAttempts)
		p.events.Emit(feed.EventMaxReconnects, nil)
		return
	}
	p.attempts++
	attempt := p.attempts
	p.state = feed.StateConnecting
	p.mu.Unlock()

	delay := reconnectDelay(p.cfg.BaseDelay, attempt)
	log.Printf("push: reconnect attempt %d/%d in %s", attempt, p.cfg.MaxAttempts, delay)
	time.AfterFunc(delay, func() {
		p.connect(session)
	})
}

func (p *Push) sessionAlive(session int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.stopped && p.session == session
}

func (p *Push) process(data map[string]market.RawQuote) {
	touched := make([]string, 0, len(data))
	for sym, raw := range data {
		q := market.Normalize(raw)
		if q.Symbol == "" {
			q.Symbol = sym
		}
		prevQ, had := p.prev.Set(q)
		touched = append(touched, sym)

		if !p.subscribed(sym) {
			continue
		}
		u := feed.PairUpdate{Symbol: sym, Data: q}
		if had {
			u.PreviousData = &prevQ
		}
		p.events.Emit(feed.EventPairUpdated, u)
	}
	p.events.Emit(feed.EventBatchUpdated, feed.BatchUpdate{
		Symbols:   touched,
		Timestamp: time.Now(),
	})
}

// An empty filter means every symbol the server tracks.
func (p *Push) subscribed(symbol string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.symbols) == 0 {
		return true
	}
	_, ok := p.symbols[symbol]
	return ok
}

func reconnectDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}
