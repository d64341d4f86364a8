package feed

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deep6750/ExchangeMore/internal/market"
)

type Event string

const (
	EventServiceStarted Event = "service_started"
	EventServiceStopped Event = "service_stopped"
	EventConnected      Event = "connected"
	EventDisconnected   Event = "disconnected"
	EventPairUpdated    Event = "pair_updated"
	EventBatchUpdated   Event = "batch_updated"
	EventError          Event = "error"
	EventMaxReconnects  Event = "max_reconnects_reached"
)

// PairUpdate is the payload of EventPairUpdated. PreviousData is nil the
// first time a symbol is seen.
type PairUpdate struct {
	Symbol       string
	Data         market.Quote
	PreviousData *market.Quote
}

// BatchUpdate is the payload of EventBatchUpdated, emitted once per tick.
type BatchUpdate struct {
	Symbols   []string
	Timestamp time.Time
}

type Handler func(payload any)

// Emitter is an injectable event service: each owner constructs its own
// instance and hands it to whoever needs to listen. No package-level state.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[Event]map[string]Handler
}

func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[Event]map[string]Handler)}
}

// On registers a handler and returns a token for Off.
func (e *Emitter) On(ev Event, h Handler) string {
	token := uuid.NewString()
	e.mu.Lock()
	if e.handlers[ev] == nil {
		e.handlers[ev] = make(map[string]Handler)
	}
	e.handlers[ev][token] = h
	e.mu.Unlock()
	return token
}

// Off removes a previously registered handler. Unknown tokens are a no-op.
func (e *Emitter) Off(ev Event, token string) {
	e.mu.Lock()
	delete(e.handlers[ev], token)
	e.mu.Unlock()
}

// Emit invokes every handler registered for ev. A panicking handler is
// logged and does not stop delivery to the rest.
func (e *Emitter) Emit(ev Event, payload any) {
	e.mu.RLock()
	hs := make([]Handler, 0, len(e.handlers[ev]))
	for _, h := range e.handlers[ev] {
		hs = append(hs, h)
	}
	e.mu.RUnlock()

	for _, h := range hs {
		invoke(ev, h, payload)
	}
}

func invoke(ev Event, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event handler panic on %s: %v", ev, r)
		}
	}()
	h(payload)
}
