package feed

import (
	"log"
	"sync"

	"github.com/deep6750/ExchangeMore/internal/market"
)

type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)

// Transport delivers quote updates to the service. The three strategies
// (push channel, polling, in-process) all satisfy this contract and emit
// the same events on their Emitter.
type Transport interface {
	Start(symbols []string) error
	Stop()
	Subscribe(symbols ...string)
	Events() *Emitter
	State() ConnectionState
}

// Status describes the service for health surfaces.
type Status struct {
	Running    bool            `json:"running"`
	State      ConnectionState `json:"state"`
	Consumers  int             `json:"consumers"`
	DataPoints int             `json:"data_points"`
}

// Service is the client-side facade over a transport: it caches the latest
// quotes, relays transport events through its own emitter and filters
// per-consumer deliveries through the registry.
type Service struct {
	transport Transport
	emitter   *Emitter
	store     *SymbolStore
	registry  *Registry

	mu      sync.Mutex
	running bool
	relays  []relay
}

type relay struct {
	event Event
	token string
}

func NewService(t Transport) *Service {
	return &Service{
		transport: t,
		emitter:   NewEmitter(),
		store:     NewSymbolStore(),
		registry:  NewRegistry(),
	}
}

func (s *Service) Events() *Emitter       { return s.emitter }
func (s *Service) Registry() *Registry    { return s.registry }
func (s *Service) State() ConnectionState { return s.transport.State() }

// Start begins delivery for the given symbols (nil means everything the
// transport tracks). Starting a running service is a no-op.
func (s *Service) Start(symbols []string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("feed service already running")
		return nil
	}
	s.running = true
	s.wireRelaysLocked()
	s.mu.Unlock()

	if err := s.transport.Start(symbols); err != nil {
		s.mu.Lock()
		s.running = false
		s.unwireRelaysLocked()
		s.mu.Unlock()
		return err
	}
	return nil
}

// Stop halts the transport and clears cached state. Stopping a stopped
// service is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.unwireRelaysLocked()
	s.mu.Unlock()

	s.transport.Stop()
	s.store.Clear()
}

// Subscribe adds symbols to a consumer's interest set and asks the
// transport to cover them.
func (s *Service) Subscribe(consumer string, symbols ...string) {
	s.registry.Subscribe(consumer, symbols...)
	s.transport.Subscribe(symbols...)
}

// Unsubscribe narrows one consumer's interest set. Other consumers keep
// their subscriptions to the same symbols.
func (s *Service) Unsubscribe(consumer string, symbols ...string) {
	s.registry.Unsubscribe(consumer, symbols...)
}

// OnPairUpdate delivers updates to one consumer, filtered through the
// registry. Returns a token for Off on the service emitter.
func (s *Service) OnPairUpdate(consumer string, h func(PairUpdate)) string {
	return s.emitter.On(EventPairUpdated, func(payload any) {
		u, ok := payload.(PairUpdate)
		if !ok {
			return
		}
		if s.registry.IsInterested(consumer, u.Symbol) {
			h(u)
		}
	})
}

func (s *Service) Latest(symbol string) (market.Quote, bool) {
	return s.store.Get(symbol)
}

func (s *Service) AllLatest() map[string]market.Quote {
	return s.store.All()
}

func (s *Service) Store() *SymbolStore { return s.store }

func (s *Service) Status() Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return Status{
		Running:    running,
		State:      s.transport.State(),
		Consumers:  s.registry.Consumers(),
		DataPoints: s.store.Len(),
	}
}

// Relayed events keep the transport's vocabulary (connected maps to
// service_started, disconnected to service_stopped) so consumers only ever
// learn the service-level names.
func (s *Service) wireRelaysLocked() {
	ev := s.transport.Events()
	add := func(event Event, token string) {
		s.relays = append(s.relays, relay{event: event, token: token})
	}

	add(EventPairUpdated, ev.On(EventPairUpdated, func(payload any) {
		if u, ok := payload.(PairUpdate); ok {
			s.store.Set(u.Data)
			s.emitter.Emit(EventPairUpdated, u)
		}
	}))
	add(EventBatchUpdated, ev.On(EventBatchUpdated, func(payload any) {
		s.emitter.Emit(EventBatchUpdated, payload)
	}))
	add(EventServiceStarted, ev.On(EventServiceStarted, func(payload any) {
		s.emitter.Emit(EventServiceStarted, payload)
	}))
	add(EventConnected, ev.On(EventConnected, func(payload any) {
		s.emitter.Emit(EventServiceStarted, payload)
	}))
	add(EventServiceStopped, ev.On(EventServiceStopped, func(payload any) {
		s.emitter.Emit(EventServiceStopped, payload)
	}))
	add(EventDisconnected, ev.On(EventDisconnected, func(payload any) {
		s.emitter.Emit(EventServiceStopped, payload)
	}))
	add(EventError, ev.On(EventError, func(payload any) {
		s.emitter.Emit(EventError, payload)
	}))
	add(EventMaxReconnects, ev.On(EventMaxReconnects, func(payload any) {
		s.emitter.Emit(EventMaxReconnects, payload)
	}))
}

func (s *Service) unwireRelaysLocked() {
	ev := s.transport.Events()
	for _, r := range s.relays {
		ev.Off(r.event, r.token)
	}
	s.relays = nil
}
