package transport

import (
	"sync"
	"time"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
)

const DefaultTickInterval = time.Second

// Local runs the broadcaster in-process with no network at all: start and
// stop control the tick timer directly. It is the strategy the app falls
// back to when no server is reachable.
type Local struct {
	interval time.Duration
	synth    *market.Synthesizer
	events   *feed.Emitter

	mu      sync.Mutex
	running bool
	state   feed.ConnectionState
	stopCh  chan struct{}
	store   *feed.SymbolStore
	bc      *feed.Broadcaster
}

func NewLocal(interval time.Duration, synth *market.Synthesizer) *Local {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Local{
		interval: interval,
		synth:    synth,
		events:   feed.NewEmitter(),
		state:    feed.StateDisconnected,
	}
}

func (l *Local) Events() *feed.Emitter { return l.events }

func (l *Local) State() feed.ConnectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Local) Start(symbols []string) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	if len(symbols) == 0 {
		symbols = market.Symbols()
	}
	l.running = true
	l.state = feed.StateConnected
	l.stopCh = make(chan struct{})
	l.store = feed.NewSymbolStore()
	l.bc = feed.NewBroadcaster(symbols, market.Seeds(), l.synth, l.store, l.events)
	stop := l.stopCh
	bc := l.bc
	l.mu.Unlock()

	l.events.Emit(feed.EventServiceStarted, nil)

	// Seed tick up front so subscribers see data immediately.
	bc.Tick()
	go func() {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				bc.Tick()
			}
		}
	}()
	return nil
}

func (l *Local) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.state = feed.StateDisconnected
	close(l.stopCh)
	store := l.store
	l.mu.Unlock()

	if store != nil {
		store.Clear()
	}
	l.events.Emit(feed.EventServiceStopped, nil)
}

func (l *Local) Subscribe(symbols ...string) {
	l.mu.Lock()
	bc := l.bc
	l.mu.Unlock()
	if bc != nil {
		bc.Track(symbols...)
	}
}
