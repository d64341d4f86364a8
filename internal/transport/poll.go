package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
)

const DefaultPollInterval = time.Second

type PollConfig struct {
	BaseURL        string
	Interval       time.Duration
	RequestTimeout time.Duration
}

// Poll pulls the full quote map on a fixed cadence and synthesizes the same
// pair_updated/batch_updated events the push channel would. The loop sleeps
// only after a fetch completes, so two requests are never in flight at once
// no matter how slow the server is.
type Poll struct {
	cfg    PollConfig
	events *feed.Emitter
	client *http.Client
	prev   *feed.SymbolStore

	mu      sync.Mutex
	running bool
	state   feed.ConnectionState
	stopCh  chan struct{}
	symbols map[string]struct{}
}

func NewPoll(cfg PollConfig) *Poll {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	return &Poll{
		cfg:     cfg,
		events:  feed.NewEmitter(),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		prev:    feed.NewSymbolStore(),
		state:   feed.StateDisconnected,
		symbols: make(map[string]struct{}),
	}
}

func (p *Poll) Events() *feed.Emitter { return p.events }

func (p *Poll) State() feed.ConnectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poll) Start(symbols []string) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.state = feed.StateConnected
	p.stopCh = make(chan struct{})
	p.symbols = make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		p.symbols[sym] = struct{}{}
	}
	stop := p.stopCh
	p.mu.Unlock()

	p.events.Emit(feed.EventServiceStarted, nil)
	go p.loop(stop)
	return nil
}

func (p *Poll) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.state = feed.StateDisconnected
	close(p.stopCh)
	p.mu.Unlock()

	p.prev.Clear()
	p.events.Emit(feed.EventServiceStopped, nil)
}

func (p *Poll) Subscribe(symbols ...string) {
	p.mu.Lock()
	for _, sym := range symbols {
		p.symbols[sym] = struct{}{}
	}
	p.mu.Unlock()
}

// loop is the non-overlap guard: each cycle fetches synchronously, then
// waits out the interval before the next one.
func (p *Poll) loop(stop chan struct{}) {
	p.fetch()
	for {
		select {
		case <-stop:
			return
		case <-time.After(p.cfg.Interval):
		}
		select {
		case <-stop:
			return
		default:
		}
		p.fetch()
	}
}

// fetch pulls /quote once. Failures surface as error events and the loop
// simply tries again next interval.
func (p *Poll) fetch() {
	data, err := p.fetchQuotes()
	if err != nil {
		p.events.Emit(feed.EventError, err)
		return
	}

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
		// Only actual movement produces a pair event; the server
		// replays unchanged quotes between its own ticks.
		if had && prevQ.Price == q.Price && prevQ.Change == q.Change && prevQ.ChangePercent == q.ChangePercent {
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

func (p *Poll) fetchQuotes() (map[string]market.RawQuote, error) {
	resp, err := p.client.Get(p.cfg.BaseURL + "/quote")
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch quotes: HTTP %d", resp.StatusCode)
	}
	var data map[string]market.RawQuote
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode quotes: %w", err)
	}
	return data, nil
}

func (p *Poll) subscribed(symbol string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.symbols) == 0 {
		return true
	}
	_, ok := p.symbols[symbol]
	return ok
}

// Retryable distinguishes transient transport failures from hard errors.
// Both are retried next interval; callers only use this for logging detail.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "reset by peer") ||
		strings.Contains(msg, "connection refused")
}
