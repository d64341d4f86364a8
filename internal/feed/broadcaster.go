package feed

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/deep6750/ExchangeMore/internal/market"
)

// Broadcaster regenerates quotes for every tracked symbol on each tick,
// updates the store and fans the changes out through its emitter.
type Broadcaster struct {
	mu      sync.Mutex
	symbols []string
	seeds   map[string]market.Quote
	store   *SymbolStore
	emitter *Emitter

	// synthesize is swappable so tests can fault individual symbols.
	synthesize func(prev market.Quote) (market.Quote, error)
}

func NewBroadcaster(symbols []string, seeds map[string]market.Quote, synth *market.Synthesizer, store *SymbolStore, emitter *Emitter) *Broadcaster {
	return &Broadcaster{
		symbols: symbols,
		seeds:   seeds,
		store:   store,
		emitter: emitter,
		synthesize: func(prev market.Quote) (q market.Quote, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("synthesize %s: %v", prev.Symbol, r)
				}
			}()
			return synth.Next(prev), nil
		},
	}
}

// Tick runs one update cycle. A failure on one symbol is logged and skipped;
// the rest of the tick proceeds. Never panics, never returns an error.
func (b *Broadcaster) Tick() {
	symbols := b.Symbols()
	touched := make([]string, 0, len(symbols))

	for _, sym := range symbols {
		prev, seeded := b.store.Get(sym)
		if !seeded {
			seed, ok := b.seeds[sym]
			if !ok {
				log.Printf("tick: no seed for %s, skipping", sym)
				continue
			}
			seed.TS = time.Now().Unix()
			b.store.Set(seed)
			touched = append(touched, sym)
			b.emitter.Emit(EventPairUpdated, PairUpdate{Symbol: sym, Data: seed})
			continue
		}

		next, err := b.synthesize(prev)
		if err != nil {
			log.Printf("tick: %v", err)
			continue
		}
		b.store.Set(next)
		touched = append(touched, sym)
		prevCopy := prev
		b.emitter.Emit(EventPairUpdated, PairUpdate{
			Symbol:       sym,
			Data:         next,
			PreviousData: &prevCopy,
		})
	}

	b.emitter.Emit(EventBatchUpdated, BatchUpdate{
		Symbols:   touched,
		Timestamp: time.Now(),
	})
}

// Track adds a symbol to the tick cycle if it is not already present.
func (b *Broadcaster) Track(symbols ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sym := range symbols {
		found := false
		for _, have := range b.symbols {
			if have == sym {
				found = true
				break
			}
		}
		if !found {
			b.symbols = append(b.symbols, sym)
		}
	}
}

func (b *Broadcaster) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.symbols))
	copy(out, b.symbols)
	return out
}
