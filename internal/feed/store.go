package feed

import (
	"sync"

	"github.com/deep6750/ExchangeMore/internal/market"
)

// SymbolStore holds the latest quote per symbol. It is the single source of
// truth for "current" market state within one process.
type SymbolStore struct {
	mu     sync.RWMutex
	quotes map[string]market.Quote
}

func NewSymbolStore() *SymbolStore {
	return &SymbolStore{quotes: make(map[string]market.Quote)}
}

// Set stores q and returns the quote it replaced, if any.
func (s *SymbolStore) Set(q market.Quote) (market.Quote, bool) {
	s.mu.Lock()
	prev, ok := s.quotes[q.Symbol]
	s.quotes[q.Symbol] = q
	s.mu.Unlock()
	return prev, ok
}

func (s *SymbolStore) Get(symbol string) (market.Quote, bool) {
	s.mu.RLock()
	q, ok := s.quotes[symbol]
	s.mu.RUnlock()
	return q, ok
}

// All returns a copy of the current state.
func (s *SymbolStore) All() map[string]market.Quote {
	s.mu.RLock()
	out := make(map[string]market.Quote, len(s.quotes))
	for sym, q := range s.quotes {
		out[sym] = q
	}
	s.mu.RUnlock()
	return out
}

func (s *SymbolStore) Delete(symbol string) {
	s.mu.Lock()
	delete(s.quotes, symbol)
	s.mu.Unlock()
}

func (s *SymbolStore) Len() int {
	s.mu.RLock()
	n := len(s.quotes)
	s.mu.RUnlock()
	return n
}

func (s *SymbolStore) Clear() {
	s.mu.Lock()
	s.quotes = make(map[string]market.Quote)
	s.mu.Unlock()
}
