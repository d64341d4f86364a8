package feed

import "sync"

// Registry tracks which symbols each consumer cares about. The registry,
// not the broadcaster, decides who receives a given tick's notifications,
// so independently-configured consumers can share one broadcaster.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]map[string]struct{})}
}

// Subscribe adds symbols to a consumer's set. Subscribing to a symbol the
// consumer already holds is a no-op: set semantics, not a counter.
func (r *Registry) Subscribe(consumer string, symbols ...string) {
	r.mu.Lock()
	set := r.subs[consumer]
	if set == nil {
		set = make(map[string]struct{})
		r.subs[consumer] = set
	}
	for _, sym := range symbols {
		set[sym] = struct{}{}
	}
	r.mu.Unlock()
}

// Unsubscribe removes symbols from one consumer only. Removing a symbol the
// consumer never held is a no-op, and a consumer whose set becomes empty
// stays registered: it may subscribe to new symbols later.
func (r *Registry) Unsubscribe(consumer string, symbols ...string) {
	r.mu.Lock()
	if set, ok := r.subs[consumer]; ok {
		for _, sym := range symbols {
			delete(set, sym)
		}
	}
	r.mu.Unlock()
}

func (r *Registry) IsInterested(consumer, symbol string) bool {
	r.mu.RLock()
	_, ok := r.subs[consumer][symbol]
	r.mu.RUnlock()
	return ok
}

// Symbols returns the consumer's current set.
func (r *Registry) Symbols(consumer string) []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.subs[consumer]))
	for sym := range r.subs[consumer] {
		out = append(out, sym)
	}
	r.mu.RUnlock()
	return out
}

// Remove drops the consumer entirely (teardown).
func (r *Registry) Remove(consumer string) {
	r.mu.Lock()
	delete(r.subs, consumer)
	r.mu.Unlock()
}

func (r *Registry) Consumers() int {
	r.mu.RLock()
	n := len(r.subs)
	r.mu.RUnlock()
	return n
}
