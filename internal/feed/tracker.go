package feed

import (
	"sync"
	"time"
)

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Change records the most recent price transition for one symbol.
type Change struct {
	Symbol        string
	Direction     Direction
	PreviousPrice float64
	NewPrice      float64
	Delta         float64
	CreatedAt     time.Time
}

const DefaultChangeTTL = 2 * time.Second

// ChangeTracker classifies price transitions for UI highlighting. At most
// one live change per symbol; a newer change replaces the old one. Expiry
// is a read-time check against the TTL, so correctness never depends on a
// timer firing.
type ChangeTracker struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	changes map[string]Change
}

func NewChangeTracker(ttl time.Duration) *ChangeTracker {
	if ttl <= 0 {
		ttl = DefaultChangeTTL
	}
	return &ChangeTracker{
		ttl:     ttl,
		now:     time.Now,
		changes: make(map[string]Change),
	}
}

// SetClock overrides the time source.
func (t *ChangeTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Observe records a change when the update actually moved the price.
// First-seen symbols (no previous data) and unchanged prices are ignored.
func (t *ChangeTracker) Observe(u PairUpdate) {
	if u.PreviousData == nil || u.Data.Price == u.PreviousData.Price {
		return
	}
	dir := DirectionDecrease
	if u.Data.Price > u.PreviousData.Price {
		dir = DirectionIncrease
	}
	t.mu.Lock()
	t.changes[u.Symbol] = Change{
		Symbol:        u.Symbol,
		Direction:     dir,
		PreviousPrice: u.PreviousData.Price,
		NewPrice:      u.Data.Price,
		Delta:         u.Data.Price - u.PreviousData.Price,
		CreatedAt:     t.now(),
	}
	t.mu.Unlock()
}

// Change returns the live change for symbol, dropping it if the TTL has
// elapsed.
func (t *ChangeTracker) Change(symbol string) (Change, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.changes[symbol]
	if !ok {
		return Change{}, false
	}
	if t.now().Sub(c.CreatedAt) > t.ttl {
		delete(t.changes, symbol)
		return Change{}, false
	}
	return c, true
}

// Active returns every unexpired change and prunes the rest.
func (t *ChangeTracker) Active() []Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	out := make([]Change, 0, len(t.changes))
	for sym, c := range t.changes {
		if now.Sub(c.CreatedAt) > t.ttl {
			delete(t.changes, sym)
			continue
		}
		out = append(out, c)
	}
	return out
}
