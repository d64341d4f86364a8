package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep6750/ExchangeMore/internal/market"
)

func update(symbol string, price float64, prev *float64) PairUpdate {
	u := PairUpdate{Symbol: symbol, Data: market.Quote{Symbol: symbol, Price: price}}
	if prev != nil {
		u.PreviousData = &market.Quote{Symbol: symbol, Price: *prev}
	}
	return u
}

func TestTrackerDirections(t *testing.T) {
	tr := NewChangeTracker(2 * time.Second)

	// First sight: no previous data, nothing recorded.
	tr.Observe(update("EUR/USD", 1.1000, nil))
	_, ok := tr.Change("EUR/USD")
	assert.False(t, ok)

	p := 1.1000
	tr.Observe(update("EUR/USD", 1.1005, &p))
	c, ok := tr.Change("EUR/USD")
	require.True(t, ok)
	assert.Equal(t, DirectionIncrease, c.Direction)
	assert.InDelta(t, 0.0005, c.Delta, 1e-9)

	// Unchanged price leaves the existing change in place.
	p = 1.1005
	tr.Observe(update("EUR/USD", 1.1005, &p))
	c, ok = tr.Change("EUR/USD")
	require.True(t, ok)
	assert.Equal(t, DirectionIncrease, c.Direction)

	tr.Observe(update("EUR/USD", 1.0998, &p))
	c, ok = tr.Change("EUR/USD")
	require.True(t, ok)
	assert.Equal(t, DirectionDecrease, c.Direction)
	assert.Equal(t, 1.0998, c.NewPrice)
}

func TestTrackerExpiry(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	tr := NewChangeTracker(2 * time.Second)
	tr.SetClock(func() time.Time { return now })

	p := 1.1000
	tr.Observe(update("EUR/USD", 1.1005, &p))

	now = base.Add(1000 * time.Millisecond)
	_, ok := tr.Change("EUR/USD")
	assert.True(t, ok, "change should still be live inside the TTL")

	now = base.Add(2001 * time.Millisecond)
	_, ok = tr.Change("EUR/USD")
	assert.False(t, ok, "change should expire after the TTL")

	// Expired entries are dropped, not just hidden.
	now = base
	_, ok = tr.Change("EUR/USD")
	assert.False(t, ok)
}

func TestTrackerNewChangeResetsClock(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	tr := NewChangeTracker(2 * time.Second)
	tr.SetClock(func() time.Time { return now })

	p := 1.1000
	tr.Observe(update("EUR/USD", 1.1005, &p))

	now = base.Add(1500 * time.Millisecond)
	p = 1.1005
	tr.Observe(update("EUR/USD", 1.1010, &p))

	// 2.5s after the first change but only 1s after the second.
	now = base.Add(2500 * time.Millisecond)
	c, ok := tr.Change("EUR/USD")
	require.True(t, ok)
	assert.Equal(t, 1.1010, c.NewPrice)
}

func TestTrackerActivePrunes(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	tr := NewChangeTracker(2 * time.Second)
	tr.SetClock(func() time.Time { return now })

	p1, p2 := 1.1000, 147.000
	tr.Observe(update("EUR/USD", 1.1005, &p1))

	now = base.Add(1500 * time.Millisecond)
	tr.Observe(update("USD/JPY", 147.250, &p2))

	now = base.Add(2500 * time.Millisecond)
	active := tr.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "USD/JPY", active[0].Symbol)
}
