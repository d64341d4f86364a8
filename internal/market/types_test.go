package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrecision(t *testing.T) {
	assert.Equal(t, 5, Precision("EUR/USD"))
	assert.Equal(t, 3, Precision("USD/JPY"))
	assert.Equal(t, 3, Precision("EUR/JPY"))
	assert.Equal(t, 5, Precision("XAU/USD"))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.16505, RoundTo(1.165046, 5))
	assert.Equal(t, 147.317, RoundTo(147.31749, 3))
	assert.Equal(t, 1.23, RoundTo(1.234999, 2))
}

func TestNormalize(t *testing.T) {
	raw := RawQuote{
		Symbol:        "EUR/USD",
		Name:          "Euro / US Dollar",
		Close:         1.1650,
		PreviousClose: 1.1600,
		PercentChange: 0.431,
		Bid:           1.1648,
		Ask:           1.1652,
		Volume:        123456,
		Timestamp:     1700000000,
	}
	q := Normalize(raw)

	assert.Equal(t, "EUR/USD", q.Symbol)
	assert.Equal(t, 1.1650, q.Price)
	assert.Equal(t, 0.431, q.ChangePercent)
	// change was absent on the wire, so it is recomputed.
	assert.InDelta(t, 0.0050, q.Change, 1e-9)
	assert.Equal(t, int64(1700000000), q.TS)
}

func TestNormalizeKeepsExplicitChange(t *testing.T) {
	q := Normalize(RawQuote{Symbol: "USD/JPY", Close: 147.4, PreviousClose: 147.0, Change: 0.4})
	assert.Equal(t, 0.4, q.Change)
}

func TestRawRoundTrip(t *testing.T) {
	q := Quote{Symbol: "GBP/USD", Price: 1.34773, PreviousClose: 1.34700, Change: 0.00073, ChangePercent: 0.0542, Volume: 9000, TS: 42}
	raw := Raw(q)

	assert.Equal(t, "Forex", raw.Exchange)
	assert.Equal(t, q.Price, raw.Close)
	assert.Equal(t, q.ChangePercent, raw.PercentChange)
	assert.True(t, raw.IsMarketOpen)

	assert.Equal(t, q, Normalize(raw))
}

func TestExchangeForCommodities(t *testing.T) {
	assert.Equal(t, "Commodity", Raw(Quote{Symbol: "XAU/USD"}).Exchange)
	assert.Equal(t, "Commodity", Raw(Quote{Symbol: "XAG/USD"}).Exchange)
	assert.Equal(t, "Forex", Raw(Quote{Symbol: "USD/CAD"}).Exchange)
}
