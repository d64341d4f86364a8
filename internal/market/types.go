package market

import (
	"math"
	"strings"
)

// Quote is the canonical, normalized snapshot of one currency pair.
// All consumers see this shape regardless of which transport produced it.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Price         float64 `json:"price"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	TS            int64   `json:"ts"`
}

// RawQuote is the mock server's own wire shape (close/percent_change naming).
type RawQuote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Exchange      string  `json:"exchange,omitempty"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Bid           float64 `json:"bid"`
	Ask           float64 `json:"ask"`
	Volume        int64   `json:"volume"`
	PreviousClose float64 `json:"previous_close"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	IsMarketOpen  bool    `json:"is_market_open"`
	Timestamp     int64   `json:"timestamp"`
	LastQuoteAt   int64   `json:"last_quote_at,omitempty"`
}

// Precision returns the number of price decimals for a pair.
// JPY-quoted pairs trade at 3 decimals, everything else at 5.
func Precision(symbol string) int {
	if strings.Contains(symbol, "JPY") {
		return 3
	}
	return 5
}

// RoundTo rounds v to dp decimal places.
func RoundTo(v float64, dp int) float64 {
	pow := math.Pow10(dp)
	return math.Round(v*pow) / pow
}

// Normalize maps the server wire shape to the canonical Quote.
// Absent numeric source fields default to zero; a missing change is
// recomputed from close and previous_close.
func Normalize(raw RawQuote) Quote {
	change := raw.Change
	if change == 0 && raw.PreviousClose != 0 {
		change = raw.Close - raw.PreviousClose
	}
	return Quote{
		Symbol:        raw.Symbol,
		Name:          raw.Name,
		Price:         raw.Close,
		Bid:           raw.Bid,
		Ask:           raw.Ask,
		Open:          raw.Open,
		High:          raw.High,
		Low:           raw.Low,
		PreviousClose: raw.PreviousClose,
		Change:        change,
		ChangePercent: raw.PercentChange,
		Volume:        raw.Volume,
		TS:            raw.Timestamp,
	}
}

// Raw maps a canonical Quote back to the server wire shape.
func Raw(q Quote) RawQuote {
	return RawQuote{
		Symbol:        q.Symbol,
		Name:          q.Name,
		Exchange:      exchangeFor(q.Symbol),
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Close:         q.Price,
		Bid:           q.Bid,
		Ask:           q.Ask,
		Volume:        q.Volume,
		PreviousClose: q.PreviousClose,
		Change:        q.Change,
		PercentChange: q.ChangePercent,
		IsMarketOpen:  true,
		Timestamp:     q.TS,
		LastQuoteAt:   q.TS,
	}
}

func exchangeFor(symbol string) string {
	if strings.HasPrefix(symbol, "XAU/") || strings.HasPrefix(symbol, "XAG/") {
		return "Commodity"
	}
	return "Forex"
}
