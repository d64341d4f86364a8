package api

import (
	"github.com/deep6750/ExchangeMore/internal/market"
)

// lookupRate resolves an exchange rate from the current quote map. When only
// the reverse pair is tracked, the inverse rate is computed and rounded to
// 6 decimals, matching the wire contract.
func lookupRate(quotes map[string]market.Quote, from, to string) (symbol string, rate float64, ts int64, ok bool) {
	symbol = from + "/" + to
	if q, found := quotes[symbol]; found {
		return symbol, q.Price, q.TS, true
	}
	reverse := to + "/" + from
	if q, found := quotes[reverse]; found && q.Price != 0 {
		return symbol, market.RoundTo(1/q.Price, 6), q.TS, true
	}
	return symbol, 0, 0, false
}

// convert applies a rate to an amount, rounded to 2 decimals.
func convert(rate, amount float64) float64 {
	return market.RoundTo(rate*amount, 2)
}
