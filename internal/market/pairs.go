package market

import "strings"

// Pair identifies one tracked instrument.
type Pair struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	CurrencyGroup string `json:"currency_group"`
	CurrencyBase  string `json:"currency_base"`
	CurrencyQuote string `json:"currency_quote"`
}

// Seeds returns the baseline quotes every broadcaster starts from.
func Seeds() map[string]Quote {
	out := make(map[string]Quote, len(seedTable))
	for _, q := range seedTable {
		out[q.Symbol] = q
	}
	return out
}

// Symbols returns the tracked symbols in seed-table order.
func Symbols() []string {
	out := make([]string, 0, len(seedTable))
	for _, q := range seedTable {
		out = append(out, q.Symbol)
	}
	return out
}

// Catalog returns the pair descriptors for the /forex_pairs listing.
func Catalog() []Pair {
	out := make([]Pair, 0, len(seedTable))
	for _, q := range seedTable {
		parts := strings.SplitN(q.Symbol, "/", 2)
		base, quote := parts[0], ""
		if len(parts) == 2 {
			quote = parts[1]
		}
		out = append(out, Pair{
			Symbol:        q.Symbol,
			Name:          q.Name,
			CurrencyGroup: "Major",
			CurrencyBase:  base,
			CurrencyQuote: quote,
		})
	}
	return out
}

var seedTable = []Quote{
	{
		Symbol: "EUR/USD", Name: "Euro / US Dollar",
		Price: 1.16500, Bid: 1.16480, Ask: 1.16520,
		Open: 1.16255, High: 1.16648, Low: 1.16027,
		PreviousClose: 1.16189, Change: 0.00310, ChangePercent: 0.267,
		Volume: 150000,
	},
	{
		Symbol: "GBP/USD", Name: "British Pound / US Dollar",
		Price: 1.34773, Bid: 1.34750, Ask: 1.34790,
		Open: 1.34725, High: 1.34929, Low: 1.34354,
		PreviousClose: 1.34539, Change: 0.00234, ChangePercent: 0.174,
		Volume: 120000,
	},
	{
		Symbol: "USD/JPY", Name: "US Dollar / Japanese Yen",
		Price: 147.317, Bid: 147.305, Ask: 147.329,
		Open: 147.764, High: 147.908, Low: 146.981,
		PreviousClose: 147.763, Change: -0.446, ChangePercent: -0.302,
		Volume: 180000,
	},
	{
		Symbol: "USD/CHF", Name: "US Dollar / Swiss Franc",
		Price: 0.84320, Bid: 0.84300, Ask: 0.84340,
		Open: 0.84250, High: 0.84560, Low: 0.83980,
		PreviousClose: 0.84190, Change: 0.00130, ChangePercent: 0.154,
		Volume: 95000,
	},
	{
		Symbol: "AUD/USD", Name: "Australian Dollar / US Dollar",
		Price: 0.67980, Bid: 0.67960, Ask: 0.68000,
		Open: 0.67890, High: 0.68250, Low: 0.67560,
		PreviousClose: 0.67820, Change: 0.00160, ChangePercent: 0.236,
		Volume: 110000,
	},
	{
		Symbol: "USD/CAD", Name: "US Dollar / Canadian Dollar",
		Price: 1.34670, Bid: 1.34650, Ask: 1.34690,
		Open: 1.34560, High: 1.34890, Low: 1.34210,
		PreviousClose: 1.34520, Change: 0.00150, ChangePercent: 0.112,
		Volume: 105000,
	},
	{
		Symbol: "NZD/USD", Name: "New Zealand Dollar / US Dollar",
		Price: 0.61340, Bid: 0.61320, Ask: 0.61360,
		Open: 0.61230, High: 0.61560, Low: 0.60980,
		PreviousClose: 0.61190, Change: 0.00150, ChangePercent: 0.245,
		Volume: 90000,
	},
	{
		Symbol: "XAU/USD", Name: "Gold / US Dollar",
		Price: 1952.70, Bid: 1952.60, Ask: 1952.80,
		Open: 1950.50, High: 1955.80, Low: 1948.20,
		PreviousClose: 1949.90, Change: 2.80, ChangePercent: 0.144,
		Volume: 250000,
	},
	{
		Symbol: "XAG/USD", Name: "Silver / US Dollar",
		Price: 24.65, Bid: 24.64, Ask: 24.66,
		Open: 24.55, High: 24.75, Low: 24.45,
		PreviousClose: 24.50, Change: 0.15, ChangePercent: 0.612,
		Volume: 500000,
	},
}
