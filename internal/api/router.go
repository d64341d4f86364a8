package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
	"github.com/deep6750/ExchangeMore/internal/store"
)

// RegisterRoutes wires the mock forex API onto the hertz server. The symbol
// store is the single source of truth; every endpoint reads a snapshot of
// it, and /trigger_update forces one broadcaster tick.
func RegisterRoutes(h *server.Hertz, quotes *feed.SymbolStore, bc *feed.Broadcaster, hub *Hub, hist *store.Store) {
	h.GET("/health", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]any{
			"status":            "healthy",
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
			"connected_clients": hub.Count(),
			"data_points":       quotes.Len(),
		})
	})

	h.GET("/quote", func(_ context.Context, c *app.RequestContext) {
		raw := string(c.Query("symbol"))
		all := quotes.All()

		if raw == "" {
			c.JSON(http.StatusOK, rawMap(all))
			return
		}

		symbols := splitSymbols(raw)
		if len(symbols) == 1 {
			q, ok := all[symbols[0]]
			if !ok {
				c.JSON(http.StatusNotFound, map[string]any{
					"error": "Symbol " + symbols[0] + " not found",
				})
				return
			}
			c.JSON(http.StatusOK, market.Raw(q))
			return
		}

		result := make(map[string]market.RawQuote)
		for _, sym := range symbols {
			if q, ok := all[sym]; ok {
				result[sym] = market.Raw(q)
			}
		}
		c.JSON(http.StatusOK, result)
	})

	h.GET("/exchange_rate", func(_ context.Context, c *app.RequestContext) {
		from := strings.ToUpper(string(c.Query("from")))
		to := strings.ToUpper(string(c.Query("to")))
		if from == "" || to == "" {
			c.JSON(http.StatusBadRequest, map[string]any{
				"error": "Missing from or to parameter",
			})
			return
		}

		symbol, rate, ts, ok := lookupRate(quotes.All(), from, to)
		if !ok {
			c.JSON(http.StatusNotFound, map[string]any{
				"error": "Exchange rate for " + from + "/" + to + " not available",
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"symbol":    symbol,
			"rate":      rate,
			"timestamp": ts,
		})
	})

	h.GET("/currency_conversion", func(_ context.Context, c *app.RequestContext) {
		from := strings.ToUpper(string(c.Query("from")))
		to := strings.ToUpper(string(c.Query("to")))
		amountRaw := string(c.Query("amount"))
		if from == "" || to == "" || amountRaw == "" {
			c.JSON(http.StatusBadRequest, map[string]any{
				"error": "Missing from, to, or amount parameter",
			})
			return
		}
		amount, err := strconv.ParseFloat(amountRaw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{
				"error": "Invalid amount: " + amountRaw,
			})
			return
		}

		symbol, rate, ts, ok := lookupRate(quotes.All(), from, to)
		if !ok {
			c.JSON(http.StatusNotFound, map[string]any{
				"error": "Conversion rate for " + from + "/" + to + " not available",
			})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"symbol":    symbol,
			"rate":      rate,
			"amount":    amount,
			"result":    convert(rate, amount),
			"timestamp": ts,
		})
	})

	h.GET("/market_state", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]any{
			"name":            "Forex Market",
			"code":            "FOREX",
			"country":         "Global",
			"is_market_open":  true,
			"time_after_open": "09:30:00",
			"time_to_open":    "00:00:00",
			"time_to_close":   "14:30:00",
			"timezone":        "UTC",
		})
	})

	h.GET("/forex_pairs", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]any{
			"data":   market.Catalog(),
			"status": "ok",
		})
	})

	h.POST("/trigger_update", func(_ context.Context, c *app.RequestContext) {
		bc.Tick()
		c.JSON(http.StatusOK, map[string]any{
			"message":           "Price update triggered",
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
			"connected_clients": hub.Count(),
		})
	})

	h.GET("/symbol/:symbol", func(_ context.Context, c *app.RequestContext) {
		sym := strings.ToUpper(c.Param("symbol"))
		q, ok := quotes.Get(sym)
		if !ok {
			c.JSON(http.StatusNotFound, map[string]any{
				"error": "Symbol " + sym + " not found",
			})
			return
		}
		c.JSON(http.StatusOK, market.Raw(q))
	})

	h.GET("/history/:symbol", func(_ context.Context, c *app.RequestContext) {
		if hist == nil {
			c.JSON(http.StatusNotFound, map[string]any{
				"error": "history not enabled",
			})
			return
		}
		sym := strings.ToUpper(c.Param("symbol"))
		limit, err := parseLimit(string(c.Query("limit")))
		if err != nil {
			c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		records, err := hist.RecentQuotes(sym, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, map[string]any{
			"symbol": sym,
			"count":  len(records),
			"data":   records,
		})
	})

	h.GET("/ws", hub.Handle)
	h.NoHijackConnPool = true
}

func rawMap(all map[string]market.Quote) map[string]market.RawQuote {
	out := make(map[string]market.RawQuote, len(all))
	for sym, q := range all {
		out[sym] = market.Raw(q)
	}
	return out
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 100, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 1000 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
