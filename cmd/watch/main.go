package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/deep6750/ExchangeMore/internal/config"
	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
	"github.com/deep6750/ExchangeMore/internal/transport"
)

// watch is a terminal consumer of the quote feed: it subscribes to a set of
// pairs and prints every update with a direction marker while the change is
// still fresh.
func main() {
	configPath := flag.String("config", "configs/app.yaml", "path to config file")
	mode := flag.String("mode", "", "transport mode: local, poll or push (overrides config)")
	pairs := flag.String("pairs", "", "comma separated pairs to follow, empty for all")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *mode != "" {
		cfg.Feed.Transport = *mode
	}

	t, err := transport.New(transport.Config{
		Mode:                 cfg.Feed.Transport,
		ServerURL:            cfg.Feed.ServerURL,
		RequestTimeout:       time.Duration(cfg.Feed.RequestTimeoutMs) * time.Millisecond,
		ReconnectBaseDelay:   time.Duration(cfg.Feed.ReconnectBaseDelayMs) * time.Millisecond,
		MaxReconnectAttempts: cfg.Feed.MaxReconnectAttempts,
		PollInterval:         time.Duration(cfg.Feed.PollIntervalMs) * time.Millisecond,
		TickInterval:         time.Duration(cfg.Market.TickIntervalMs) * time.Millisecond,
		Synth: market.SynthConfig{
			Volatility:    cfg.Market.Volatility,
			JPYVolatility: cfg.Market.JPYVolatility,
			VolumeFloor:   cfg.Market.VolumeFloor,
		},
	})
	if err != nil {
		log.Fatalf("build transport: %v", err)
	}

	svc := feed.NewService(t)
	tracker := feed.NewChangeTracker(time.Duration(cfg.Feed.ChangeTTLMs) * time.Millisecond)

	symbols := splitPairs(*pairs)
	if len(symbols) == 0 {
		symbols = market.Symbols()
	}

	const consumer = "watch"
	svc.Subscribe(consumer, symbols...)
	svc.OnPairUpdate(consumer, func(u feed.PairUpdate) {
		tracker.Observe(u)
		marker := " "
		if c, ok := tracker.Change(u.Symbol); ok {
			if c.Direction == feed.DirectionIncrease {
				marker = "▲"
			} else {
				marker = "▼"
			}
		}
		log.Printf("%s %-8s %v (%+.4f%%) vol=%d", marker, u.Symbol, u.Data.Price, u.Data.ChangePercent, u.Data.Volume)
	})

	ev := svc.Events()
	ev.On(feed.EventServiceStarted, func(any) { log.Printf("feed started (%s)", cfg.Feed.Transport) })
	ev.On(feed.EventServiceStopped, func(any) { log.Printf("feed stopped") })
	ev.On(feed.EventError, func(payload any) { log.Printf("feed error: %v", payload) })
	ev.On(feed.EventMaxReconnects, func(any) {
		log.Printf("gave up reconnecting, exiting")
		os.Exit(1)
	})

	if err := svc.Start(symbols); err != nil {
		log.Fatalf("start feed: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	svc.Stop()
}

func splitPairs(raw string) []string {
	if raw == "" {
		return nil
	}
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
