package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/deep6750/ExchangeMore/internal/alert"
	"github.com/deep6750/ExchangeMore/internal/api"
	"github.com/deep6750/ExchangeMore/internal/config"
	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
	"github.com/deep6750/ExchangeMore/internal/push/webhook"
	"github.com/deep6750/ExchangeMore/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/app.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	symbols := cfg.Market.Symbols
	if len(symbols) == 0 {
		symbols = market.Symbols()
	}

	synth := market.NewSynthesizer(market.SynthConfig{
		Volatility:    cfg.Market.Volatility,
		JPYVolatility: cfg.Market.JPYVolatility,
		VolumeFloor:   cfg.Market.VolumeFloor,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))

	quotes := feed.NewSymbolStore()
	emitter := feed.NewEmitter()
	bc := feed.NewBroadcaster(symbols, market.Seeds(), synth, quotes, emitter)
	hub := api.NewHub(quotes)

	var hist *store.Store
	if cfg.Store.SqlitePath != "" {
		hist, err = store.Open(cfg.Store.SqlitePath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer hist.Close()
		log.Printf("quote history enabled at %s", cfg.Store.SqlitePath)
	}

	var alerts *alert.Service
	if cfg.Alert.Enabled {
		notifier := webhook.NewClient(
			cfg.Alert.Webhook.URL,
			cfg.Alert.Webhook.Secret,
			time.Duration(cfg.Alert.Webhook.TimeoutMs)*time.Millisecond,
		)
		alerts = alert.NewService(alert.Config{
			MediumPct:   cfg.Alert.MediumPct,
			HighPct:     cfg.Alert.HighPct,
			CooldownSec: cfg.Alert.CooldownSec,
			PerMinute:   cfg.Alert.RateLimit.PerMinute,
			Burst:       cfg.Alert.RateLimit.Burst,
		}, notifier)
		log.Printf("alerts enabled (medium %.2f%%, high %.2f%%)", cfg.Alert.MediumPct, cfg.Alert.HighPct)
	}

	emitter.On(feed.EventPairUpdated, func(payload any) {
		u, ok := payload.(feed.PairUpdate)
		if !ok {
			return
		}
		if hist != nil {
			if err := hist.InsertQuote(u.Data); err != nil {
				log.Printf("history: %v", err)
			}
		}
		if alerts != nil {
			alerts.OnQuote(context.Background(), u.Data)
		}
	})
	emitter.On(feed.EventBatchUpdated, func(any) {
		hub.Broadcast()
	})

	interval := time.Duration(cfg.Market.TickIntervalMs) * time.Millisecond
	go func() {
		bc.Tick()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			bc.Tick()
		}
	}()

	h := server.Default(server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.Port)))
	api.RegisterRoutes(h, quotes, bc, hub, hist)

	log.Printf("forex server listening on :%d, ticking every %s for %d pairs",
		cfg.Server.Port, interval, len(symbols))
	h.Spin()
}
