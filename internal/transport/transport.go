// Package transport provides the three interchangeable delivery strategies
// for quote updates: a persistent websocket push channel, HTTP polling and
// an in-process broadcaster. All of them satisfy feed.Transport and emit
// identical events, so callers depend only on the common contract.
package transport

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
)

const (
	ModePush  = "push"
	ModePoll  = "poll"
	ModeLocal = "local"
)

type Config struct {
	Mode string

	// Push and poll.
	ServerURL      string
	RequestTimeout time.Duration

	// Push reconnection policy.
	ReconnectBaseDelay   time.Duration
	MaxReconnectAttempts int

	// Poll cadence.
	PollInterval time.Duration

	// Local synthesis.
	TickInterval time.Duration
	Synth        market.SynthConfig
}

// New builds the strategy selected by cfg.Mode. The choice is made once at
// construction; callers never branch on it again.
func New(cfg Config) (feed.Transport, error) {
	switch cfg.Mode {
	case ModePush:
		return NewPush(PushConfig{
			URL:            wsURL(cfg.ServerURL),
			BaseDelay:      cfg.ReconnectBaseDelay,
			MaxAttempts:    cfg.MaxReconnectAttempts,
			RequestTimeout: cfg.RequestTimeout,
		}), nil
	case ModePoll:
		return NewPoll(PollConfig{
			BaseURL:        cfg.ServerURL,
			Interval:       cfg.PollInterval,
			RequestTimeout: cfg.RequestTimeout,
		}), nil
	case ModeLocal, "":
		synth := market.NewSynthesizer(cfg.Synth, rand.New(rand.NewSource(time.Now().UnixNano())))
		return NewLocal(cfg.TickInterval, synth), nil
	default:
		return nil, fmt.Errorf("unknown transport mode: %q", cfg.Mode)
	}
}

func wsURL(httpURL string) string {
	switch {
	case len(httpURL) > 8 && httpURL[:8] == "https://":
		return "wss://" + httpURL[8:]
	case len(httpURL) > 7 && httpURL[:7] == "http://":
		return "ws://" + httpURL[7:]
	}
	return httpURL
}
