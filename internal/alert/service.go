package alert

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/deep6750/ExchangeMore/internal/market"
	"github.com/deep6750/ExchangeMore/internal/push/webhook"
)

// Level classifies how violent a move is.
type Level string

const (
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Notifier is satisfied by webhook.Client.
type Notifier interface {
	Send(ctx context.Context, p webhook.Payload) error
}

// Config controls the thresholds and throttling of the alert service.
type Config struct {
	MediumPct   float64
	HighPct     float64
	CooldownSec int
	PerMinute   int
	Burst       int
}

// Service watches quote updates and fires a webhook when the absolute
// percent change crosses a threshold. A per-symbol-per-level cooldown plus
// a global token bucket keep the receiver from being flooded.
type Service struct {
	cfg      Config
	notifier Notifier
	bucket   *tokenBucket

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

func NewService(cfg Config, notifier Notifier) *Service {
	if cfg.MediumPct <= 0 {
		cfg.MediumPct = 0.3
	}
	if cfg.HighPct <= 0 {
		cfg.HighPct = 0.8
	}
	if cfg.CooldownSec <= 0 {
		cfg.CooldownSec = 300
	}
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	return &Service{
		cfg:      cfg,
		notifier: notifier,
		bucket:   newTokenBucket(cfg.PerMinute, cfg.Burst),
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.bucket.mu.Lock()
	s.bucket.now = now
	s.bucket.mu.Unlock()
}

// OnQuote evaluates one update and sends at most one alert for it.
func (s *Service) OnQuote(ctx context.Context, q market.Quote) {
	level, ok := s.classify(q.ChangePercent)
	if !ok {
		return
	}
	if !s.checkCooldown(q.Symbol, level) {
		return
	}
	if !s.bucket.allow() {
		log.Printf("alert: rate limited, dropping %s alert for %s", level, q.Symbol)
		return
	}

	direction := "up"
	if q.ChangePercent < 0 {
		direction = "down"
	}
	payload := webhook.Payload{
		Symbol:        q.Symbol,
		Level:         string(level),
		Price:         q.Price,
		ChangePercent: q.ChangePercent,
		Message:       fmt.Sprintf("%s moved %s %.4f%% to %v", q.Symbol, direction, q.ChangePercent, q.Price),
		Timestamp:     s.clock().UTC().Format(time.RFC3339),
	}
	if err := s.notifier.Send(ctx, payload); err != nil {
		log.Printf("alert: send %s/%s: %v", q.Symbol, level, err)
	}
}

func (s *Service) classify(changePct float64) (Level, bool) {
	abs := changePct
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= s.cfg.HighPct:
		return LevelHigh, true
	case abs >= s.cfg.MediumPct:
		return LevelMedium, true
	default:
		return "", false
	}
}

// checkCooldown records the send time when it returns true.
func (s *Service) checkCooldown(symbol string, level Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := symbol + ":" + string(level)
	now := s.now()
	if last, ok := s.lastSent[key]; ok {
		if now.Sub(last) < time.Duration(s.cfg.CooldownSec)*time.Second {
			return false
		}
	}
	s.lastSent[key] = now
	return true
}

func (s *Service) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// tokenBucket is a simple refill-on-demand limiter.
type tokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
	now      func() time.Time
}

func newTokenBucket(perMinute, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:   float64(burst),
		capacity: float64(burst),
		rate:     float64(perMinute) / 60.0,
		now:      time.Now,
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if !b.last.IsZero() {
		b.tokens += now.Sub(b.last).Seconds() * b.rate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
