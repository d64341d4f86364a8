package market

import (
	"math/rand"
	"strings"
	"time"
)

type SynthConfig struct {
	Volatility    float64 // uniform fraction for non-JPY pairs
	JPYVolatility float64 // JPY pairs move in wider absolute steps
	Spread        float64
	JPYSpread     float64
	VolumeFloor   int64
}

// Synthesizer produces the next plausible quote from the previous one.
// Deterministic given its random source, so tests seed the Rand.
type Synthesizer struct {
	cfg SynthConfig
	rng *rand.Rand
	now func() int64
}

func NewSynthesizer(cfg SynthConfig, rng *rand.Rand) *Synthesizer {
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.0008
	}
	if cfg.JPYVolatility <= 0 {
		cfg.JPYVolatility = 0.002
	}
	if cfg.Spread <= 0 {
		cfg.Spread = 0.0004
	}
	if cfg.JPYSpread <= 0 {
		cfg.JPYSpread = 0.02
	}
	if cfg.VolumeFloor <= 0 {
		cfg.VolumeFloor = 100000
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{
		cfg: cfg,
		rng: rng,
		now: func() int64 { return time.Now().Unix() },
	}
}

// SetClock overrides the timestamp source.
func (s *Synthesizer) SetClock(now func() int64) {
	s.now = now
}

// Next synthesizes a new quote from prev. High/low extremes never shrink
// within a session and all price fields come back rounded to the pair's
// precision, so downstream change math sees exactly what was published.
func (s *Synthesizer) Next(prev Quote) Quote {
	vol := s.cfg.Volatility
	spread := s.cfg.Spread
	if strings.Contains(prev.Symbol, "JPY") {
		vol = s.cfg.JPYVolatility
		spread = s.cfg.JPYSpread
	}
	dp := Precision(prev.Symbol)

	u := (s.rng.Float64()*2 - 1) * vol
	price := RoundTo(prev.Price*(1+u), dp)

	high := prev.High
	if price > high {
		high = price
	}
	low := prev.Low
	if price < low {
		low = price
	}

	volume := prev.Volume + s.rng.Int63n(5000) - 2000
	if volume < s.cfg.VolumeFloor {
		volume = s.cfg.VolumeFloor
	}

	change := RoundTo(price-prev.Price, changePrecision(prev.Symbol))
	var pct float64
	if prev.Price != 0 {
		pct = RoundTo((price-prev.Price)/prev.Price*100, 4)
	}

	return Quote{
		Symbol:        prev.Symbol,
		Name:          prev.Name,
		Price:         price,
		Bid:           RoundTo(price-spread/2, dp),
		Ask:           RoundTo(price+spread/2, dp),
		Open:          prev.Open,
		High:          RoundTo(high, dp),
		Low:           RoundTo(low, dp),
		PreviousClose: prev.Price,
		Change:        change,
		ChangePercent: pct,
		Volume:        volume,
		TS:            s.now(),
	}
}

// The original feed publishes change at one decimal finer than price for
// non-JPY pairs.
func changePrecision(symbol string) int {
	if strings.Contains(symbol, "JPY") {
		return 3
	}
	return 6
}
