package transport

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
)

func TestLocalSeedsImmediately(t *testing.T) {
	synth := market.NewSynthesizer(market.SynthConfig{}, rand.New(rand.NewSource(1)))
	l := NewLocal(time.Hour, synth) // long interval: only the seed tick runs

	updates := make(chan feed.PairUpdate, 32)
	l.Events().On(feed.EventPairUpdated, func(payload any) {
		updates <- payload.(feed.PairUpdate)
	})
	started := make(chan struct{}, 1)
	l.Events().On(feed.EventServiceStarted, func(any) {
		select {
		case started <- struct{}{}:
		default:
		}
	})

	require.NoError(t, l.Start([]string{"EUR/USD", "USD/JPY"}))
	defer l.Stop()

	<-started
	assert.Equal(t, feed.StateConnected, l.State())

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case u := <-updates:
			assert.Nil(t, u.PreviousData)
			seen[u.Symbol] = true
		case <-time.After(time.Second):
			t.Fatal("seed updates never arrived")
		}
	}
	assert.True(t, seen["EUR/USD"] && seen["USD/JPY"])
}

func TestLocalTicksOnInterval(t *testing.T) {
	synth := market.NewSynthesizer(market.SynthConfig{}, rand.New(rand.NewSource(2)))
	l := NewLocal(10*time.Millisecond, synth)

	updates := make(chan feed.PairUpdate, 64)
	l.Events().On(feed.EventPairUpdated, func(payload any) {
		updates <- payload.(feed.PairUpdate)
	})

	require.NoError(t, l.Start([]string{"EUR/USD"}))
	defer l.Stop()

	// Seed first, then a synthesized update carrying the previous quote.
	first := <-updates
	assert.Nil(t, first.PreviousData)

	select {
	case second := <-updates:
		require.NotNil(t, second.PreviousData)
		assert.Equal(t, first.Data.Price, second.PreviousData.Price)
	case <-time.After(time.Second):
		t.Fatal("no tick after the interval")
	}
}

func TestLocalStopHaltsTicks(t *testing.T) {
	synth := market.NewSynthesizer(market.SynthConfig{}, rand.New(rand.NewSource(3)))
	l := NewLocal(10*time.Millisecond, synth)

	stopped := make(chan struct{})
	l.Events().On(feed.EventServiceStopped, func(any) { close(stopped) })

	require.NoError(t, l.Start(nil))
	l.Stop()
	<-stopped
	assert.Equal(t, feed.StateDisconnected, l.State())

	var after int
	l.Events().On(feed.EventPairUpdated, func(any) { after++ })
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, after, "ticks survived Stop")
}

func TestLocalSubscribeTracksNewSymbol(t *testing.T) {
	synth := market.NewSynthesizer(market.SynthConfig{}, rand.New(rand.NewSource(4)))
	l := NewLocal(10*time.Millisecond, synth)

	updates := make(chan feed.PairUpdate, 64)
	l.Events().On(feed.EventPairUpdated, func(payload any) {
		updates <- payload.(feed.PairUpdate)
	})

	require.NoError(t, l.Start([]string{"EUR/USD"}))
	defer l.Stop()
	l.Subscribe("USD/JPY")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.Symbol == "USD/JPY" {
				return
			}
		case <-deadline:
			t.Fatal("subscribed symbol never ticked")
		}
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	push, err := New(Config{Mode: ModePush, ServerURL: "http://localhost:3001"})
	require.NoError(t, err)
	assert.IsType(t, &Push{}, push)

	poll, err := New(Config{Mode: ModePoll, ServerURL: "http://localhost:3001"})
	require.NoError(t, err)
	assert.IsType(t, &Poll{}, poll)

	local, err := New(Config{Mode: ModeLocal})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, local)

	// Empty mode defaults to local.
	def, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, def)

	_, err = New(Config{Mode: "carrier-pigeon"})
	assert.Error(t, err)
}
