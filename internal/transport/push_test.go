package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep6750/ExchangeMore/internal/feed"
	"github.com/deep6750/ExchangeMore/internal/market"
)

func TestReconnectDelayGrowsLinearly(t *testing.T) {
	base := 2 * time.Second
	for attempt, want := range map[int]time.Duration{
		1: 2 * time.Second,
		2: 4 * time.Second,
		3: 6 * time.Second,
		4: 8 * time.Second,
		5: 10 * time.Second,
	} {
		assert.Equal(t, want, reconnectDelay(base, attempt))
	}
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// pushServer serves one websocket endpoint that immediately sends an
// initial_data frame and then one forex_update frame.
func pushServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		initial := map[string]any{
			"type": "initial_data",
			"data": map[string]market.RawQuote{
				"EUR/USD": {Symbol: "EUR/USD", Close: 1.1650, PreviousClose: 1.1600, PercentChange: 0.431},
			},
		}
		require.NoError(t, conn.WriteJSON(initial))

		update := map[string]any{
			"type": "forex_update",
			"data": map[string]market.RawQuote{
				"EUR/USD": {Symbol: "EUR/USD", Close: 1.1655, PreviousClose: 1.1650, PercentChange: 0.0429},
			},
		}
		require.NoError(t, conn.WriteJSON(update))

		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestPushReceivesInitialAndUpdates(t *testing.T) {
	srv := pushServer(t)
	defer srv.Close()

	p := NewPush(PushConfig{URL: wsURL(srv.URL), BaseDelay: 10 * time.Millisecond, MaxAttempts: 2})

	updates := make(chan feed.PairUpdate, 4)
	p.Events().On(feed.EventPairUpdated, func(payload any) {
		updates <- payload.(feed.PairUpdate)
	})
	connected := make(chan struct{}, 1)
	p.Events().On(feed.EventConnected, func(any) {
		select {
		case connected <- struct{}{}:
		default:
		}
	})

	require.NoError(t, p.Start([]string{"EUR/USD"}))
	defer p.Stop()
	waitFor(t, connected, "connection")

	// The initial snapshot is treated like a regular update.
	first := <-updates
	assert.Equal(t, "EUR/USD", first.Symbol)
	assert.Equal(t, 1.1650, first.Data.Price)
	assert.Nil(t, first.PreviousData)

	second := <-updates
	assert.Equal(t, 1.1655, second.Data.Price)
	require.NotNil(t, second.PreviousData)
	assert.Equal(t, 1.1650, second.PreviousData.Price)
}

func TestPushGivesUpAfterMaxAttempts(t *testing.T) {
	// Nothing listens here, so every dial fails.
	p := NewPush(PushConfig{
		URL:         "ws://127.0.0.1:1",
		BaseDelay:   5 * time.Millisecond,
		MaxAttempts: 3,
	})

	var dialErrors atomic.Int32
	p.Events().On(feed.EventError, func(any) { dialErrors.Add(1) })
	terminal := make(chan struct{})
	p.Events().On(feed.EventMaxReconnects, func(any) { close(terminal) })

	require.NoError(t, p.Start(nil))
	waitFor(t, terminal, "max_reconnects_reached")

	assert.Equal(t, feed.StateError, p.State())
	// Initial dial plus one per retry attempt.
	assert.Equal(t, int32(4), dialErrors.Load())
}

func TestPushStopSuppressesReconnect(t *testing.T) {
	p := NewPush(PushConfig{
		URL:         "ws://127.0.0.1:1",
		BaseDelay:   20 * time.Millisecond,
		MaxAttempts: 5,
	})

	terminal := make(chan struct{})
	p.Events().On(feed.EventMaxReconnects, func(any) { close(terminal) })

	require.NoError(t, p.Start(nil))
	time.Sleep(10 * time.Millisecond)
	p.Stop()

	select {
	case <-terminal:
		t.Fatal("reconnect loop survived Stop")
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, feed.StateDisconnected, p.State())
}

func TestPushMalformedFramesAreDropped(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type": "forex_update",
			"data": map[string]market.RawQuote{
				"USD/JPY": {Symbol: "USD/JPY", Close: 147.317},
			},
		}))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	p := NewPush(PushConfig{URL: wsURL(srv.URL), BaseDelay: 10 * time.Millisecond, MaxAttempts: 2})
	updates := make(chan feed.PairUpdate, 1)
	p.Events().On(feed.EventPairUpdated, func(payload any) {
		updates <- payload.(feed.PairUpdate)
	})

	require.NoError(t, p.Start(nil))
	defer p.Stop()

	select {
	case u := <-updates:
		assert.Equal(t, "USD/JPY", u.Symbol)
	case <-time.After(3 * time.Second):
		t.Fatal("update after malformed frame never arrived")
	}
}

func TestWSURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:3001", wsURL("http://localhost:3001"))
	assert.Equal(t, "wss://feed.example.com", wsURL("https://feed.example.com"))
	assert.True(t, strings.HasPrefix(wsURL("ws://already"), "ws://"))
}
