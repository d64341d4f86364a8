package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrySubscribeIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("a", "EUR/USD", "USD/JPY")
	r.Subscribe("a", "EUR/USD")
	r.Subscribe("a", "EUR/USD")

	assert.ElementsMatch(t, []string{"EUR/USD", "USD/JPY"}, r.Symbols("a"))

	// A single unsubscribe removes it regardless of how many times it was
	// subscribed.
	r.Unsubscribe("a", "EUR/USD")
	assert.False(t, r.IsInterested("a", "EUR/USD"))
	assert.True(t, r.IsInterested("a", "USD/JPY"))
}

func TestRegistryConsumerIsolation(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("a", "EUR/USD")
	r.Subscribe("b", "EUR/USD")

	r.Unsubscribe("a", "EUR/USD")

	assert.False(t, r.IsInterested("a", "EUR/USD"))
	assert.True(t, r.IsInterested("b", "EUR/USD"))
}

func TestRegistryEmptySetKeepsConsumer(t *testing.T) {
	r := NewRegistry()
	r.Subscribe("a", "EUR/USD")
	r.Unsubscribe("a", "EUR/USD")

	assert.Equal(t, 1, r.Consumers())
	assert.Empty(t, r.Symbols("a"))

	r.Subscribe("a", "GBP/USD")
	assert.True(t, r.IsInterested("a", "GBP/USD"))

	r.Remove("a")
	assert.Equal(t, 0, r.Consumers())
}

func TestRegistryUnknownNoOps(t *testing.T) {
	r := NewRegistry()
	r.Unsubscribe("ghost", "EUR/USD")
	assert.False(t, r.IsInterested("ghost", "EUR/USD"))
	assert.Empty(t, r.Symbols("ghost"))
}
