package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/momentum/market"
)

func TestProducerEmitsMidPrices(t *testing.T) {
	data := &fakeData{quotes: map[string]market.Quote{
		"BTC/USD": {Bid: 100, Ask: 102},
		"ETH/USD": {Bid: 2000, Ask: 2004},
	}}
	events := make(chan market.PriceEvent, 4)
	p := NewProducer(data, []string{"BTC/USD", "ETH/USD"}, time.Hour, events, zerolog.Nop())

	p.poll(context.Background())

	require.Len(t, events, 2)
	ev := <-events
	assert.Equal(t, "BTC/USD", ev.Symbol)
	assert.Equal(t, 101.0, ev.Price)
	ev = <-events
	assert.Equal(t, "ETH/USD", ev.Symbol)
	assert.Equal(t, 2002.0, ev.Price)
}

func TestProducerSkipsMissingQuotes(t *testing.T) {
	data := &fakeData{quotes: map[string]market.Quote{
		"BTC/USD": {Bid: 100, Ask: 102},
	}}
	events := make(chan market.PriceEvent, 4)
	p := NewProducer(data, []string{"BTC/USD", "ETH/USD"}, time.Hour, events, zerolog.Nop())

	p.poll(context.Background())

	require.Len(t, events, 1)
	assert.Equal(t, "BTC/USD", (<-events).Symbol)
}

func TestProducerSkipsCycleOnFetchFailure(t *testing.T) {
	data := &fakeData{quotesErr: errors.New("network")}
	events := make(chan market.PriceEvent, 4)
	p := NewProducer(data, []string{"BTC/USD"}, time.Hour, events, zerolog.Nop())

	p.poll(context.Background())

	assert.Empty(t, events)
}

func TestProducerDropsWhenChannelFull(t *testing.T) {
	data := &fakeData{quotes: map[string]market.Quote{
		"BTC/USD": {Bid: 100, Ask: 102},
		"ETH/USD": {Bid: 2000, Ask: 2004},
	}}
	events := make(chan market.PriceEvent, 1)
	p := NewProducer(data, []string{"BTC/USD", "ETH/USD"}, time.Hour, events, zerolog.Nop())

	// Second event doesn't fit; poll must not block.
	done := make(chan struct{})
	go func() {
		p.poll(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poll blocked on a full channel")
	}
	assert.Len(t, events, 1)
}

func TestProducerStopsOnCancel(t *testing.T) {
	data := &fakeData{quotes: map[string]market.Quote{}}
	events := make(chan market.PriceEvent, 1)
	p := NewProducer(data, []string{"BTC/USD"}, 10*time.Millisecond, events, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer did not stop on cancel")
	}
}
