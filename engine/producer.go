package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/momentum/broker"
	"github.com/rustyeddy/momentum/market"
)

// Producer polls the market-data provider at a fixed interval and emits
// one price event per symbol into a bounded channel. It holds no state
// beyond the interval timer and performs no decision logic.
type Producer struct {
	data     broker.MarketData
	symbols  []string
	interval time.Duration
	events   chan<- market.PriceEvent
	log      zerolog.Logger
}

func NewProducer(data broker.MarketData, symbols []string, interval time.Duration, events chan<- market.PriceEvent, log zerolog.Logger) *Producer {
	return &Producer{
		data:     data,
		symbols:  symbols,
		interval: interval,
		events:   events,
		log:      log,
	}
}

// Run polls until ctx is cancelled. A failed fetch skips the cycle with
// no retry or backoff; the next attempt is the next scheduled interval.
func (p *Producer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Producer) poll(ctx context.Context) {
	quotes, err := p.data.GetLatestQuotes(ctx, p.symbols)
	if err != nil {
		metricQuoteFailures.Inc()
		p.log.Error().Err(err).Msg("price fetch failed")
		return
	}

	now := time.Now()
	for _, sym := range p.symbols {
		q, ok := quotes[sym]
		if !ok {
			// Absent quote: no event for this symbol this cycle.
			p.log.Debug().Str("symbol", sym).Msg("no quote this cycle")
			continue
		}

		ev := market.PriceEvent{Symbol: sym, Price: q.Mid(), Time: now}
		select {
		case p.events <- ev:
		default:
			// The engine is behind; dropping beats blocking the timer.
			metricEventsDropped.Inc()
			p.log.Warn().Str("symbol", sym).Msg("event channel full, dropping price event")
		}
	}
	p.log.Debug().Int("symbols", len(quotes)).Msg("fetched prices")
}
