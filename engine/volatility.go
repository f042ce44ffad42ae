package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/momentum/broker"
	"github.com/rustyeddy/momentum/indicators"
)

const (
	atrPeriod   = 14
	barLimit    = 15               // enough for 14 periods
	barLookback = 20 * time.Minute // fetch window, extra for safety
)

// Volatility estimates short-term volatility as a 14-period ATR over
// one-minute bars. It never fails: insufficient history and fetch errors
// both degrade to the configured floor.
type Volatility struct {
	data  broker.MarketData
	floor float64
	log   zerolog.Logger
}

func NewVolatility(data broker.MarketData, floor float64, log zerolog.Logger) *Volatility {
	return &Volatility{data: data, floor: floor, log: log}
}

// Estimate returns the ATR for symbol, or the floor when fewer than 14
// bars are available or the fetch fails.
func (v *Volatility) Estimate(ctx context.Context, symbol string) float64 {
	bars, err := v.data.GetBars(ctx, symbol, broker.OneMinute, time.Now().Add(-barLookback), barLimit)
	if err != nil {
		v.log.Error().Err(err).Str("symbol", symbol).Msg("bar fetch failed, using ATR floor")
		return v.floor
	}
	if len(bars) < atrPeriod {
		return v.floor
	}

	atr, err := indicators.ATR(bars, atrPeriod)
	if err != nil {
		v.log.Error().Err(err).Str("symbol", symbol).Msg("ATR calculation failed, using floor")
		return v.floor
	}
	return atr
}
