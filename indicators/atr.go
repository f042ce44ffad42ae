// Package indicators provides technical analysis math for trading.
package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/momentum/market"
)

// TrueRange calculates the True Range for a bar given the previous bar:
// max of (high-low), |high-prevClose|, |low-prevClose|.
func TrueRange(current, previous market.Bar) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)

	return math.Max(highLow, math.Max(highClose, lowClose))
}

// ATR calculates the Average True Range over the trailing window of
// `period` true-range values. The first bar has no previous close, so its
// true range is simply high-low.
//
// Returns an error if there aren't enough bars for the period; callers
// that treat short history as a fallback (not a failure) substitute their
// configured floor.
func ATR(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	trueRanges := make([]float64, 0, len(bars))
	trueRanges = append(trueRanges, bars[0].High-bars[0].Low)
	for i := 1; i < len(bars); i++ {
		trueRanges = append(trueRanges, TrueRange(bars[i], bars[i-1]))
	}

	// Arithmetic mean of the most recent `period` true ranges.
	sum := 0.0
	for _, tr := range trueRanges[len(trueRanges)-period:] {
		sum += tr
	}
	return sum / float64(period), nil
}
