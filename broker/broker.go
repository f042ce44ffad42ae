package broker

import (
	"context"
	"time"

	"github.com/rustyeddy/momentum/market"
)

// Side is the direction of a market order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Timeframe selects the bar resolution for historical data requests.
type Timeframe string

const (
	OneMinute Timeframe = "1Min"
	OneDay    Timeframe = "1Day"
)

// MarketData retrieves quotes and bars from the market-data provider.
type MarketData interface {
	// GetLatestQuotes fetches the latest quote for the full symbol set in
	// one batched call. Symbols without a quote are absent from the map.
	GetLatestQuotes(ctx context.Context, symbols []string) (map[string]market.Quote, error)

	// GetBars fetches up to limit bars starting at start, oldest first.
	GetBars(ctx context.Context, symbol string, tf Timeframe, start time.Time, limit int) ([]market.Bar, error)
}

// OrderGateway is the brokerage abstraction: submit market orders and
// query open positions. The brokerage is the single source of truth for
// holdings; positions are re-fetched at decision time, never cached.
type OrderGateway interface {
	SubmitMarketOrder(ctx context.Context, symbol string, qty float64, side Side) (Order, error)
	GetAllPositions(ctx context.Context) ([]Position, error)
}

// Order is the acknowledgement for a submitted market order.
type Order struct {
	ID     string
	Symbol string
	Qty    float64
	Side   Side
}

// Position is an open holding as reported by the brokerage. Symbol is in
// compact form ("BTCUSD"), unlike quotes and orders.
type Position struct {
	Symbol    string
	Qty       float64
	CostBasis float64
}

// EntryPrice derives the average entry price from the cost basis.
func (p Position) EntryPrice() float64 {
	if p.Qty == 0 {
		return 0
	}
	return p.CostBasis / p.Qty
}
