// Package paper provides an in-memory order gateway so the full decision
// loop can run without a brokerage account. Orders fill at the current
// mid-price from the market-data provider.
package paper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rustyeddy/momentum/broker"
	"github.com/rustyeddy/momentum/market"
	"github.com/rustyeddy/momentum/pkg/id"
)

var (
	ErrNoQuote    = errors.New("no quote for symbol")
	ErrNoPosition = errors.New("no open position")
)

// Gateway simulates a brokerage. Positions are keyed by compact symbol,
// matching how real position records come back.
type Gateway struct {
	mu        sync.Mutex
	data      broker.MarketData
	positions map[string]*broker.Position
}

func NewGateway(data broker.MarketData) *Gateway {
	return &Gateway{
		data:      data,
		positions: make(map[string]*broker.Position),
	}
}

// SubmitMarketOrder fills immediately at the latest mid-price. Buys add
// to the position's quantity and cost basis; sells reduce them
// proportionally and close the position when quantity reaches zero.
func (g *Gateway) SubmitMarketOrder(ctx context.Context, symbol string, qty float64, side broker.Side) (broker.Order, error) {
	if qty <= 0 {
		return broker.Order{}, fmt.Errorf("qty must be positive, got %f", qty)
	}

	quotes, err := g.data.GetLatestQuotes(ctx, []string{symbol})
	if err != nil {
		return broker.Order{}, fmt.Errorf("fetch fill price: %w", err)
	}
	q, ok := quotes[symbol]
	if !ok {
		return broker.Order{}, fmt.Errorf("%w: %s", ErrNoQuote, symbol)
	}
	price := q.Mid()

	g.mu.Lock()
	defer g.mu.Unlock()

	compact := market.Compact(symbol)
	pos := g.positions[compact]

	switch side {
	case broker.Buy:
		if pos == nil {
			pos = &broker.Position{Symbol: compact}
			g.positions[compact] = pos
		}
		pos.Qty += qty
		pos.CostBasis += qty * price

	case broker.Sell:
		if pos == nil || pos.Qty < qty {
			return broker.Order{}, fmt.Errorf("%w: %s", ErrNoPosition, symbol)
		}
		// Reduce the cost basis proportionally so the entry price of the
		// remainder is unchanged.
		pos.CostBasis -= pos.EntryPrice() * qty
		pos.Qty -= qty
		if pos.Qty == 0 {
			delete(g.positions, compact)
		}

	default:
		return broker.Order{}, fmt.Errorf("unknown side %q", side)
	}

	return broker.Order{
		ID:     id.New(),
		Symbol: symbol,
		Qty:    qty,
		Side:   side,
	}, nil
}

// GetAllPositions returns a snapshot of open positions.
func (g *Gateway) GetAllPositions(ctx context.Context) ([]broker.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]broker.Position, 0, len(g.positions))
	for _, pos := range g.positions {
		out = append(out, *pos)
	}
	return out, nil
}
