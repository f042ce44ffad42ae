package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/momentum/broker"
	"github.com/rustyeddy/momentum/journal"
	"github.com/rustyeddy/momentum/market"
)

// fakeData serves canned quotes and bars.
type fakeData struct {
	quotes    map[string]market.Quote
	quotesErr error
	bars      []market.Bar
	barsErr   error
}

func (f *fakeData) GetLatestQuotes(ctx context.Context, symbols []string) (map[string]market.Quote, error) {
	if f.quotesErr != nil {
		return nil, f.quotesErr
	}
	return f.quotes, nil
}

func (f *fakeData) GetBars(ctx context.Context, symbol string, tf broker.Timeframe, start time.Time, limit int) ([]market.Bar, error) {
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}

type submittedOrder struct {
	Symbol string
	Qty    float64
	Side   broker.Side
}

// fakeGateway records submitted orders and serves canned positions.
type fakeGateway struct {
	positions []broker.Position
	posErr    error
	submitErr error
	orders    []submittedOrder
}

func (f *fakeGateway) SubmitMarketOrder(ctx context.Context, symbol string, qty float64, side broker.Side) (broker.Order, error) {
	if f.submitErr != nil {
		return broker.Order{}, f.submitErr
	}
	f.orders = append(f.orders, submittedOrder{Symbol: symbol, Qty: qty, Side: side})
	return broker.Order{ID: "T1", Symbol: symbol, Qty: qty, Side: side}, nil
}

func (f *fakeGateway) GetAllPositions(ctx context.Context) ([]broker.Position, error) {
	if f.posErr != nil {
		return nil, f.posErr
	}
	return f.positions, nil
}

// memJournal collects ledger rows in memory.
type memJournal struct {
	recs []journal.TradeRecord
}

func (m *memJournal) Record(r journal.TradeRecord) error { m.recs = append(m.recs, r); return nil }
func (m *memJournal) Close() error                       { return nil }

// volatileBars returns bars whose ATR comfortably clears any test floor.
func volatileBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = market.Bar{Open: 100, High: 101, Low: 99, Close: 100}
	}
	return bars
}

func testConfig() Config {
	return Config{
		Symbols:        []string{"BTC/USD", "ETH/USD"},
		Interval:       45 * time.Second,
		GainThreshold:  0.001,
		PositionSize:   150,
		MaxInvestment:  900,
		FeePercent:     0.002,
		Cooldown:       30 * time.Second,
		ATRFloor:       0.00005,
		LossThreshold:  0.03,
		TakeProfit:     0.05,
		DailyLossLimit: -200,
	}
}

type harness struct {
	engine  *Engine
	data    *fakeData
	gateway *fakeGateway
	ledger  *memJournal
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	data := &fakeData{bars: volatileBars(15)}
	gateway := &fakeGateway{}
	ledger := &memJournal{}

	events := make(chan market.PriceEvent, 8)
	e, err := New(cfg, data, gateway, ledger, events, zerolog.Nop())
	require.NoError(t, err)
	e.sleep = func(time.Duration) {}

	return &harness{engine: e, data: data, gateway: gateway, ledger: ledger}
}

func (h *harness) tick(t *testing.T, symbol string, price float64) error {
	t.Helper()
	return h.engine.processTick(context.Background(), market.PriceEvent{
		Symbol: symbol, Price: price, Time: time.Now(),
	})
}

func TestBuyFiresWhenAllGuardsHold(t *testing.T) {
	h := newHarness(t, testConfig())

	require.NoError(t, h.tick(t, "BTC/USD", 100))
	require.NoError(t, h.tick(t, "BTC/USD", 100.2))

	require.Len(t, h.gateway.orders, 1)
	ord := h.gateway.orders[0]
	assert.Equal(t, "BTC/USD", ord.Symbol)
	assert.Equal(t, broker.Buy, ord.Side)
	assert.InDelta(t, 150/100.2, ord.Qty, 1e-9)

	require.Len(t, h.ledger.recs, 1)
	rec := h.ledger.recs[0]
	assert.Equal(t, journal.ActionBuy, rec.Action)
	assert.Equal(t, "BTC/USD", rec.Symbol)
	assert.Equal(t, 100.2, rec.Price)
	assert.Empty(t, rec.Reason)
	assert.Equal(t, 0.0, rec.DailyPnL)

	// Cooldown clock was set.
	assert.False(t, h.engine.state.symbol("BTC/USD").lastTrade.IsZero())
}

func TestNoBuyWhenMomentumBelowThreshold(t *testing.T) {
	h := newHarness(t, testConfig())

	// Flat market: every guard except gain fails, yet nothing is logged.
	h.engine.state.symbol("BTC/USD").lastTrade = time.Now()
	h.data.bars = nil // ATR degrades to floor

	require.NoError(t, h.tick(t, "BTC/USD", 100))
	require.NoError(t, h.tick(t, "BTC/USD", 100.0001))

	assert.Empty(t, h.gateway.orders)
	assert.Empty(t, h.ledger.recs)
}

func TestNoBuyRecordsFailingGuards(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*harness)
		reason string
	}{
		{
			name:   "cooldown",
			setup:  func(h *harness) { h.engine.state.symbol("BTC/USD").lastTrade = time.Now() },
			reason: "cooldown active",
		},
		{
			name:   "low volatility",
			setup:  func(h *harness) { h.data.bars = volatileBars(10) }, // short history -> floor
			reason: "low volatility (ATR)",
		},
		{
			name: "max investment",
			setup: func(h *harness) {
				// Entry price 100 keeps the position inside the sell thresholds.
				h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 9, CostBasis: 900}}
			},
			reason: "max investment reached",
		},
		{
			name: "all three",
			setup: func(h *harness) {
				h.engine.state.symbol("BTC/USD").lastTrade = time.Now()
				h.data.barsErr = errors.New("api down")
				h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 10, CostBasis: 1000}}
			},
			reason: "cooldown active, low volatility (ATR), max investment reached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig())
			tt.setup(h)

			require.NoError(t, h.tick(t, "BTC/USD", 100))
			require.NoError(t, h.tick(t, "BTC/USD", 100.2))

			assert.Empty(t, h.gateway.orders, "buy must be suppressed")
			require.Len(t, h.ledger.recs, 1)
			rec := h.ledger.recs[0]
			assert.Equal(t, journal.ActionNoBuy, rec.Action)
			assert.Equal(t, tt.reason, rec.Reason)
			assert.Equal(t, 0.0, rec.Qty)
		})
	}
}

func TestBuyOrderFailureLeavesCooldownAndLedgerUntouched(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.submitErr = errors.New("rejected")

	require.NoError(t, h.tick(t, "BTC/USD", 100))
	require.NoError(t, h.tick(t, "BTC/USD", 100.2))

	assert.Empty(t, h.ledger.recs)
	assert.True(t, h.engine.state.symbol("BTC/USD").lastTrade.IsZero())
}

func TestSellAtTakeProfitBoundary(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 1, CostBasis: 100}}

	// profit_percent = (105.2-100)/100 - 0.002 = 0.05 exactly.
	require.NoError(t, h.tick(t, "BTC/USD", 105.2))

	require.Len(t, h.gateway.orders, 1)
	ord := h.gateway.orders[0]
	assert.Equal(t, broker.Sell, ord.Side)
	assert.Equal(t, "BTC/USD", ord.Symbol)
	assert.Equal(t, 1.0, ord.Qty)
}

func TestSellAtStopLossBoundary(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 1, CostBasis: 100}}

	// profit_percent = (97.2-100)/100 - 0.002 = -0.03 exactly.
	require.NoError(t, h.tick(t, "BTC/USD", 97.2))

	require.Len(t, h.gateway.orders, 1)
	assert.Equal(t, broker.Sell, h.gateway.orders[0].Side)
}

func TestNoSellInsideThresholds(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 1, CostBasis: 100}}

	// profit_percent = (104-100)/100 - 0.002 = 0.038: inside both bounds.
	require.NoError(t, h.tick(t, "BTC/USD", 104))

	assert.Empty(t, h.gateway.orders)
}

func TestSellRealizedPnL(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 1, CostBasis: 100}}

	// Entry 100, current 106, qty 1, fee 0.002:
	// PnL = (106-100)*1 - 0.002*100*1 = 5.8
	require.NoError(t, h.tick(t, "BTC/USD", 106))

	assert.InDelta(t, 5.8, h.engine.governor.PnL(), 1e-9)

	var sell *journal.TradeRecord
	for i := range h.ledger.recs {
		if h.ledger.recs[i].Action == journal.ActionSell {
			sell = &h.ledger.recs[i]
		}
	}
	require.NotNil(t, sell)
	assert.InDelta(t, 5.8, sell.DailyPnL, 1e-9)
	assert.Equal(t, 106.0, sell.Price)
}

func TestSellSkipsPositionsWithoutPrice(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.positions = []broker.Position{
		{Symbol: "ETHUSD", Qty: 1, CostBasis: 100},  // tracked, but no price seen yet
		{Symbol: "DOGEUSD", Qty: 1, CostBasis: 100}, // not a tracked instrument
	}

	require.NoError(t, h.tick(t, "BTC/USD", 100))

	assert.Empty(t, h.gateway.orders)
}

func TestRiskLimitHaltsEngine(t *testing.T) {
	cfg := testConfig()
	cfg.DailyLossLimit = -5
	h := newHarness(t, cfg)

	// Loss of (90-100)*1 - 0.002*100 = -10.2 breaches the -5 limit.
	h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 1, CostBasis: 100}}

	err := h.tick(t, "BTC/USD", 90)
	assert.ErrorIs(t, err, ErrDailyLossLimit)
	assert.True(t, h.engine.governor.Halted())

	// The sell itself was still recorded.
	require.Len(t, h.gateway.orders, 1)
	sells := len(h.ledger.recs)

	// After the latch no tick produces orders or records, ever.
	h.gateway.positions = nil
	err = h.tick(t, "BTC/USD", 200)
	assert.ErrorIs(t, err, ErrDailyLossLimit)
	assert.Len(t, h.gateway.orders, 1)
	assert.Len(t, h.ledger.recs, sells)
}

func TestAbsentPriceShortCircuits(t *testing.T) {
	h := newHarness(t, testConfig())

	require.NoError(t, h.tick(t, "BTC/USD", 0))

	assert.Equal(t, 0, h.engine.state.symbol("BTC/USD").history.Len())
	assert.Empty(t, h.ledger.recs)
}

func TestPositionFetchFailureAbortsTick(t *testing.T) {
	h := newHarness(t, testConfig())

	require.NoError(t, h.tick(t, "BTC/USD", 100))
	h.gateway.posErr = errors.New("api down")
	err := h.tick(t, "BTC/USD", 100.2)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDailyLossLimit)
	assert.Empty(t, h.ledger.recs)
}

func TestRunContinuesAfterTickFailure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.posErr = errors.New("api down")

	events := make(chan market.PriceEvent, 2)
	h.engine.events = events
	events <- market.PriceEvent{Symbol: "BTC/USD", Price: 100, Time: time.Now()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()

	// Give the failing tick a moment, then cancel: Run must still be alive.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop on cancel")
	}
}

func TestRunStopsOnRiskHalt(t *testing.T) {
	cfg := testConfig()
	cfg.DailyLossLimit = -5
	h := newHarness(t, cfg)
	h.gateway.positions = []broker.Position{{Symbol: "BTCUSD", Qty: 1, CostBasis: 100}}

	events := make(chan market.PriceEvent, 1)
	h.engine.events = events
	events <- market.PriceEvent{Symbol: "BTC/USD", Price: 90, Time: time.Now()}

	done := make(chan error, 1)
	go func() { done <- h.engine.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrDailyLossLimit)
	case <-time.After(time.Second):
		t.Fatal("engine did not halt on risk breach")
	}
}
