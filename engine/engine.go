// Package engine implements the real-time decision core: a quote feed
// producer, a single-consumer decision loop, a volatility estimator, and
// a risk governor, wired together by one bounded channel.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/momentum/broker"
	"github.com/rustyeddy/momentum/journal"
	"github.com/rustyeddy/momentum/market"
)

// Config holds the strategy parameters consumed read-only by the engine.
type Config struct {
	Symbols        []string
	Interval       time.Duration // polling interval, also the dequeue timeout
	GainThreshold  float64       // momentum required to consider a buy
	PositionSize   float64       // currency amount per buy
	MaxInvestment  float64       // cap on total cost basis per symbol
	FeePercent     float64       // taken off the profit percentage
	Cooldown       time.Duration // minimum gap between buys per symbol
	ATRFloor       float64       // volatility floor and fallback estimate
	LossThreshold  float64       // stop-loss percentage (positive)
	TakeProfit     float64       // take-profit percentage
	DailyLossLimit float64       // negative; trading halts below it
}

// retryDelay is the pause after a failed tick so one bad symbol can't
// spin the loop.
const retryDelay = time.Second

// Engine is the single consumer of price events. All mutable state lives
// here and is touched only by Run's goroutine, so no locking is needed.
type Engine struct {
	cfg      Config
	data     broker.MarketData
	gateway  broker.OrderGateway
	ledger   journal.Journal
	assets   *market.AssetMap
	state    *engineState
	governor *Governor
	vol      *Volatility
	events   <-chan market.PriceEvent
	log      zerolog.Logger

	sleep func(time.Duration) // test seam for the failure delay
}

func New(cfg Config, data broker.MarketData, gateway broker.OrderGateway, ledger journal.Journal, events <-chan market.PriceEvent, log zerolog.Logger) (*Engine, error) {
	assets, err := market.NewAssetMap(cfg.Symbols)
	if err != nil {
		return nil, fmt.Errorf("build asset map: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		data:     data,
		gateway:  gateway,
		ledger:   ledger,
		assets:   assets,
		state:    newEngineState(cfg.Symbols),
		governor: NewGovernor(cfg.DailyLossLimit),
		vol:      NewVolatility(data, cfg.ATRFloor, log),
		events:   events,
		log:      log,
		sleep:    time.Sleep,
	}, nil
}

// Governor exposes the risk governor, e.g. for an external day-boundary
// reset signal.
func (e *Engine) Governor() *Governor {
	return e.governor
}

// Run consumes price events until ctx is cancelled or the daily loss
// limit latches. Any single-tick failure is logged and the loop continues
// after a brief delay; only the risk halt terminates it.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-e.events:
			err := e.processTick(ctx, ev)
			if err == nil {
				continue
			}
			if err == ErrDailyLossLimit {
				metricEngineState.Set(1)
				e.log.Error().Float64("daily_pnl", e.governor.PnL()).
					Msg("daily loss limit hit, halting trading")
				return err
			}
			metricTickFailures.Inc()
			e.log.Error().Err(err).Str("symbol", ev.Symbol).Msg("tick failed")
			e.sleep(retryDelay)
		case <-time.After(e.cfg.Interval):
			// No event arrived within one interval; check ctx and loop.
		}
	}
}

// processTick runs one pass of the state machine for a single event.
func (e *Engine) processTick(ctx context.Context, ev market.PriceEvent) error {
	if e.governor.Halted() {
		return ErrDailyLossLimit
	}
	// An absent price short-circuits the tick with no state update.
	if ev.Price <= 0 {
		return nil
	}
	st := e.state.symbol(ev.Symbol)
	if st == nil {
		e.log.Debug().Str("symbol", ev.Symbol).Msg("event for untracked symbol")
		return nil
	}

	st.history.Append(ev.Price)
	st.lastPrice = ev.Price
	st.hasPrice = true
	metricTicks.Inc()

	atr := e.vol.Estimate(ctx, ev.Symbol)
	gain := st.history.PercentGain()

	positions, err := e.gateway.GetAllPositions(ctx)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}

	e.evaluateBuy(ctx, ev, st, atr, gain, positions)
	e.evaluateSell(ctx, positions)

	metricDailyPnL.Set(e.governor.PnL())
	if e.governor.Halted() {
		return ErrDailyLossLimit
	}
	return nil
}

// evaluateBuy applies the buy guards. All must hold for a buy; when
// momentum alone qualified but another guard failed, a no_buy row records
// the failing guards in fixed order. Flat markets (momentum below the
// threshold) log nothing.
func (e *Engine) evaluateBuy(ctx context.Context, ev market.PriceEvent, st *symbolState, atr, gain float64, positions []broker.Position) {
	now := time.Now()
	cooldownOK := now.Sub(st.lastTrade) > e.cfg.Cooldown
	atrOK := atr > e.cfg.ATRFloor
	invested := investedIn(positions, market.Compact(ev.Symbol))
	investOK := invested < e.cfg.MaxInvestment
	gainOK := gain >= e.cfg.GainThreshold

	if cooldownOK && atrOK && investOK && gainOK {
		qty := e.cfg.PositionSize / ev.Price
		if _, err := e.gateway.SubmitMarketOrder(ctx, ev.Symbol, qty, broker.Buy); err != nil {
			// Not executed: cooldown and ledger stay untouched, no retry.
			metricOrderFailures.Inc()
			e.log.Error().Err(err).Str("symbol", ev.Symbol).Msg("buy order failed")
			return
		}
		st.lastTrade = now
		metricBuys.Inc()
		e.log.Info().Str("symbol", ev.Symbol).Float64("qty", qty).Float64("price", ev.Price).Msg("bought")
		e.record(journal.TradeRecord{
			Time: now, Action: journal.ActionBuy, Symbol: ev.Symbol,
			Price: ev.Price, Qty: qty, DailyPnL: e.governor.PnL(),
		})
		return
	}

	if !gainOK {
		return
	}

	var reasons []string
	if !cooldownOK {
		reasons = append(reasons, "cooldown active")
	}
	if !atrOK {
		reasons = append(reasons, "low volatility (ATR)")
	}
	if !investOK {
		reasons = append(reasons, "max investment reached")
	}
	if len(reasons) == 0 {
		return
	}

	reason := strings.Join(reasons, ", ")
	metricNoBuys.Inc()
	e.log.Info().Str("symbol", ev.Symbol).Str("reason", reason).Msg("no buy")
	e.record(journal.TradeRecord{
		Time: now, Action: journal.ActionNoBuy, Symbol: ev.Symbol,
		Price: ev.Price, DailyPnL: e.governor.PnL(), Reason: reason,
	})
}

// evaluateSell checks every open position mapped to a tracked instrument
// against the take-profit and stop-loss thresholds, both inclusive.
func (e *Engine) evaluateSell(ctx context.Context, positions []broker.Position) {
	for _, pos := range positions {
		sym, ok := e.assets.Canonical(pos.Symbol)
		if !ok {
			continue
		}
		st := e.state.symbol(sym)
		if st == nil || !st.hasPrice {
			continue
		}
		if pos.Qty == 0 {
			continue
		}

		current := st.lastPrice
		entry := pos.EntryPrice()
		if entry == 0 {
			continue
		}
		profit := (current-entry)/entry - e.cfg.FeePercent

		if profit >= e.cfg.TakeProfit || profit <= -e.cfg.LossThreshold {
			if _, err := e.gateway.SubmitMarketOrder(ctx, sym, pos.Qty, broker.Sell); err != nil {
				metricOrderFailures.Inc()
				e.log.Error().Err(err).Str("symbol", sym).Msg("sell order failed")
				continue
			}

			pnl := (current-entry)*pos.Qty - e.cfg.FeePercent*entry*pos.Qty
			total := e.governor.Add(pnl)
			metricSells.Inc()
			e.log.Info().Str("symbol", sym).Float64("qty", pos.Qty).
				Float64("price", current).Float64("pnl", pnl).Float64("daily_pnl", total).
				Msg("sold")
			e.record(journal.TradeRecord{
				Time: time.Now(), Action: journal.ActionSell, Symbol: sym,
				Price: current, Qty: pos.Qty, DailyPnL: total,
			})
		}
	}
}

// record appends to the ledger; a write failure is logged, never fatal.
func (e *Engine) record(rec journal.TradeRecord) {
	if err := e.ledger.Record(rec); err != nil {
		e.log.Error().Err(err).Str("action", string(rec.Action)).Msg("ledger write failed")
	}
}

// investedIn sums the cost basis of open positions for one compact symbol.
func investedIn(positions []broker.Position, compact string) float64 {
	var total float64
	for _, pos := range positions {
		if pos.Symbol == compact {
			total += pos.CostBasis
		}
	}
	return total
}
