// journal/aggregate.go
package journal

import (
	"sort"
	"time"
)

// PnLPoint is one sample of the daily_pnl column over time.
type PnLPoint struct {
	Time     time.Time `json:"time"`
	DailyPnL float64   `json:"daily_pnl"`
}

// PnLSeries extracts the accumulator snapshots in ledger order.
func PnLSeries(recs []TradeRecord) []PnLPoint {
	out := make([]PnLPoint, 0, len(recs))
	for _, r := range recs {
		out = append(out, PnLPoint{Time: r.Time, DailyPnL: r.DailyPnL})
	}
	return out
}

// OpenQuantity is the net open quantity for one symbol.
type OpenQuantity struct {
	Symbol string  `json:"symbol"`
	Qty    float64 `json:"qty"`
}

// OpenQuantities nets buys (+) against sells (-) per symbol, clipped at
// zero. no_buy rows carry qty 0 and do not contribute.
func OpenQuantities(recs []TradeRecord) []OpenQuantity {
	net := make(map[string]float64)
	for _, r := range recs {
		switch r.Action {
		case ActionBuy:
			net[r.Symbol] += r.Qty
		case ActionSell:
			net[r.Symbol] -= r.Qty
		}
	}

	out := make([]OpenQuantity, 0, len(net))
	for sym, qty := range net {
		if qty < 0 {
			qty = 0
		}
		out = append(out, OpenQuantity{Symbol: sym, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// RecentNoBuys returns the last n no_buy rows, oldest first.
func RecentNoBuys(recs []TradeRecord, n int) []TradeRecord {
	var noBuys []TradeRecord
	for _, r := range recs {
		if r.Action == ActionNoBuy {
			noBuys = append(noBuys, r)
		}
	}
	if len(noBuys) > n {
		noBuys = noBuys[len(noBuys)-n:]
	}
	return noBuys
}

// LatestPnL returns the most recent accumulator snapshot, or 0 when the
// ledger is empty.
func LatestPnL(recs []TradeRecord) float64 {
	if len(recs) == 0 {
		return 0
	}
	return recs[len(recs)-1].DailyPnL
}
