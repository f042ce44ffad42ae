// journal/journal.go
package journal

import "time"

// Action classifies a ledger row.
type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionNoBuy Action = "no_buy"
)

// TradeRecord is one append-only ledger row. Reason is populated only for
// no_buy rows; DailyPnL is the accumulator snapshot at record time.
// Records are never mutated or deleted after write.
type TradeRecord struct {
	Time     time.Time
	Action   Action
	Symbol   string
	Price    float64
	Qty      float64
	DailyPnL float64
	Reason   string
}

// Journal is an append-only trade ledger.
type Journal interface {
	Record(TradeRecord) error
	Close() error
}

// Reader lists ledger rows in append order. Both ledger backends satisfy
// it; the dashboard aggregates over the result.
type Reader interface {
	ListTrades() ([]TradeRecord, error)
}
