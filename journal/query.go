// journal/query.go
package journal

import (
	"time"
)

// ListTrades returns every ledger row in append order.
func (j *SQLiteJournal) ListTrades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, action, symbol, price, qty, daily_pnl, reason
		FROM trades
		ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		var action string
		if err := rows.Scan(
			&rec.Time,
			&action,
			&rec.Symbol,
			&rec.Price,
			&rec.Qty,
			&rec.DailyPnL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		rec.Action = Action(action)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesBetween returns rows whose time is within [start, end).
func (j *SQLiteJournal) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT time, action, symbol, price, qty, daily_pnl, reason
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		var action string
		if err := rows.Scan(
			&rec.Time,
			&action,
			&rec.Symbol,
			&rec.Price,
			&rec.Qty,
			&rec.DailyPnL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		rec.Action = Action(action)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Tail returns the most recent n rows in append order.
func (j *SQLiteJournal) Tail(n int) ([]TradeRecord, error) {
	recs, err := j.ListTrades()
	if err != nil {
		return nil, err
	}
	if len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}
