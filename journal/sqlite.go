// journal/sqlite.go
package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/momentum/pkg/id"
)

// SQLiteJournal persists the ledger in a SQLite database. Row IDs are
// ULIDs, so insertion order and time order agree.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(id, time, action, symbol, price, qty, daily_pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.New(), t.Time, string(t.Action), t.Symbol, t.Price, t.Qty, t.DailyPnL, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
