// journal/csv.go
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"timestamp", "action", "symbol", "price", "qty", "daily_pnl", "reason"}

// CSVJournal appends ledger rows to a delimited file the dashboard reads.
// The file is opened in append mode so restarts extend the same ledger.
type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

// NewCSV opens (or creates) the ledger file at path. A header row is
// written only when the file is empty.
func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) Record(t TradeRecord) error {
	err := j.w.Write([]string{
		t.Time.Format(time.RFC3339),
		string(t.Action),
		t.Symbol,
		f(t.Price),
		f(t.Qty),
		f(t.DailyPnL),
		t.Reason,
	})
	if err != nil {
		return err
	}

	j.w.Flush()
	return j.w.Error()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// CSVReader reads a CSV ledger back for the dashboard.
type CSVReader struct {
	path string
}

func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

func (r *CSVReader) ListTrades() ([]TradeRecord, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No trades yet is not an error.
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	cr := csv.NewReader(file)
	cr.FieldsPerRecord = len(csvHeader)

	var out []TradeRecord
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if row[0] == csvHeader[0] {
				continue
			}
		}

		rec, err := parseCSVRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseCSVRow(row []string) (TradeRecord, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return TradeRecord{}, fmt.Errorf("parse timestamp %q: %w", row[0], err)
	}
	price, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("parse price %q: %w", row[3], err)
	}
	qty, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("parse qty %q: %w", row[4], err)
	}
	pnl, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("parse daily_pnl %q: %w", row[5], err)
	}

	return TradeRecord{
		Time:     ts,
		Action:   Action(row[1]),
		Symbol:   row[2],
		Price:    price,
		Qty:      qty,
		DailyPnL: pnl,
		Reason:   row[6],
	}, nil
}
