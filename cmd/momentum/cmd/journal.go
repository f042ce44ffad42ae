package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/momentum/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade ledger",
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's ledger rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end := dayBounds(time.Now().In(time.Local))
		return printTradesBetween(start, end)
	},
}

var journalDayCmd = &cobra.Command{
	Use:   "day YYYY-MM-DD",
	Short: "Show the ledger rows for one day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
		if err != nil {
			return fmt.Errorf("bad date %q: %w", args[0], err)
		}
		start, end := dayBounds(t)
		return printTradesBetween(start, end)
	},
}

var tailCount int

var journalTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the most recent ledger rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closer, err := openReader(cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer()
		}

		var recs []journal.TradeRecord
		if sq, ok := store.(*journal.SQLiteJournal); ok {
			recs, err = sq.Tail(tailCount)
		} else {
			recs, err = store.ListTrades()
			if err == nil && len(recs) > tailCount {
				recs = recs[len(recs)-tailCount:]
			}
		}
		if err != nil {
			return err
		}
		printTrades(recs)
		return nil
	},
}

func init() {
	journalTailCmd.Flags().IntVarP(&tailCount, "count", "n", 20, "number of rows")

	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalTailCmd)
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}

func printTradesBetween(start, end time.Time) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, closer, err := openReader(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	var recs []journal.TradeRecord
	if sq, ok := store.(*journal.SQLiteJournal); ok {
		recs, err = sq.ListTradesBetween(start, end)
	} else {
		var all []journal.TradeRecord
		all, err = store.ListTrades()
		for _, r := range all {
			if !r.Time.Before(start) && r.Time.Before(end) {
				recs = append(recs, r)
			}
		}
	}
	if err != nil {
		return err
	}
	printTrades(recs)
	return nil
}

func printTrades(recs []journal.TradeRecord) {
	if len(recs) == 0 {
		fmt.Println("no trades")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tSYMBOL\tPRICE\tQTY\tDAILY_PNL\tREASON")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%.6f\t%.6f\t%s\n",
			r.Time.Format(time.RFC3339), r.Action, r.Symbol,
			r.Price, r.Qty, r.DailyPnL, r.Reason)
	}
	w.Flush()

	fmt.Printf("\n%d rows, latest daily pnl %.6f\n", len(recs), journal.LatestPnL(recs))
}
