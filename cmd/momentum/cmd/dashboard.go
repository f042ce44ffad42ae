package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/momentum/config"
	"github.com/rustyeddy/momentum/dashboard"
	"github.com/rustyeddy/momentum/journal"
)

var dashboardAddr string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the read-only web dashboard over the trade ledger",
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

		addr := cfg.Dashboard.Addr
		if dashboardAddr != "" {
			addr = dashboardAddr
		}
		return dashboard.NewServer(store, log).ListenAndServe(addr)
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardAddr, "addr", "", "listen address (overrides config)")
}

// openReader opens the configured ledger backend read-only. The returned
// closer is nil for backends with nothing to close.
func openReader(cfg *config.Config) (journal.Reader, func() error, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSVReader(cfg.Journal.TradesFile), nil, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return j, j.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}
