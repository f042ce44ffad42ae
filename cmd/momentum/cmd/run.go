package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/momentum/broker"
	"github.com/rustyeddy/momentum/broker/alpaca"
	"github.com/rustyeddy/momentum/broker/paper"
	"github.com/rustyeddy/momentum/config"
	"github.com/rustyeddy/momentum/engine"
	"github.com/rustyeddy/momentum/journal"
	"github.com/rustyeddy/momentum/market"
)

var simFills bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop",
	RunE:  runTrading,
}

func init() {
	runCmd.Flags().BoolVar(&simFills, "sim", false,
		"fill orders in-memory instead of sending them to the brokerage")
}

func runTrading(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	keys, err := config.LoadKeys()
	if err != nil {
		return err
	}
	client := alpaca.NewClient(keys.Key, keys.Secret, cfg.Alpaca.Paper)

	var gateway broker.OrderGateway = client
	if simFills {
		gateway = paper.NewGateway(client)
		log.Info().Msg("simulated fills enabled, no orders leave this process")
	}

	ledger, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer ledger.Close()

	interval, err := cfg.Trading.ParseInterval()
	if err != nil {
		return err
	}
	cooldown, err := cfg.Trading.ParseCooldown()
	if err != nil {
		return err
	}

	ecfg := engine.Config{
		Symbols:        cfg.Trading.Symbols,
		Interval:       interval,
		GainThreshold:  cfg.Trading.GainThreshold,
		PositionSize:   cfg.Trading.PositionSize,
		MaxInvestment:  cfg.Trading.MaxInvestment,
		FeePercent:     cfg.Trading.FeePercent,
		Cooldown:       cooldown,
		ATRFloor:       cfg.Trading.ATRFloor,
		LossThreshold:  cfg.Risk.LossThreshold,
		TakeProfit:     cfg.Risk.TakeProfit,
		DailyLossLimit: cfg.Risk.DailyLossLimit,
	}

	// Room for a few cycles of events before the producer starts dropping.
	events := make(chan market.PriceEvent, 4*len(cfg.Trading.Symbols))

	eng, err := engine.New(ecfg, client, gateway, ledger, events, log)
	if err != nil {
		return err
	}
	producer := engine.NewProducer(client, cfg.Trading.Symbols, interval, events, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go producer.Run(ctx)

	log.Info().Strs("symbols", cfg.Trading.Symbols).
		Dur("interval", interval).
		Bool("paper", cfg.Alpaca.Paper).
		Msg("trading loop starting")

	err = eng.Run(ctx)
	switch {
	case errors.Is(err, engine.ErrDailyLossLimit):
		// Trading is done for the day; stay up so positions and the ledger
		// remain inspectable until the operator stops the process.
		log.Error().Float64("daily_pnl", eng.Governor().PnL()).
			Msg("trading halted for the day, waiting for shutdown signal")
		<-ctx.Done()
		return nil
	case errors.Is(err, context.Canceled):
		log.Info().Msg("shutting down")
		return nil
	default:
		return err
	}
}

// openJournal builds the ledger backend the config names.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}
