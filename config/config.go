package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/momentum/market"
)

// Config is the complete bot configuration. Every scalar is consumed
// read-only by the core.
type Config struct {
	Trading   TradingConfig   `json:"trading" yaml:"trading"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Alpaca    AlpacaConfig    `json:"alpaca" yaml:"alpaca"`
}

// TradingConfig contains the strategy parameters.
type TradingConfig struct {
	Symbols          []string `json:"symbols" yaml:"symbols"`
	CheckInterval    string   `json:"check_interval" yaml:"check_interval"`         // e.g. "45s"
	GainThreshold    float64  `json:"gain_threshold" yaml:"gain_threshold"`         // momentum to buy
	PositionSize     float64  `json:"position_size" yaml:"position_size"`           // USD per trade
	MaxInvestment    float64  `json:"max_investment" yaml:"max_investment"`         // USD cap per symbol
	FeePercent       float64  `json:"fee_percent" yaml:"fee_percent"`               // exchange fee
	MinTradeCooldown string   `json:"min_trade_cooldown" yaml:"min_trade_cooldown"` // e.g. "30s"
	ATRFloor         float64  `json:"atr_floor" yaml:"atr_floor"`                   // volatility floor
}

// RiskConfig contains the exit and circuit-breaker thresholds.
type RiskConfig struct {
	LossThreshold  float64 `json:"loss_threshold" yaml:"loss_threshold"`     // stop-loss pct
	TakeProfit     float64 `json:"take_profit" yaml:"take_profit"`           // take-profit pct
	DailyLossLimit float64 `json:"daily_loss_limit" yaml:"daily_loss_limit"` // negative USD
}

// JournalConfig selects the trade ledger backend.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// DashboardConfig contains the dashboard listen address.
type DashboardConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// AlpacaConfig selects the brokerage environment. Credentials never live
// in the config file; they come from the environment (see LoadKeys).
type AlpacaConfig struct {
	Paper bool `json:"paper" yaml:"paper"`
}

// ParseInterval converts the polling interval to a duration.
func (t TradingConfig) ParseInterval() (time.Duration, error) {
	return time.ParseDuration(t.CheckInterval)
}

// ParseCooldown converts the per-symbol trade cooldown to a duration.
func (t TradingConfig) ParseCooldown() (time.Duration, error) {
	return time.ParseDuration(t.MinTradeCooldown)
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format by extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols is required")
	}
	for _, s := range c.Trading.Symbols {
		if !strings.Contains(s, "/") {
			return fmt.Errorf("symbol %q must be in canonical BASE/QUOTE form", s)
		}
	}
	if _, err := market.NewAssetMap(c.Trading.Symbols); err != nil {
		return err
	}
	if d, err := c.Trading.ParseInterval(); err != nil || d <= 0 {
		return fmt.Errorf("trading.check_interval must be a positive duration")
	}
	if d, err := c.Trading.ParseCooldown(); err != nil || d <= 0 {
		return fmt.Errorf("trading.min_trade_cooldown must be a positive duration")
	}
	if c.Trading.GainThreshold <= 0 {
		return fmt.Errorf("trading.gain_threshold must be positive")
	}
	if c.Trading.PositionSize <= 0 {
		return fmt.Errorf("trading.position_size must be positive")
	}
	if c.Trading.MaxInvestment <= 0 {
		return fmt.Errorf("trading.max_investment must be positive")
	}
	if c.Trading.FeePercent < 0 || c.Trading.FeePercent >= 1 {
		return fmt.Errorf("trading.fee_percent must be in [0, 1)")
	}
	if c.Trading.ATRFloor <= 0 {
		return fmt.Errorf("trading.atr_floor must be positive")
	}
	if c.Risk.LossThreshold <= 0 {
		return fmt.Errorf("risk.loss_threshold must be positive")
	}
	if c.Risk.TakeProfit <= 0 {
		return fmt.Errorf("risk.take_profit must be positive")
	}
	if c.Risk.DailyLossLimit >= 0 {
		return fmt.Errorf("risk.daily_loss_limit must be negative")
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && c.Journal.TradesFile == "" {
		return fmt.Errorf("journal.trades_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path required for SQLite type")
	}
	if c.Dashboard.Addr == "" {
		return fmt.Errorf("dashboard.addr is required")
	}
	return nil
}

// Default returns a configuration with sensible paper-trading defaults.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Symbols:          []string{"BTC/USD", "ETH/USD", "XRP/USD", "SOL/USD"},
			CheckInterval:    "45s",
			GainThreshold:    0.001,
			PositionSize:     150,
			MaxInvestment:    900,
			FeePercent:       0.002,
			MinTradeCooldown: "30s",
			ATRFloor:         0.00005,
		},
		Risk: RiskConfig{
			LossThreshold:  0.03,
			TakeProfit:     0.05,
			DailyLossLimit: -200,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
		},
		Dashboard: DashboardConfig{
			Addr: ":8080",
		},
		Alpaca: AlpacaConfig{
			Paper: true,
		},
	}
}

// Keys are the Alpaca API credentials.
type Keys struct {
	Key    string
	Secret string
}

// LoadKeys reads credentials from the environment, loading .env first if
// present. Existing environment variables are never overwritten.
func LoadKeys() (Keys, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Keys{}, fmt.Errorf("load .env: %w", err)
		}
	}

	k := Keys{
		Key:    os.Getenv("APCA_API_KEY_ID"),
		Secret: os.Getenv("APCA_API_SECRET_KEY"),
	}
	if k.Key == "" || k.Secret == "" {
		return Keys{}, fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY must be set (via env or .env)")
	}
	return k, nil
}
