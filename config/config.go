package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/rebalancer/backtest"
	"github.com/rustyeddy/rebalancer/market"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Environment variables holding broker secrets.
const (
	EnvToken     = "BROKER_TOKEN"
	EnvAccountID = "BROKER_ACCOUNT_ID"
)

// Config is the complete rebalancer configuration.
type Config struct {
	Stocks   map[string]float64 `json:"stocks" yaml:"stocks"`
	Backtest BacktestConfig     `json:"backtest" yaml:"backtest"`
	Trade    TradeConfig        `json:"trade" yaml:"trade"`
	Broker   BrokerConfig       `json:"broker" yaml:"broker"`
	Journal  JournalConfig      `json:"journal" yaml:"journal"`
	Log      LogConfig          `json:"log" yaml:"log"`
}

type BacktestConfig struct {
	InitialCapital     float64 `json:"initial_capital" yaml:"initial_capital"`
	RebalanceFrequency string  `json:"rebalance_frequency" yaml:"rebalance_frequency"`
	Start              string  `json:"start,omitempty" yaml:"start,omitempty"` // YYYY-MM-DD
	End                string  `json:"end,omitempty" yaml:"end,omitempty"`
	DBPath             string  `json:"db_path" yaml:"db_path"`
}

type TradeConfig struct {
	PortfolioValue float64 `json:"portfolio_value" yaml:"portfolio_value"`
	DryRun         bool    `json:"dry_run" yaml:"dry_run"`
}

type BrokerConfig struct {
	BaseURL           string  `json:"base_url" yaml:"base_url"`
	AccountID         string  `json:"account_id" yaml:"account_id"`
	Exchange          string  `json:"exchange" yaml:"exchange"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Secrets are read from the environment, never from the config file.
type Secrets struct {
	Token     string
	AccountID string
}

func SecretsFromEnv() Secrets {
	return Secrets{
		Token:     os.Getenv(EnvToken),
		AccountID: os.Getenv(EnvAccountID),
	}
}

// Default returns five equally weighted stocks and monthly rebalancing.
func Default() *Config {
	return &Config{
		Stocks: map[string]float64{
			"TSLA": 0.2,
			"JPM":  0.2,
			"JNJ":  0.2,
			"PG":   0.2,
			"PLTR": 0.2,
		},
		Backtest: BacktestConfig{
			InitialCapital:     10000,
			RebalanceFrequency: "monthly",
			DBPath:             "./prices.sqlite",
		},
		Trade: TradeConfig{
			PortfolioValue: 1000000,
		},
		Broker: BrokerConfig{
			BaseURL:           "https://openapi.koreainvestment.com:9443",
			Exchange:          "NAS",
			RequestsPerSecond: 5,
		},
		Journal: JournalConfig{
			DBPath: "./runs.sqlite",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path like LoadFromFile, but a missing file yields Default.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return LoadFromFile(path)
}

// LoadFromFile merges a YAML or JSON file over Default. Sections merge
// field by field. Stocks merge by key and a weight of 0 removes a stock.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	// Try YAML first, fall back to JSON
	cfg := Default()
	defaults := cfg.Stocks
	cfg.Stocks = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		cfg.Stocks = nil
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}

	merged := defaults
	for asset, w := range cfg.Stocks {
		asset = strings.ToUpper(strings.TrimSpace(asset))
		if w == 0 {
			delete(merged, asset)
			continue
		}
		merged[asset] = w
	}
	cfg.Stocks = merged
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise.
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// Validate checks the config. The weights sum is not checked here.
func (c *Config) Validate() error {
	if len(c.Stocks) == 0 {
		return invalidf("stocks must name at least one asset")
	}
	for _, asset := range c.Assets() {
		if asset == "" {
			return invalidf("stocks contains an empty asset name")
		}
		if w := c.Stocks[asset]; !positive(w) {
			return invalidf("stocks.%s weight must be positive, got %v", asset, w)
		}
	}

	if !positive(c.Backtest.InitialCapital) {
		return invalidf("backtest.initial_capital must be positive")
	}
	if _, err := backtest.ParseFrequency(c.Backtest.RebalanceFrequency); err != nil {
		return invalidf("backtest.rebalance_frequency: %q", c.Backtest.RebalanceFrequency)
	}
	if _, err := c.Range(); err != nil {
		return err
	}

	if !positive(c.Trade.PortfolioValue) {
		return invalidf("trade.portfolio_value must be positive")
	}
	if c.Broker.RequestsPerSecond < 0 {
		return invalidf("broker.requests_per_second must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// Assets returns the configured assets sorted.
func (c *Config) Assets() []string {
	out := make([]string, 0, len(c.Stocks))
	for a := range c.Stocks {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// BacktestConfig converts the backtest section for the engine. A parse
// failure is also a backtest.ErrConfiguration.
func (c *Config) BacktestConfig() (backtest.Config, error) {
	freq, err := backtest.ParseFrequency(c.Backtest.RebalanceFrequency)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	weights := make(backtest.Weights, len(c.Stocks))
	for a, w := range c.Stocks {
		weights[a] = w
	}
	return backtest.Config{
		InitialCapital: c.Backtest.InitialCapital,
		Weights:        weights,
		Frequency:      freq,
	}, nil
}

// Range parses backtest.start and backtest.end. Either may be empty.
func (c *Config) Range() (backtest.Range, error) {
	var rng backtest.Range
	var err error
	if c.Backtest.Start != "" {
		if rng.From, err = market.ParseDay(c.Backtest.Start); err != nil {
			return rng, invalidf("backtest.start: %v", err)
		}
	}
	if c.Backtest.End != "" {
		if rng.To, err = market.ParseDay(c.Backtest.End); err != nil {
			return rng, invalidf("backtest.end: %v", err)
		}
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, invalidf("backtest.end %s is before backtest.start %s", c.Backtest.End, c.Backtest.Start)
	}
	return rng, nil
}

func (c *Config) LogLevel() (zerolog.Level, error) {
	if c.Log.Level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.NoLevel, invalidf("log.level: %v", err)
	}
	return lvl, nil
}
