package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketSnapshot/internal/calculator"
	"MarketSnapshot/internal/ivhistory"
	"MarketSnapshot/internal/logger"
	"MarketSnapshot/internal/options"
)

// Config holds all application configuration.
type Config struct {
	Universe struct {
		Sources []string `yaml:"sources"`
		Symbols []string `yaml:"symbols"`
		Limit   int      `yaml:"limit"`
	} `yaml:"universe"`
	Market struct {
		Interval      string   `yaml:"interval"`
		Period        string   `yaml:"period"`
		RiskFree      float64  `yaml:"risk_free"`
		HistMax       int      `yaml:"hist_max"`
		CryptoSymbols []string `yaml:"crypto_symbols"`
	} `yaml:"market"`
	Options struct {
		Enable           bool     `yaml:"enable"`
		Max              int      `yaml:"max"`
		HistoryBackend   string   `yaml:"history_backend"` // "json" or "sqlite"
		HistoryPath      string   `yaml:"history_path"`
		HistoryCapacity  int      `yaml:"history_capacity"`
		VolIndexSymbols  []string `yaml:"vol_index_symbols"`
		NonOptionSymbols []string `yaml:"non_option_symbols"`
	} `yaml:"options"`
	Fetch struct {
		Concurrency       int     `yaml:"concurrency"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
	} `yaml:"fetch"`
	Output struct {
		Path        string `yaml:"path"`
		Pretty      bool   `yaml:"pretty"`
		ParquetPath string `yaml:"parquet_path"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		SnapshotCron string `yaml:"snapshot_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then .env, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := newConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// newConfig presets the defaults whose zero value is meaningful, so an
// explicit 0 in the file or environment survives.
func newConfig() *Config {
	cfg := &Config{}
	cfg.Market.HistMax = 360
	cfg.Options.Enable = true
	cfg.Options.Max = 40
	cfg.Options.HistoryCapacity = 252
	cfg.Fetch.Concurrency = 4
	cfg.Fetch.RequestsPerSecond = 5
	cfg.Fetch.TimeoutSeconds = 20
	cfg.Output.Pretty = true
	return cfg
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("UNIVERSE"); v != "" {
		c.Universe.Sources = splitList(v)
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Universe.Symbols = splitList(v)
	}
	if v := os.Getenv("YF_INTERVAL"); v != "" {
		c.Market.Interval = v
	}
	if v := os.Getenv("YF_PERIOD"); v != "" {
		c.Market.Period = v
	}
	if v := os.Getenv("RISK_FREE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RISK_FREE: %w", err)
		}
		c.Market.RiskFree = f
	}
	if v := os.Getenv("HIST_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HIST_MAX: %w", err)
		}
		c.Market.HistMax = n
	}
	if v := os.Getenv("IV_ENABLE"); v != "" {
		c.Options.Enable = isTrue(v)
	}
	if v := os.Getenv("IV_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IV_MAX: %w", err)
		}
		c.Options.Max = n
	}
	if v := os.Getenv("IV_HISTORY_PATH"); v != "" {
		c.Options.HistoryPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("SNAPSHOT_CRON"); v != "" {
		c.Schedule.SnapshotCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Universe.Sources) == 0 && len(c.Universe.Symbols) == 0 {
		c.Universe.Sources = []string{"SP500", "NAS100", "DOW30", "EXTRA"}
	}
	c.Market.Interval = NormInterval(c.Market.Interval)
	if c.Market.Period == "" {
		c.Market.Period = "120d"
	}
	if c.Market.CryptoSymbols == nil {
		c.Market.CryptoSymbols = []string{"BTC-USD", "ETH-USD"}
	}
	if c.Options.HistoryBackend == "" {
		c.Options.HistoryBackend = "json"
	}
	if c.Options.HistoryPath == "" {
		c.Options.HistoryPath = "docs/data/iv_history.json"
	}
	if c.Options.VolIndexSymbols == nil {
		c.Options.VolIndexSymbols = []string{"^VIX"}
	}
	if c.Options.NonOptionSymbols == nil {
		c.Options.NonOptionSymbols = []string{"BTC-USD", "ETH-USD"}
	}
	if c.Output.Path == "" {
		c.Output.Path = "docs/data/snapshot.json"
	}
	if c.Schedule.SnapshotCron == "" {
		c.Schedule.SnapshotCron = "0 30 22 * * 1-5"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Market.RiskFree < 0 || c.Market.RiskFree > 1 {
		return fmt.Errorf("market.risk_free must be a decimal in [0, 1]")
	}
	if c.Market.HistMax < 0 {
		return fmt.Errorf("market.hist_max must not be negative")
	}
	if c.Options.Max < 0 {
		return fmt.Errorf("options.max must not be negative")
	}
	if c.Options.HistoryBackend != "json" && c.Options.HistoryBackend != "sqlite" {
		return fmt.Errorf("options.history_backend must be json or sqlite")
	}
	if c.Options.HistoryBackend == "sqlite" && c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required for the sqlite history backend")
	}
	if c.Options.HistoryCapacity < 1 || c.Options.HistoryCapacity > ivhistory.Capacity {
		return fmt.Errorf("options.history_capacity must be between 1 and %d", ivhistory.Capacity)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be positive")
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return fmt.Errorf("fetch.requests_per_second must be positive")
	}
	if c.Fetch.TimeoutSeconds < 1 {
		return fmt.Errorf("fetch.timeout_seconds must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Analytics returns the parameters for the indicator and Sharpe computations.
func (c *Config) Analytics() calculator.Config {
	return calculator.Config{
		Interval:      c.Market.Interval,
		RiskFree:      c.Market.RiskFree,
		CryptoSymbols: c.Market.CryptoSymbols,
	}
}

// IV returns the IV30 extractor configuration. Options are priced with
// zero rate and carry.
func (c *Config) IV() options.Config {
	return options.Config{
		VolIndexSymbols:  c.Options.VolIndexSymbols,
		NonOptionSymbols: c.Options.NonOptionSymbols,
	}
}

var supportedIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
	"1h": true, "1d": true, "5d": true, "1wk": true, "1mo": true, "3mo": true,
}

// NormInterval lower-cases an interval and maps unsupported values onto
// a supported one: "10m" becomes "15m", anything else unknown "1d".
func NormInterval(iv string) string {
	iv = strings.ToLower(strings.TrimSpace(iv))
	if iv == "" {
		return "1d"
	}
	if iv == "10m" {
		logger.GetLogger().WithComponent("config").Warn("10m interval is not supported, using 15m")
		return "15m"
	}
	if !supportedIntervals[iv] {
		logger.GetLogger().WithComponent("config").WithFields(logger.Fields{"interval": iv}).Warn("unsupported interval, falling back to 1d")
		return "1d"
	}
	return iv
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
