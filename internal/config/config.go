package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols []string `yaml:"symbols"`
	Years   float64  `yaml:"years"`

	DataSource struct {
		Provider        string `yaml:"provider"` // kite | yahoo | alpaca
		KiteAPIKey      string `yaml:"kite_api_key"`
		KiteAccessToken string `yaml:"kite_access_token"`
		KiteExchange    string `yaml:"kite_exchange"`
		AlpacaAPIKey    string `yaml:"alpaca_api_key"`
		AlpacaAPISecret string `yaml:"alpaca_api_secret"`
	} `yaml:"data_source"`

	Detector struct {
		Window int `yaml:"window"`
	} `yaml:"detector"`

	Filter struct {
		Tolerance  float64 `yaml:"tolerance"`
		MinTouches int     `yaml:"min_touches"`
		MinGapDays int     `yaml:"min_gap_days"`
	} `yaml:"filter"`

	Chart struct {
		OutputDir  string `yaml:"output_dir"`
		DarkMode   bool   `yaml:"dark_mode"`
		Volume     bool   `yaml:"volume"`
		CloseUp    bool   `yaml:"close_up"`
		SMAPeriods []int  `yaml:"sma_periods"`
	} `yaml:"chart"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Report struct {
		SummaryFile string `yaml:"summary_file"`
	} `yaml:"report"`

	Watch struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"watch"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	// Numeric defaults are set before unmarshalling so an explicit zero
	// in the file (a valid tolerance or gap) is kept, not re-defaulted.
	cfg := &Config{}
	cfg.Years = 1
	cfg.Detector.Window = 2
	cfg.Filter.Tolerance = 0.005
	cfg.Filter.MinTouches = 3
	cfg.Filter.MinGapDays = 3

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Symbols = append(cfg.Symbols, s)
			}
		}
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.DataSource.KiteAPIKey = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.DataSource.KiteAccessToken = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.DataSource.AlpacaAPIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		cfg.DataSource.AlpacaAPISecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("YEARS"); v != "" {
		if years, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Years = years
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("WATCH_CRON"); v != "" {
		cfg.Watch.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.KiteExchange == "" {
		cfg.DataSource.KiteExchange = "NSE"
	}
	if cfg.Chart.OutputDir == "" {
		cfg.Chart.OutputDir = "charts"
	}
	if cfg.Chart.SMAPeriods == nil {
		cfg.Chart.SMAPeriods = []int{20, 50}
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/levelscan.db"
	}
	if cfg.Watch.Cron == "" {
		cfg.Watch.Cron = "0 30 18 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and thresholds are sane.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.Years <= 0 {
		return fmt.Errorf("years must be positive")
	}
	if c.Detector.Window < 1 {
		return fmt.Errorf("detector.window must be at least 1")
	}
	if c.Filter.Tolerance < 0 {
		return fmt.Errorf("filter.tolerance must be non-negative")
	}
	if c.Filter.MinTouches < 1 {
		return fmt.Errorf("filter.min_touches must be at least 1")
	}
	if c.Filter.MinGapDays < 0 {
		return fmt.Errorf("filter.min_gap_days must be non-negative")
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "kite":
		if c.DataSource.KiteAPIKey == "" || c.DataSource.KiteAccessToken == "" {
			return fmt.Errorf("data_source.kite_api_key and kite_access_token are required for provider kite")
		}
	case "alpaca":
		if c.DataSource.AlpacaAPIKey == "" || c.DataSource.AlpacaAPISecret == "" {
			return fmt.Errorf("data_source.alpaca_api_key and alpaca_api_secret are required for provider alpaca")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	return nil
}
