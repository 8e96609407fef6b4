package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TalmudBacktest/internal/calculator"
	"TalmudBacktest/internal/model"
)

// DataSourceConfig selects where price series come from.
type DataSourceConfig struct {
	Kind    string `yaml:"kind"` // csv | yahoo | rest | mock
	Dir     string `yaml:"dir"`  // csv only
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// BacktestConfig holds defaults for runs that don't specify them.
type BacktestConfig struct {
	InitialCapital float64  `yaml:"initial_capital"`
	Policy         string   `yaml:"policy"`
	RiskFreeRate   *float64 `yaml:"risk_free_rate"`
	DefaultYears   int      `yaml:"default_years"`
}

// RiskFree returns the configured annual risk-free rate.
func (b BacktestConfig) RiskFree() float64 {
	if b.RiskFreeRate == nil {
		return calculator.DefaultRiskFreeRate
	}
	return *b.RiskFreeRate
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Kind          string        `yaml:"kind"` // memory | redis | none
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoggingConfig configures the process-wide logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text | json
	Output     string `yaml:"output"` // stdout | stderr | file
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// WatchItem is a portfolio re-run on the watch schedule.
type WatchItem struct {
	Name       string `yaml:"name"`
	RealEstate string `yaml:"real_estate"`
	Stocks     string `yaml:"stocks"`
	Cash       string `yaml:"cash"`
	Benchmark  string `yaml:"benchmark"`
	Policy     string `yaml:"policy"`
	Years      int    `yaml:"years"` // lookback from the common end date; 0 uses backtest.default_years
}

// Config holds all application configuration.
type Config struct {
	DataSource DataSourceConfig `yaml:"data_source"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Cache      CacheConfig      `yaml:"cache"`
	Database   struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server   ServerConfig `yaml:"server"`
	Schedule struct {
		WatchCron string `yaml:"watch_cron"`
		StateFile string `yaml:"state_file"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Logging LoggingConfig `yaml:"logging"`
	Watch   []WatchItem   `yaml:"watch"`
	Proxy   string        `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config at path, then applies
// environment variable overrides and defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TALMUD_DATA_DIR"); v != "" {
		c.DataSource.Dir = v
	}
	if v := os.Getenv("TALMUD_DATA_SOURCE"); v != "" {
		c.DataSource.Kind = v
	}
	if v := os.Getenv("TALMUD_RISK_FREE_RATE"); v != "" {
		rf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TALMUD_RISK_FREE_RATE: %w", err)
		}
		c.Backtest.RiskFreeRate = &rf
	}
	if v := os.Getenv("TALMUD_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
		if c.Cache.Kind == "" {
			c.Cache.Kind = "redis"
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
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
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Kind == "" {
		c.DataSource.Kind = "csv"
	}
	if c.DataSource.Dir == "" {
		c.DataSource.Dir = "data"
	}
	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = 1_000_000
	}
	if c.Backtest.Policy == "" {
		c.Backtest.Policy = model.Yearly.String()
	}
	if c.Backtest.DefaultYears == 0 {
		c.Backtest.DefaultYears = 5
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/talmud.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Schedule.WatchCron == "" {
		c.Schedule.WatchCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.StateFile == "" {
		c.Schedule.StateFile = "data/watch_state.json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Logging.File == "" {
		c.Logging.File = "logs/talmud.log"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 50
	}
}

// Validate checks value ranges of the loaded configuration.
func (c *Config) Validate() error {
	switch c.DataSource.Kind {
	case "csv":
		if c.DataSource.Dir == "" {
			return fmt.Errorf("data_source.dir is required for csv source")
		}
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for rest source")
		}
	case "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.kind %q is not one of csv, yahoo, rest, mock", c.DataSource.Kind)
	}

	if c.Backtest.InitialCapital <= 0 || math.IsInf(c.Backtest.InitialCapital, 0) || math.IsNaN(c.Backtest.InitialCapital) {
		return fmt.Errorf("backtest.initial_capital must be positive")
	}
	if _, err := model.ParsePolicy(c.Backtest.Policy); err != nil {
		return fmt.Errorf("backtest.policy: %w", err)
	}
	if rf := c.Backtest.RiskFree(); math.IsInf(rf, 0) || math.IsNaN(rf) {
		return fmt.Errorf("backtest.risk_free_rate must be finite")
	}
	if c.Backtest.DefaultYears < 0 {
		return fmt.Errorf("backtest.default_years must not be negative")
	}

	switch c.Cache.Kind {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for redis cache")
		}
	default:
		return fmt.Errorf("cache.kind %q is not one of memory, redis, none", c.Cache.Kind)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}

	for i, w := range c.Watch {
		if w.RealEstate == "" || w.Stocks == "" || w.Cash == "" {
			return fmt.Errorf("watch[%d]: real_estate, stocks and cash are required", i)
		}
		if w.Policy != "" {
			if _, err := model.ParsePolicy(w.Policy); err != nil {
				return fmt.Errorf("watch[%d].policy: %w", i, err)
			}
		}
	}
	return nil
}

// ValidateTelegram checks the fields needed to send notifications.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
