package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"FlipScout/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Market struct {
		BaseURL        string  `yaml:"base_url"`
		UserAgent      string  `yaml:"user_agent"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		Retries        int     `yaml:"retries"`
		RetryDelayMS   int     `yaml:"retry_delay_ms"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
	} `yaml:"market"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Filter  model.FilterConfig `yaml:"filter"`
	Suggest struct {
		Haircut        float64 `yaml:"haircut"`
		TopK           int     `yaml:"top_k"`
		MaxQuantityCap int64   `yaml:"max_quantity_cap"`
		MinTotalProfit float64 `yaml:"min_total_profit"`
	} `yaml:"suggest"`
	Scorer struct {
		ModelFile    string  `yaml:"model_file"`
		Episodes     int     `yaml:"episodes"`
		Epsilon      float64 `yaml:"epsilon"`
		EpsilonFloor float64 `yaml:"epsilon_floor"`
		EpsilonDecay float64 `yaml:"epsilon_decay"`
		Alpha        float64 `yaml:"alpha"`
		Gamma        float64 `yaml:"gamma"`
	} `yaml:"scorer"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	ExportDir string `yaml:"export_dir"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

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
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MARKET_BASE_URL"); v != "" {
		cfg.Market.BaseURL = v
	}
	if v := os.Getenv("MARKET_USER_AGENT"); v != "" {
		cfg.Market.UserAgent = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MODEL_FILE"); v != "" {
		cfg.Scorer.ModelFile = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HAIRCUT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Suggest.Haircut = f
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Market.BaseURL == "" {
		cfg.Market.BaseURL = "https://prices.runescape.wiki/api/v1/osrs"
	}
	if cfg.Market.UserAgent == "" {
		cfg.Market.UserAgent = "FlipScout/1.0"
	}
	if cfg.Market.TimeoutSeconds == 0 {
		cfg.Market.TimeoutSeconds = 30
	}
	if cfg.Market.Retries == 0 {
		cfg.Market.Retries = 3
	}
	if cfg.Market.RetryDelayMS == 0 {
		cfg.Market.RetryDelayMS = 1000
	}
	if cfg.Market.RatePerSecond == 0 {
		cfg.Market.RatePerSecond = 2
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/flipscout.db"
	}
	if cfg.Suggest.Haircut == 0 {
		cfg.Suggest.Haircut = 0.01
	}
	if cfg.Suggest.TopK == 0 {
		cfg.Suggest.TopK = 5
	}
	if cfg.Suggest.MaxQuantityCap == 0 {
		cfg.Suggest.MaxQuantityCap = 1000
	}
	if cfg.Scorer.ModelFile == "" {
		cfg.Scorer.ModelFile = "data/model.json"
	}
	if cfg.Scorer.Episodes == 0 {
		cfg.Scorer.Episodes = 500
	}
	if cfg.Scorer.Epsilon == 0 {
		cfg.Scorer.Epsilon = 0.3
	}
	if cfg.Scorer.EpsilonFloor == 0 {
		cfg.Scorer.EpsilonFloor = 0.01
	}
	if cfg.Scorer.EpsilonDecay == 0 {
		cfg.Scorer.EpsilonDecay = 0.995
	}
	if cfg.Scorer.Alpha == 0 {
		cfg.Scorer.Alpha = 0.3
	}
	if cfg.Scorer.Gamma == 0 {
		cfg.Scorer.Gamma = 0.9
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 20
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "data/exports"
	}
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	if c.Market.BaseURL == "" {
		return fmt.Errorf("market.base_url is required")
	}
	if c.Suggest.Haircut < 0 || c.Suggest.Haircut >= 1 {
		return fmt.Errorf("suggest.haircut must be in [0, 1), got %v", c.Suggest.Haircut)
	}
	if c.Suggest.TopK <= 0 {
		return fmt.Errorf("suggest.top_k must be positive")
	}
	if c.Suggest.MaxQuantityCap <= 0 {
		return fmt.Errorf("suggest.max_quantity_cap must be positive")
	}
	if c.Filter.MinProfitMargin < 0 || c.Filter.MinFluctuation < 0 || c.Filter.MinROI < 0 {
		return fmt.Errorf("filter thresholds must be non-negative")
	}
	if c.Scorer.Epsilon <= 0 || c.Scorer.Epsilon > 1 {
		return fmt.Errorf("scorer.epsilon must be in (0, 1]")
	}
	if c.Scorer.Gamma <= 0 || c.Scorer.Gamma >= 1 {
		return fmt.Errorf("scorer.gamma must be in (0, 1)")
	}
	return nil
}
