package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/portfolio"
	"github.com/ducminhle1904/strategy-guard/internal/risk"
)

// Persistence backends
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config is the complete guard configuration
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	StrategyID  string `yaml:"strategy_id"`

	Policy        health.Policy          `yaml:"policy"`
	Guard         GuardConfig            `yaml:"guard"`
	Sector        portfolio.SectorConfig `yaml:"sector"`
	Persistence   PersistenceConfig      `yaml:"persistence"`
	Monitoring    MonitoringConfig       `yaml:"monitoring"`
	Notifications NotificationConfig     `yaml:"notifications"`
}

// GuardConfig is the portfolio guard policy plus the capital it starts from
type GuardConfig struct {
	InitialCapital   float64 `yaml:"initial_capital"`
	risk.GuardConfig `yaml:",inline"`
}

// PersistenceConfig selects where health snapshots are kept
type PersistenceConfig struct {
	Backend       string `yaml:"backend"` // file or redis
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
}

// MonitoringConfig holds the HTTP listener for /health and /metrics
type MonitoringConfig struct {
	Addr string `yaml:"addr"`
}

// NotificationConfig enables Telegram alerts on state transitions. The
// token is normally supplied through GUARD_TELEGRAM_TOKEN.
type NotificationConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID string `yaml:"telegram_chat_id"`
}

// Enabled reports whether both Telegram settings are present
func (n NotificationConfig) Enabled() bool {
	return n.TelegramToken != "" && n.TelegramChatID != ""
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		StrategyID:  "default",
		Policy:      health.DefaultPolicy(),
		Guard: GuardConfig{
			InitialCapital: 100000,
			GuardConfig:    risk.DefaultGuardConfig(),
		},
		Sector: portfolio.DefaultSectorConfig(),
		Persistence: PersistenceConfig{
			Backend:   BackendFile,
			Path:      "state/strategy_health.json",
			RedisAddr: "localhost:6379",
			KeyPrefix: "strategy-guard:",
		},
		Monitoring: MonitoringConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config over the defaults, applies GUARD_* environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, guarderrors.WrapError(err, guarderrors.ErrorCategoryConfiguration, "config", "Load")
			}
		case os.IsNotExist(err):
		default:
			return nil, guarderrors.WrapError(err, guarderrors.ErrorCategoryConfiguration, "config", "Load")
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GUARD_* environment variables
func (c *Config) ApplyEnv() error {
	c.StrategyID = getEnv("GUARD_STRATEGY_ID", c.StrategyID)
	c.LogLevel = getEnv("GUARD_LOG_LEVEL", c.LogLevel)
	c.Persistence.Path = getEnv("GUARD_STATE_PATH", c.Persistence.Path)
	c.Persistence.Backend = strings.ToLower(getEnv("GUARD_STATE_BACKEND", c.Persistence.Backend))
	c.Persistence.RedisAddr = getEnv("GUARD_REDIS_ADDR", c.Persistence.RedisAddr)
	c.Persistence.RedisPassword = getEnv("GUARD_REDIS_PASSWORD", c.Persistence.RedisPassword)
	c.Monitoring.Addr = getEnv("GUARD_METRICS_ADDR", c.Monitoring.Addr)
	c.Notifications.TelegramToken = getEnv("GUARD_TELEGRAM_TOKEN", c.Notifications.TelegramToken)
	c.Notifications.TelegramChatID = getEnv("GUARD_TELEGRAM_CHAT_ID", c.Notifications.TelegramChatID)

	var err error
	if c.Persistence.RedisDB, err = getEnvInt("GUARD_REDIS_DB", c.Persistence.RedisDB); err != nil {
		return err
	}
	if c.Policy.MaxDrawdownPaperOnly, err = getEnvFloat("GUARD_MAX_DD_PAPER_ONLY", c.Policy.MaxDrawdownPaperOnly); err != nil {
		return err
	}
	if c.Sector.MaxConcentration, err = getEnvFloat("GUARD_MAX_CONCENTRATION", c.Sector.MaxConcentration); err != nil {
		return err
	}
	if c.Guard.InitialCapital, err = getEnvFloat("GUARD_INITIAL_CAPITAL", c.Guard.InitialCapital); err != nil {
		return err
	}
	return nil
}

// Validate rejects incoherent settings
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return guarderrors.NewConfigurationError("config", "Validate", fmt.Sprintf(format, args...))
	}

	if c.StrategyID == "" {
		return invalid("strategy_id is required")
	}

	p := c.Policy
	if p.ExpectancyWindow <= 0 || p.ExpectancyMinTrades <= 0 || p.SharpeWindow <= 0 {
		return invalid("rolling windows and sample sizes must be positive")
	}
	if p.HighConfidenceCutoff <= 0 || p.HighConfidenceCutoff > 1 {
		return invalid("high_confidence_cutoff must be in (0, 1], got %v", p.HighConfidenceCutoff)
	}
	if p.HighConfidenceMinWinRate < 0 || p.HighConfidenceMinWinRate > 100 {
		return invalid("high_confidence_min_win_rate is a percentage, got %v", p.HighConfidenceMinWinRate)
	}
	if p.MaxConsecutiveLosses <= 0 {
		return invalid("max_consecutive_losses must be positive")
	}
	if p.MaxDrawdownPaperOnly >= 0 || p.MaxDrawdownPaperOnly < -1 {
		return invalid("max_drawdown_paper_only must be in [-1, 0), got %v", p.MaxDrawdownPaperOnly)
	}
	if p.DefaultConfidenceThreshold <= 0 || p.DefaultConfidenceThreshold > 1 {
		return invalid("default_confidence_threshold must be in (0, 1], got %v", p.DefaultConfidenceThreshold)
	}
	if p.MaxConfidenceThreshold < p.DefaultConfidenceThreshold || p.MaxConfidenceThreshold > 1 {
		return invalid("max_confidence_threshold must be in [default, 1], got %v", p.MaxConfidenceThreshold)
	}
	if p.ConfidenceStep < 0 {
		return invalid("confidence_step must not be negative")
	}
	if p.ReducedSizeMultiplier < 0 || p.ReducedSizeMultiplier > 1 {
		return invalid("reduced_size_multiplier must be in [0, 1]")
	}

	g := c.Guard
	if g.InitialCapital <= 0 {
		return invalid("guard initial_capital must be positive")
	}
	if g.CloseDrawdown >= 0 || g.ReduceDrawdown >= 0 {
		return invalid("guard drawdown thresholds must be negative")
	}
	if g.ReduceDrawdown < g.CloseDrawdown {
		return invalid("guard reduce_drawdown (%v) must be above close_drawdown (%v)", g.ReduceDrawdown, g.CloseDrawdown)
	}
	if g.ReduceMultiplier < 0 || g.ReduceMultiplier > 1 {
		return invalid("guard reduce_multiplier must be in [0, 1]")
	}

	if c.Sector.MaxConcentration <= 0 || c.Sector.MaxConcentration > 1 {
		return invalid("sector max_concentration must be in (0, 1], got %v", c.Sector.MaxConcentration)
	}

	switch c.Persistence.Backend {
	case BackendFile:
		if c.Persistence.Path == "" {
			return invalid("persistence path is required for the file backend")
		}
	case BackendRedis:
		if c.Persistence.RedisAddr == "" {
			return invalid("redis_addr is required for the redis backend")
		}
	default:
		return invalid("unknown persistence backend %q", c.Persistence.Backend)
	}

	if (c.Notifications.TelegramToken == "") != (c.Notifications.TelegramChatID == "") {
		return invalid("telegram_token and telegram_chat_id must be set together")
	}
	return nil
}
