package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/health"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, health.DefaultPolicy(), cfg.Policy)
	assert.Equal(t, -0.25, cfg.Guard.CloseDrawdown)
	assert.Equal(t, 0.40, cfg.Sector.MaxConcentration)
	assert.Equal(t, BackendFile, cfg.Persistence.Backend)
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	path := writeFile(t, "guard.yaml", `
strategy_id: momentum-btc
policy:
  max_consecutive_losses: 5
  max_drawdown_paper_only: -0.30
guard:
  initial_capital: 250000
  reduce_drawdown: -0.10
sector:
  max_concentration: 0.25
persistence:
  backend: redis
  redis_addr: redis:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "momentum-btc", cfg.StrategyID)
	assert.Equal(t, 5, cfg.Policy.MaxConsecutiveLosses)
	assert.Equal(t, -0.30, cfg.Policy.MaxDrawdownPaperOnly)
	assert.Equal(t, 50, cfg.Policy.ExpectancyWindow, "unset keys keep defaults")
	assert.Equal(t, 250000.0, cfg.Guard.InitialCapital)
	assert.Equal(t, -0.10, cfg.Guard.ReduceDrawdown)
	assert.Equal(t, -0.25, cfg.Guard.CloseDrawdown)
	assert.Equal(t, 0.25, cfg.Sector.MaxConcentration)
	assert.Equal(t, BackendRedis, cfg.Persistence.Backend)
	assert.Equal(t, "redis:6379", cfg.Persistence.RedisAddr)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("GUARD_STRATEGY_ID", "from-env")
	t.Setenv("GUARD_STATE_BACKEND", "REDIS")
	t.Setenv("GUARD_REDIS_DB", "3")
	t.Setenv("GUARD_MAX_DD_PAPER_ONLY", "-0.35")
	t.Setenv("GUARD_MAX_CONCENTRATION", "0.3")
	t.Setenv("GUARD_METRICS_ADDR", ":9100")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.StrategyID)
	assert.Equal(t, BackendRedis, cfg.Persistence.Backend)
	assert.Equal(t, 3, cfg.Persistence.RedisDB)
	assert.Equal(t, -0.35, cfg.Policy.MaxDrawdownPaperOnly)
	assert.Equal(t, 0.3, cfg.Sector.MaxConcentration)
	assert.Equal(t, ":9100", cfg.Monitoring.Addr)
}

func TestLoadEnvironmentBadNumber(t *testing.T) {
	t.Setenv("GUARD_REDIS_DB", "three")

	_, err := Load("")
	assert.Equal(t, guarderrors.ErrorCategoryConfiguration, guarderrors.CategoryOf(err))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "policy: [unclosed")
	_, err := Load(path)
	assert.Equal(t, guarderrors.ErrorCategoryConfiguration, guarderrors.CategoryOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty strategy", func(c *Config) { c.StrategyID = "" }},
		{"reduce below close", func(c *Config) { c.Guard.ReduceDrawdown = -0.30 }},
		{"positive close", func(c *Config) { c.Guard.CloseDrawdown = 0.1 }},
		{"zero concentration", func(c *Config) { c.Sector.MaxConcentration = 0 }},
		{"concentration above one", func(c *Config) { c.Sector.MaxConcentration = 1.5 }},
		{"default confidence zero", func(c *Config) { c.Policy.DefaultConfidenceThreshold = 0 }},
		{"cap below default", func(c *Config) { c.Policy.MaxConfidenceThreshold = 0.5 }},
		{"positive paper-only drawdown", func(c *Config) { c.Policy.MaxDrawdownPaperOnly = 0.4 }},
		{"win rate as fraction", func(c *Config) { c.Policy.HighConfidenceMinWinRate = 450 }},
		{"no consecutive limit", func(c *Config) { c.Policy.MaxConsecutiveLosses = 0 }},
		{"unknown backend", func(c *Config) { c.Persistence.Backend = "s3" }},
		{"file without path", func(c *Config) { c.Persistence.Path = "" }},
		{"telegram token without chat", func(c *Config) { c.Notifications.TelegramToken = "123:abc" }},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, guarderrors.ErrorCategoryConfiguration, guarderrors.CategoryOf(err))
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "GUARD_TEST_ONLY_VAR=loaded\n")
	t.Setenv("GUARD_TEST_ONLY_VAR", "")
	os.Unsetenv("GUARD_TEST_ONLY_VAR")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("GUARD_TEST_ONLY_VAR"))

	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadTelegramFromEnvironment(t *testing.T) {
	t.Setenv("GUARD_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("GUARD_TELEGRAM_CHAT_ID", "-100200")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Notifications.Enabled())
	assert.Equal(t, "-100200", cfg.Notifications.TelegramChatID)
	assert.False(t, Default().Notifications.Enabled())
}
