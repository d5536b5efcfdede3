package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/strategy-guard/internal/config"
	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
	"github.com/ducminhle1904/strategy-guard/internal/logger"
	"github.com/ducminhle1904/strategy-guard/internal/portfolio"
	"github.com/ducminhle1904/strategy-guard/internal/risk"
	"github.com/ducminhle1904/strategy-guard/internal/state"
)

var (
	configFile string
	envFile    string
	statePath  string
	strategyID string
	logDir     string

	ignoreState bool
)

var rootCmd = &cobra.Command{
	Use:   "health-monitor",
	Short: "Strategy health gating and portfolio guard",
	Long: `health-monitor evaluates a strategy's closed trades and equity curve
against the invalidation rules and the portfolio drawdown guard, and
persists the resulting health state.

Examples:
  health-monitor check --feed feed.json --save
  health-monitor report --feed feed.json --xlsx
  health-monitor force --to ACTIVE --reason "reviewed"
  health-monitor serve --feed feed.json --addr :8080`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "configs/strategy_guard.yaml", "YAML configuration file")
	flags.StringVar(&envFile, "env", ".env", "Environment file path")
	flags.StringVar(&statePath, "state", "", "Snapshot path (file backend), overrides config")
	flags.StringVar(&strategyID, "strategy", "", "Strategy identifier, overrides config")
	flags.StringVar(&logDir, "log-dir", "", "Also write JSON logs to <dir>/<strategy>_<date>.log")
	flags.BoolVar(&ignoreState, "ignore-state", false, "Start ACTIVE when the saved snapshot cannot be restored")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app is the wired set of components shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	health  *health.StrategyHealth
	adapter *integration.HealthIntegrationAdapter
	store   state.Store
	key     string
	closer  io.Closer
}

// setup loads configuration, builds the components and restores the last
// saved health snapshot if there is one
func setup(ctx context.Context) (*app, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Could not load %s: %v\n", envFile, err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if strategyID != "" {
		cfg.StrategyID = strategyID
	}
	if statePath != "" {
		cfg.Persistence.Path = statePath
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, guarderrors.NewConfigurationError("config", "LogLevel", fmt.Sprintf("unknown log level %q", cfg.LogLevel))
	}
	zerolog.SetGlobalLevel(level)
	log := logger.NewConsole(os.Stderr)
	if logDir != "" {
		if log, err = logger.NewFileLogger(logDir, cfg.StrategyID, os.Stderr); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, log: log}
	if err := a.openStore(ctx); err != nil {
		log.Close()
		return nil, err
	}

	a.health = health.NewStrategyHealth(nil, nil,
		health.WithPolicy(cfg.Policy),
		health.WithLogger(log.With("strategy", cfg.StrategyID)),
	)
	if err := a.restore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	guard := risk.NewPortfolioGuard(cfg.Guard.InitialCapital, cfg.Guard.GuardConfig)
	allocator := portfolio.NewSectorAllocator(cfg.Sector)
	a.adapter = integration.NewHealthIntegrationAdapter(cfg.StrategyID, a.health, guard, allocator, log)
	return a, nil
}

// restore loads the saved snapshot into a.health. A missing snapshot is not
// an error. An unreadable or invalid one stops startup unless --ignore-state
// is set, in which case the monitor starts ACTIVE and the next save
// overwrites it.
func (a *app) restore(ctx context.Context) error {
	err := a.health.Restore(ctx, a.store, a.key)
	switch {
	case err == nil:
		return nil
	case guarderrors.IsNotFound(err):
		a.log.LogWarning("Restore", "no saved state for %s, starting ACTIVE", a.cfg.StrategyID)
		return nil
	case ignoreState:
		a.log.LogWarning("Restore", "ignoring snapshot %s (%v), starting ACTIVE", a.key, err)
		return nil
	default:
		return fmt.Errorf("restore snapshot %s: %w (fix or remove it, or rerun with --ignore-state)", a.key, err)
	}
}

func (a *app) openStore(ctx context.Context) error {
	p := a.cfg.Persistence
	switch p.Backend {
	case config.BackendRedis:
		rs, err := state.NewRedisStore(ctx, state.RedisConfig{
			Addr:      p.RedisAddr,
			Password:  p.RedisPassword,
			DB:        p.RedisDB,
			KeyPrefix: p.KeyPrefix,
		})
		if err != nil {
			return err
		}
		a.store, a.closer = rs, rs
		a.key = a.cfg.StrategyID + ":health"
	default:
		a.store = state.NewFileStore(a.log)
		a.key = p.Path
	}
	return nil
}

// persist saves the current health snapshot
func (a *app) persist(ctx context.Context) error {
	var err error
	a.adapter.WithHealth(func(h *health.StrategyHealth) {
		err = h.Persist(ctx, a.store, a.key)
	})
	if err != nil {
		a.log.LogError("Persist", err)
		return err
	}
	a.log.Info("State saved to %s", a.key)
	return nil
}

func (a *app) Close() error {
	var err error
	if a.closer != nil {
		err = a.closer.Close()
		a.closer = nil
	}
	if cerr := a.log.Close(); err == nil {
		err = cerr
	}
	return err
}
