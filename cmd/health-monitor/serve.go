package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
	"github.com/ducminhle1904/strategy-guard/internal/monitoring"
	"github.com/ducminhle1904/strategy-guard/internal/notifications"
	"github.com/ducminhle1904/strategy-guard/internal/safety"
)

var (
	serveAddr     string
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Re-evaluate the feed periodically and expose /health and /metrics",
	Long: `serve reloads the trade feed on every tick, runs the full health
check, persists the state and publishes it over HTTP:

  GET /health          overall status (503 when trading is halted)
  GET /metrics         Prometheus metrics
  GET /recommendation  last trading recommendation`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&feedFile, "feed", "", "Trade feed JSON file (required)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides config")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", time.Minute, "Feed re-evaluation interval")
	serveCmd.MarkFlagRequired("feed")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	metrics := monitoring.NewMetrics()
	checker := monitoring.NewHealthChecker()
	a.adapter.AddObserver(metrics)
	a.adapter.AddObserver(checker)

	if n := a.cfg.Notifications; n.Enabled() {
		breaker := safety.NewCircuitBreaker("telegram", safety.CircuitBreakerConfig{FailureThreshold: 3, Timeout: 5 * time.Minute})
		breaker.SetStateChangeCallback(func(name string, from, to safety.CircuitBreakerState) {
			a.log.Warning("Circuit breaker %s: %s -> %s", name, from, to)
		})
		notifier := notifications.NewBreakerNotifier(notifications.NewTelegramNotifier(n.TelegramToken, n.TelegramChatID), breaker)
		alerter := notifications.NewTransitionAlerter(notifier, a.log)
		a.adapter.AddObserver(alerter)
		go alerter.Run(ctx)
		a.log.Info("Telegram alerts enabled for chat %s", n.TelegramChatID)
	}

	addr := a.cfg.Monitoring.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           newRouter(a.adapter, checker, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Status("Serving /health and /metrics on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	tick := func() {
		if err := runTick(ctx, a, checker, metrics); err != nil {
			a.log.LogError("Health Check", err)
		}
	}
	tick()

	ticker := time.NewTicker(serveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Status("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return a.persist(shutdownCtx)
		case err, ok := <-serveErr:
			if ok {
				return err
			}
			serveErr = nil
		case <-ticker.C:
			tick()
		}
	}
}

// runTick evaluates the feed once and persists the result. Failures are
// surfaced on /health and counted in metrics by error category.
func runTick(ctx context.Context, a *app, checker *monitoring.HealthChecker, metrics *monitoring.Metrics) error {
	fail := func(err error) error {
		category := string(guarderrors.CategoryOf(err))
		if category == "" {
			category = "UNKNOWN"
		}
		metrics.RecordError(category)
		checker.RecordError(err.Error())
		return err
	}

	if _, err := evaluateFeed(a); err != nil {
		return fail(err)
	}
	if err := a.persist(ctx); err != nil {
		return fail(err)
	}
	checker.ClearErrors()
	return nil
}

func newRouter(adapter *integration.HealthIntegrationAdapter, checker http.Handler, metrics *monitoring.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/health", checker).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/recommendation", func(w http.ResponseWriter, req *http.Request) {
		rec, ok := adapter.LastRecommendation()
		if !ok {
			http.Error(w, "no health check has run yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	}).Methods(http.MethodGet)
	return r
}
