package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/strategy-guard/internal/config"
	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
	"github.com/ducminhle1904/strategy-guard/internal/logger"
	"github.com/ducminhle1904/strategy-guard/internal/monitoring"
	"github.com/ducminhle1904/strategy-guard/internal/portfolio"
	"github.com/ducminhle1904/strategy-guard/internal/risk"
	"github.com/ducminhle1904/strategy-guard/internal/state"
	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Default()
	cfg.StrategyID = "test-strategy"

	h := health.NewStrategyHealth(nil, nil, health.WithPolicy(cfg.Policy))
	return &app{
		cfg:    cfg,
		log:    logger.Nop(),
		health: h,
		adapter: integration.NewHealthIntegrationAdapter(cfg.StrategyID, h,
			risk.NewPortfolioGuard(cfg.Guard.InitialCapital, cfg.Guard.GuardConfig),
			portfolio.NewSectorAllocator(cfg.Sector), nil),
		store: state.NewFileStore(nil).WithoutBackup(),
		key:   filepath.Join(t.TempDir(), "health.json"),
	}
}

func writeFeed(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouterBeforeFirstCheck(t *testing.T) {
	a := newTestApp(t)
	router := newRouter(a.adapter, monitoring.NewHealthChecker(), monitoring.NewMetrics())

	assert.Equal(t, http.StatusServiceUnavailable, get(t, router, "/recommendation").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/health").Code)
	assert.Equal(t, http.StatusOK, get(t, router, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(t, router, "/unknown").Code)
}

func TestRunTickPublishesAndPersists(t *testing.T) {
	a := newTestApp(t)
	checker := monitoring.NewHealthChecker()
	metrics := monitoring.NewMetrics()
	a.adapter.AddObserver(checker)
	a.adapter.AddObserver(metrics)

	feedFile = writeFeed(t, `{"trades": [{"pnl": 10, "return_pct": 0.01}], "equity": [100000, 100010]}`)
	t.Cleanup(func() { feedFile = "" })

	require.NoError(t, runTick(context.Background(), a, checker, metrics))

	router := newRouter(a.adapter, checker, metrics)
	resp := get(t, router, "/recommendation")
	require.Equal(t, http.StatusOK, resp.Code)

	var rec integration.Recommendation
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rec))
	assert.Equal(t, "test-strategy", rec.StrategyID)
	assert.True(t, rec.CanTrade)
	assert.Equal(t, health.StateActive, rec.State)

	assert.Equal(t, "healthy", checker.Status().Status)
	assert.FileExists(t, a.key)

	restored := health.NewStrategyHealth(nil, nil)
	require.NoError(t, restored.Restore(context.Background(), a.store, a.key))
	assert.Equal(t, health.StateActive, restored.State())
}

func TestRunTickRecordsFeedErrors(t *testing.T) {
	a := newTestApp(t)
	checker := monitoring.NewHealthChecker()
	metrics := monitoring.NewMetrics()

	feedFile = writeFeed(t, `{"trades": [{"pnl": 1, "entry_confidence": 1.5}]}`)
	t.Cleanup(func() { feedFile = "" })

	err := runTick(context.Background(), a, checker, metrics)
	require.Error(t, err)

	status := checker.Status()
	assert.Equal(t, "unhealthy", status.Status)
	assert.Len(t, status.Errors, 1)

	// a good tick clears the error
	feedFile = writeFeed(t, `{"trades": [], "equity": []}`)
	require.NoError(t, runTick(context.Background(), a, checker, metrics))
	assert.Empty(t, checker.Status().Errors)
}

func TestResetDrawdownKeepsState(t *testing.T) {
	losing := make([]types.TradeRecord, 7)
	for i := range losing {
		losing[i] = types.TradeRecord{PnL: -100, ReturnPct: -0.01}
	}

	tests := []struct {
		name  string
		feed  *integration.FileFeed
		force health.HealthState
		state health.HealthState
	}{
		{
			name:  "paused by losses in deep drawdown",
			feed:  &integration.FileFeed{Trades: losing, Equity: []float64{100000, 50000}},
			state: health.StatePaused,
		},
		{
			name:  "manually degraded",
			feed:  &integration.FileFeed{Equity: []float64{100000, 55000}},
			force: health.StateDegraded,
			state: health.StateDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a := newTestApp(t)
			a.adapter.CheckStrategyHealth(tt.feed)
			if tt.force != "" {
				a.adapter.WithHealth(func(h *health.StrategyHealth) { h.ForceState(tt.force, "review") })
			}
			require.NoError(t, a.persist(ctx))

			// a fresh process restores the snapshot with no trades loaded
			b := newTestApp(t)
			b.key = a.key
			require.NoError(t, b.restore(ctx))
			require.Equal(t, tt.state, b.health.State())
			require.Less(t, b.health.MaxDrawdown(), -0.40)

			state, _ := resetDrawdown(b)
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.state, b.health.State())
			assert.Equal(t, 0.0, b.health.MaxDrawdown())
			assert.False(t, b.health.IsPaperOnlyMode())

			require.NoError(t, b.persist(ctx))
			restored := health.NewStrategyHealth(nil, nil)
			require.NoError(t, restored.Restore(ctx, b.store, b.key))
			assert.Equal(t, tt.state, restored.State())
			assert.False(t, restored.IsPaperOnlyMode())
		})
	}
}

func TestRestoreInvalidSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		ignore  bool
		wantErr bool
	}{
		{"missing snapshot starts active", "", false, false},
		{"corrupt snapshot stops startup", `{"state": `, false, true},
		{"unknown state stops startup", `{"state": "HALTED"}`, false, true},
		{"corrupt snapshot ignored on request", `{"state": `, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			if tt.doc != "" {
				require.NoError(t, os.WriteFile(a.key, []byte(tt.doc), 0644))
			}
			ignoreState = tt.ignore
			t.Cleanup(func() { ignoreState = false })

			err := a.restore(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), a.key)
				assert.Contains(t, err.Error(), "--ignore-state")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, health.StateActive, a.health.State())
		})
	}
}
