package health

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/state"
	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

// degradedPaperOnly drives a monitor through PAPER_ONLY into DEGRADED with a
// raised confidence threshold
func degradedPaperOnly(t *testing.T) *StrategyHealth {
	t.Helper()
	h := newTestHealth(nil, decayingCurve(30))
	require.Equal(t, StatePaperOnly, h.Evaluate().State)

	trade := types.TradeRecord{PnL: -100, ReturnPct: -0.01}.WithConfidence(0.85)
	require.Equal(t, StateDegraded, h.UpdateTrades(repeatTrade(20, trade)).State)
	h.UpdateConfidenceThreshold()
	return h
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health", "state.json")
	saved := degradedPaperOnly(t)
	require.NoError(t, saved.SaveState(path))

	restored := newTestHealth(nil, nil)
	require.True(t, restored.LoadState(path))

	assert.Equal(t, saved.State(), restored.State())
	assert.Equal(t, saved.ConfidenceThreshold(), restored.ConfidenceThreshold())
	assert.Equal(t, 0.90, restored.ConfidenceThreshold())
	assert.True(t, restored.IsPaperOnlyMode())
	assert.Equal(t, saved.EquityHighWaterMark(), restored.EquityHighWaterMark())
	assert.Equal(t, saved.MaxDrawdown(), restored.MaxDrawdown())
	assert.Equal(t, saved.ReasonCode(), restored.ReasonCode())

	_, savedReason := saved.GetState()
	_, restoredReason := restored.GetState()
	assert.Equal(t, savedReason, restoredReason)

	require.Len(t, restored.Transitions(), 2)
	for i, tr := range saved.Transitions() {
		got := restored.Transitions()[i]
		assert.Equal(t, tr.From, got.From)
		assert.Equal(t, tr.To, got.To)
		assert.Equal(t, tr.Code, got.Code)
		assert.True(t, tr.Timestamp.Equal(got.Timestamp))
	}
}

func TestSnapshotFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, degradedPaperOnly(t).SaveState(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{
		"state", "current_confidence_threshold", "paper_only_mode",
		"equity_high_water_mark", "max_drawdown", "transition_log", "equity_points_seen",
	} {
		assert.Contains(t, doc, key)
	}
	assert.Equal(t, "DEGRADED", doc["state"])
	assert.Equal(t, float64(31), doc["equity_points_seen"])

	entry := doc["transition_log"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "ACTIVE", entry["from"])
	assert.Equal(t, "PAPER_ONLY", entry["to"])
	assert.Contains(t, entry, "reason")
	assert.Contains(t, entry, "timestamp")
}

func TestSnapshotOmitsUnsetMaxDrawdownTime(t *testing.T) {
	tests := []struct {
		name    string
		health  *StrategyHealth
		present bool
	}{
		{"no drawdown yet", newTestHealth(nil, nil), false},
		{"flat curve", newTestHealth(nil, []float64{100, 100, 100}), false},
		{"drawdown recorded", newTestHealth(nil, []float64{100, 80}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.health.Snapshot())
			require.NoError(t, err)

			var doc map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &doc))
			if tt.present {
				assert.Contains(t, doc, "max_drawdown_at")
			} else {
				assert.NotContains(t, doc, "max_drawdown_at")
			}
		})
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	h := newTestHealth(nil, nil)

	assert.False(t, h.LoadState(filepath.Join(t.TempDir(), "nope.json")))
	assert.Equal(t, StateActive, h.State())
	assert.Equal(t, DefaultConfidenceThreshold, h.ConfidenceThreshold())
}

func TestLoadStateRejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt json", `{"state": "PAUSED", "current_conf`},
		{"unknown state", `{"state": "ZOMBIE", "current_confidence_threshold": 0.7}`},
		{"threshold below default", `{"state": "PAUSED", "current_confidence_threshold": 0.3}`},
		{"positive drawdown", `{"state": "PAUSED", "current_confidence_threshold": 0.7, "max_drawdown": 0.2}`},
		{"future version", `{"version": 99, "state": "PAUSED", "current_confidence_threshold": 0.7}`},
		{"bad transition", `{"state": "PAUSED", "current_confidence_threshold": 0.7,
			"transition_log": [{"from": "ACTIVE", "to": "NAPPING"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			h := newTestHealth(nil, nil)
			h.ForceState(StateDegraded, "before load")

			assert.False(t, h.LoadState(path))
			assert.Equal(t, StateDegraded, h.State())
			assert.Equal(t, DefaultConfidenceThreshold, h.ConfidenceThreshold())
			assert.Len(t, h.Transitions(), 1)
		})
	}
}

func TestRestoreReturnsCategorizedErrors(t *testing.T) {
	store := state.NewFileStore(nil)
	h := newTestHealth(nil, nil)

	err := h.Restore(context.Background(), store, filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, guarderrors.IsNotFound(err))

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"state": "PAUSED", "current_confidence_threshold": 2}`), 0644))
	err = h.Restore(context.Background(), store, path)
	assert.Equal(t, guarderrors.ErrorCategoryValidation, guarderrors.CategoryOf(err))
}

func TestRestoredDrawdownSkipsReplayedCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	curve := []float64{100000, 50000}

	h := newTestHealth(nil, curve)
	require.Equal(t, StatePaperOnly, h.Evaluate().State)
	h.ResetMaxDDTracking()
	require.Equal(t, StateActive, h.Evaluate().State)
	require.NoError(t, h.SaveState(path))

	// a restarted process rebuilds from the same curve, then restores
	restarted := newTestHealth(nil, curve)
	require.True(t, restarted.LoadState(path))
	restarted.SetEquityCurve(curve)

	assert.Equal(t, 0.0, restarted.MaxDrawdown())
	assert.Equal(t, StateActive, restarted.Evaluate().State)
}

func TestPersistToRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := state.NewRedisStoreWithClient(db, "guard:", 0)

	h := newTestHealth(nil, nil)
	h.ForceState(StatePaused, "maintenance")

	data, err := json.MarshalIndent(h.Snapshot(), "", "  ")
	require.NoError(t, err)
	mock.ExpectSet("guard:alpha", data, 0).SetVal("OK")
	mock.ExpectGet("guard:alpha").SetVal(string(data))

	require.NoError(t, h.Persist(context.Background(), store, "alpha"))

	restored := newTestHealth(nil, nil)
	require.NoError(t, restored.Restore(context.Background(), store, "alpha"))
	assert.Equal(t, StatePaused, restored.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}
