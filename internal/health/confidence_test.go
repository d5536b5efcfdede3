package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

// highConfTrades returns n trades at confidence 0.85, the first wins of them profitable
func highConfTrades(n, wins int) []types.TradeRecord {
	trades := make([]types.TradeRecord, n)
	for i := range trades {
		pnl := -100.0
		if i < wins {
			pnl = 100
		}
		trades[i] = types.TradeRecord{PnL: pnl, ReturnPct: pnl / 10000}.WithConfidence(0.85)
	}
	return trades
}

func TestRecommendedConfidenceThreshold(t *testing.T) {
	tests := []struct {
		name   string
		trades []types.TradeRecord
		want   float64
	}{
		{"no history", nil, 0.60},
		{"too few high-confidence trades", highConfTrades(19, 0), 0.60},
		{"healthy win rate", highConfTrades(20, 10), 0.60},
		{"exactly at the bar", highConfTrades(20, 9), 0.60},
		{"one step short", highConfTrades(20, 8), 0.65},
		{"two steps short", highConfTrades(20, 7), 0.70},
		{"capped", highConfTrades(20, 0), 0.90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHealth(tt.trades, nil)
			got := h.RecommendedConfidenceThreshold()
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, DefaultConfidenceThreshold)
		})
	}
}

func TestUpdateConfidenceThresholdRatchetsUp(t *testing.T) {
	h := newTestHealth(highConfTrades(20, 8), nil)

	assert.InDelta(t, 0.65, h.UpdateConfidenceThreshold(), 1e-9)
	assert.InDelta(t, 0.70, h.UpdateConfidenceThreshold(), 1e-9)

	// recovery recommends the default but the bar is not lowered
	h.UpdateTrades(highConfTrades(20, 20))
	assert.InDelta(t, 0.60, h.RecommendedConfidenceThreshold(), 1e-9)
	assert.InDelta(t, 0.70, h.UpdateConfidenceThreshold(), 1e-9)
	assert.InDelta(t, 0.70, h.ConfidenceThreshold(), 1e-9)
}

func TestUpdateConfidenceThresholdNeverExceedsCap(t *testing.T) {
	h := newTestHealth(highConfTrades(25, 0), nil)
	for i := 0; i < 5; i++ {
		h.UpdateConfidenceThreshold()
	}
	assert.InDelta(t, 0.90, h.ConfidenceThreshold(), 1e-9)
}
