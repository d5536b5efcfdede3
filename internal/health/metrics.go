package health

import (
	"math"

	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

// RollingWindows are the trailing trade counts reported by AllRollingWindows
var RollingWindows = []int{30, 50, 100}

// WindowMetrics summarizes a trailing slice of trades
type WindowMetrics struct {
	Window        int     `json:"window"`
	Trades        int     `json:"trades"`
	WinRate       float64 `json:"win_rate"` // percent
	TotalPnL      float64 `json:"total_pnl"`
	Expectancy    float64 `json:"expectancy"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"` // positive magnitude
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"` // positive magnitude
	ProfitFactor  float64 `json:"profit_factor"`
	RollingSharpe float64 `json:"rolling_sharpe"`
}

// HasInfiniteProfitFactor reports a window with profit and no losses
func (m WindowMetrics) HasInfiniteProfitFactor() bool {
	return m.GrossLoss == 0 && m.GrossProfit > 0
}

// RollingMetrics computes metrics over the last min(window, len(trades)) trades
func RollingMetrics(trades []types.TradeRecord, window int) WindowMetrics {
	m := WindowMetrics{Window: window}
	if window <= 0 || len(trades) == 0 {
		return m
	}

	recent := trades
	if len(trades) > window {
		recent = trades[len(trades)-window:]
	}
	m.Trades = len(recent)

	var wins, losses int
	returns := make([]float64, 0, len(recent))
	for _, t := range recent {
		m.TotalPnL += t.PnL
		returns = append(returns, t.ReturnPct)
		if t.IsWin() {
			wins++
			m.GrossProfit += t.PnL
		} else {
			losses++
			m.GrossLoss += -t.PnL
		}
	}

	winRate := float64(wins) / float64(m.Trades)
	m.WinRate = winRate * 100

	if wins > 0 {
		m.AvgWin = m.GrossProfit / float64(wins)
	}
	if losses > 0 {
		m.AvgLoss = m.GrossLoss / float64(losses)
	}
	m.Expectancy = winRate*m.AvgWin - (1-winRate)*m.AvgLoss

	if m.GrossLoss > 0 {
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	}
	m.RollingSharpe = annualizedSharpe(returns)

	return m
}

// AllRollingWindows computes RollingMetrics for every window in RollingWindows
func AllRollingWindows(trades []types.TradeRecord) map[int]WindowMetrics {
	out := make(map[int]WindowMetrics, len(RollingWindows))
	for _, w := range RollingWindows {
		out[w] = RollingMetrics(trades, w)
	}
	return out
}

// annualizedSharpe is mean/stddev of per-trade returns scaled by sqrt(252),
// zero when there is no dispersion to measure
func annualizedSharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std < 1e-12 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}

// ConfidenceStats summarizes trades entered at or above a confidence cutoff
type ConfidenceStats struct {
	Cutoff  float64 `json:"cutoff"`
	Count   int     `json:"count"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"` // percent, 0 when Count is 0
}

// HighConfidenceStatsOf counts trades whose recorded entry confidence is at
// least cutoff. Trades without a recorded confidence are skipped.
func HighConfidenceStatsOf(trades []types.TradeRecord, cutoff float64) ConfidenceStats {
	stats := ConfidenceStats{Cutoff: cutoff}
	for _, t := range trades {
		c, ok := t.Confidence()
		if !ok || c < cutoff {
			continue
		}
		stats.Count++
		if t.IsWin() {
			stats.Wins++
		}
	}
	if stats.Count > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Count) * 100
	}
	return stats
}

// ConsecutiveLossesOf counts the losing trades at the end of the history
func ConsecutiveLossesOf(trades []types.TradeRecord) int {
	n := 0
	for i := len(trades) - 1; i >= 0; i-- {
		if !trades[i].IsLoss() {
			break
		}
		n++
	}
	return n
}
