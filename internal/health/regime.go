package health

import (
	"fmt"
	"sort"

	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

// UnknownRegime groups trades that carry no regime label
const UnknownRegime = "Unknown"

// RegimeEdge grades a regime's historical performance
type RegimeEdge string

const (
	EdgeStrong RegimeEdge = "STRONG" // profitable with a win rate above 50%
	EdgeWeak   RegimeEdge = "WEAK"   // profitable only
	EdgeNone   RegimeEdge = "NONE"
)

// RegimeStats aggregates trades closed under one market regime
type RegimeStats struct {
	Regime       string     `json:"regime"`
	Trades       int        `json:"trades"`
	Wins         int        `json:"wins"`
	WinRate      float64    `json:"win_rate"` // percent
	TotalPnL     float64    `json:"total_pnl"`
	AvgReturnPct float64    `json:"avg_return_pct"`
	Edge         RegimeEdge `json:"edge"`
}

// RegimeRecommendation is the trading advice for a single regime
type RegimeRecommendation struct {
	Regime            string  `json:"regime"`
	ShouldSkip        bool    `json:"should_skip"`
	Reason            string  `json:"reason"`
	HistoricalTrades  int     `json:"historical_trades"`
	HistoricalWinRate float64 `json:"historical_win_rate"`
	HistoricalPnL     float64 `json:"historical_pnl"`
}

// Default thresholds for ShouldSkipRegime
const (
	DefaultRegimeMinTrades  = 10
	DefaultRegimeMinWinRate = 40.0
)

// RegimePerformance groups the trade history by regime
func (h *StrategyHealth) RegimePerformance() map[string]RegimeStats {
	return RegimePerformanceOf(h.trades)
}

// RegimePerformanceOf groups trades by regime label
func RegimePerformanceOf(trades []types.TradeRecord) map[string]RegimeStats {
	out := make(map[string]RegimeStats)
	returns := make(map[string]float64)

	for _, t := range trades {
		regime := t.Regime
		if regime == "" {
			regime = UnknownRegime
		}
		s := out[regime]
		s.Regime = regime
		s.Trades++
		s.TotalPnL += t.PnL
		if t.IsWin() {
			s.Wins++
		}
		returns[regime] += t.ReturnPct
		out[regime] = s
	}

	for regime, s := range out {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
		s.AvgReturnPct = returns[regime] / float64(s.Trades) * 100
		switch {
		case s.TotalPnL > 0 && s.WinRate > 50:
			s.Edge = EdgeStrong
		case s.TotalPnL > 0:
			s.Edge = EdgeWeak
		default:
			s.Edge = EdgeNone
		}
		out[regime] = s
	}
	return out
}

// SortedRegimes returns the regime names of perf in lexical order
func SortedRegimes(perf map[string]RegimeStats) []string {
	names := make([]string, 0, len(perf))
	for name := range perf {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShouldSkipRegime reports whether new entries should be skipped in regime.
// Regimes with fewer than minTrades trades are never skipped.
func (h *StrategyHealth) ShouldSkipRegime(regime string, minTrades int, minWinRate float64) (bool, string) {
	stats, ok := h.RegimePerformance()[regime]
	if !ok {
		return false, fmt.Sprintf("New regime: %s", regime)
	}
	if stats.Trades < minTrades {
		return false, fmt.Sprintf("Insufficient data: %d < %d trades", stats.Trades, minTrades)
	}
	if stats.WinRate < minWinRate {
		return true, fmt.Sprintf("Low win rate: %.1f%% < %.1f%% (regime: %s)", stats.WinRate, minWinRate, regime)
	}
	if stats.TotalPnL < 0 {
		return true, fmt.Sprintf("Negative PnL: %.2f (regime: %s)", stats.TotalPnL, regime)
	}
	return false, fmt.Sprintf("Regime OK: %s", regime)
}

// RegimeRecommendation applies ShouldSkipRegime with the default thresholds
func (h *StrategyHealth) RegimeRecommendation(regime string) RegimeRecommendation {
	skip, reason := h.ShouldSkipRegime(regime, DefaultRegimeMinTrades, DefaultRegimeMinWinRate)
	stats := h.RegimePerformance()[regime]
	return RegimeRecommendation{
		Regime:            regime,
		ShouldSkip:        skip,
		Reason:            reason,
		HistoricalTrades:  stats.Trades,
		HistoricalWinRate: stats.WinRate,
		HistoricalPnL:     stats.TotalPnL,
	}
}
