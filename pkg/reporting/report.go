package reporting

import (
	"time"

	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
)

// HealthReport is a point-in-time view of one strategy for operators
type HealthReport struct {
	StrategyID           string                      `json:"strategy_id"`
	GeneratedAt          time.Time                   `json:"generated_at"`
	Summary              health.HealthSummary        `json:"summary"`
	Windows              []health.WindowMetrics      `json:"windows"`
	Regimes              []health.RegimeStats        `json:"regimes"`
	Transitions          []health.StateTransition    `json:"transitions"`
	RecommendedThreshold float64                     `json:"recommended_threshold"`
	Recommendation       *integration.Recommendation `json:"recommendation,omitempty"`
}

// BuildHealthReport collects everything a report shows from h. rec may be nil.
func BuildHealthReport(strategyID string, h *health.StrategyHealth, rec *integration.Recommendation) HealthReport {
	all := h.AllRollingWindows()
	windows := make([]health.WindowMetrics, 0, len(health.RollingWindows))
	for _, w := range health.RollingWindows {
		windows = append(windows, all[w])
	}

	perf := h.RegimePerformance()
	regimes := make([]health.RegimeStats, 0, len(perf))
	for _, name := range health.SortedRegimes(perf) {
		regimes = append(regimes, perf[name])
	}

	return HealthReport{
		StrategyID:           strategyID,
		GeneratedAt:          time.Now(),
		Summary:              h.Summary(),
		Windows:              windows,
		Regimes:              regimes,
		Transitions:          h.Transitions(),
		RecommendedThreshold: h.RecommendedConfidenceThreshold(),
		Recommendation:       rec,
	}
}
