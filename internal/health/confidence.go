package health

import "math"

// ConfidenceThreshold returns the entry confidence bar currently in force
func (h *StrategyHealth) ConfidenceThreshold() float64 {
	return h.confidenceThreshold
}

// RecommendedConfidenceThreshold suggests an entry confidence bar from the
// realized performance of high-confidence trades. With too few samples or a
// healthy win rate it returns the default; otherwise it adds one step per
// step-sized shortfall in win rate, capped at the policy maximum.
func (h *StrategyHealth) RecommendedConfidenceThreshold() float64 {
	p := h.policy
	hc := h.HighConfidenceStats()

	if hc.Count < p.HighConfidenceMinTrades || hc.WinRate >= p.HighConfidenceMinWinRate {
		return p.DefaultConfidenceThreshold
	}

	base := math.Max(h.confidenceThreshold, p.DefaultConfidenceThreshold)
	if p.ConfidenceStep <= 0 {
		return round2(math.Min(p.MaxConfidenceThreshold, base))
	}

	gap := (p.HighConfidenceMinWinRate - hc.WinRate) / 100
	steps := math.Max(1, math.Floor(gap/p.ConfidenceStep+1e-9))
	return round2(math.Min(p.MaxConfidenceThreshold, base+p.ConfidenceStep*steps))
}

// UpdateConfidenceThreshold applies the recommendation when it raises the
// bar. The threshold never moves down automatically.
func (h *StrategyHealth) UpdateConfidenceThreshold() float64 {
	recommended := h.RecommendedConfidenceThreshold()
	if recommended > h.confidenceThreshold {
		h.logger.Info("Confidence threshold raised %.2f -> %.2f", h.confidenceThreshold, recommended)
		h.confidenceThreshold = recommended
	}
	return h.confidenceThreshold
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
