package risk

import (
	"fmt"
	"sync"
	"time"
)

// GuardAction is the capital-scaling response to a portfolio drawdown
type GuardAction string

const (
	GuardActionNormal    GuardAction = "NORMAL"
	GuardActionReduceAll GuardAction = "REDUCE_ALL"
	GuardActionCloseAll  GuardAction = "CLOSE_ALL"
)

// BlocksEntries reports whether the action forbids opening new positions
func (a GuardAction) BlocksEntries() bool {
	return a == GuardActionCloseAll
}

// GuardConfig holds the drawdown circuit breaker thresholds
type GuardConfig struct {
	ReduceDrawdown   float64 `json:"reduce_drawdown" yaml:"reduce_drawdown"`     // -15% halves exposure
	CloseDrawdown    float64 `json:"close_drawdown" yaml:"close_drawdown"`       // -25% flattens everything
	ReduceMultiplier float64 `json:"reduce_multiplier" yaml:"reduce_multiplier"` // position scaling while reduced
}

// DefaultGuardConfig returns the default drawdown policy
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		ReduceDrawdown:   -0.15,
		CloseDrawdown:    -0.25,
		ReduceMultiplier: 0.5,
	}
}

// GuardDecision is the outcome of a drawdown check
type GuardDecision struct {
	Action     GuardAction `json:"action"`
	Multiplier float64     `json:"multiplier"`
	Drawdown   float64     `json:"drawdown"`
	Reason     string      `json:"reason,omitempty"`
}

// GuardEvent records a change of guard action
type GuardEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	From      GuardAction `json:"from"`
	To        GuardAction `json:"to"`
	Drawdown  float64     `json:"drawdown"`
	Reason    string      `json:"reason"`
}

// EvaluateDrawdown applies the guard policy to a capital/peak pair
func EvaluateDrawdown(current, peak float64, cfg GuardConfig) GuardDecision {
	dd := 0.0
	if peak > 0 {
		dd = (current - peak) / peak
	}

	switch {
	case dd < cfg.CloseDrawdown:
		return GuardDecision{
			Action:     GuardActionCloseAll,
			Multiplier: 0.0,
			Drawdown:   dd,
			Reason:     fmt.Sprintf("Emergency DD: %.1f%%", dd*100),
		}
	case dd < cfg.ReduceDrawdown:
		return GuardDecision{
			Action:     GuardActionReduceAll,
			Multiplier: cfg.ReduceMultiplier,
			Drawdown:   dd,
			Reason:     fmt.Sprintf("Portfolio DD: %.1f%%", dd*100),
		}
	default:
		return GuardDecision{Action: GuardActionNormal, Multiplier: 1.0, Drawdown: dd}
	}
}

// PortfolioGuard is the portfolio-level drawdown circuit breaker.
// It is safe for concurrent use.
type PortfolioGuard struct {
	config  GuardConfig
	capital float64
	tracker *DrawdownTracker
	seen    int // curve points consumed by ReplayCapital

	lastAction GuardAction
	events     []GuardEvent
	mutex      sync.RWMutex
}

// NewPortfolioGuard creates a guard whose peak starts at initialCapital
func NewPortfolioGuard(initialCapital float64, config GuardConfig) *PortfolioGuard {
	tracker := NewDrawdownTracker()
	tracker.Update(initialCapital)

	return &PortfolioGuard{
		config:     config,
		capital:    initialCapital,
		tracker:    tracker,
		lastAction: GuardActionNormal,
		events:     make([]GuardEvent, 0, 16),
	}
}

// UpdateCapital sets current capital and raises the peak when exceeded
func (g *PortfolioGuard) UpdateCapital(current float64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.capital = current
	g.tracker.Update(current)
}

// ReplayCapital feeds every point of curve the guard has not seen yet, so a
// peak reached between two checks still raises the high-water mark. A curve
// shorter than the one seen before is a restarted series and is fed whole.
func (g *PortfolioGuard) ReplayCapital(curve []float64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	start := g.seen
	if len(curve) < start {
		start = 0
	}
	for _, v := range curve[start:] {
		g.capital = v
		g.tracker.Update(v)
	}
	g.seen = len(curve)
}

// Capital returns the last reported capital
func (g *PortfolioGuard) Capital() float64 {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.capital
}

// PeakCapital returns the capital high-water mark
func (g *PortfolioGuard) PeakCapital() float64 {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.tracker.HighWaterMark()
}

// CalculateDrawdown returns the current drawdown from peak
func (g *PortfolioGuard) CalculateDrawdown() float64 {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return EvaluateDrawdown(g.capital, g.tracker.HighWaterMark(), g.config).Drawdown
}

// CheckDrawdownLimit evaluates the policy and records action changes
func (g *PortfolioGuard) CheckDrawdownLimit() GuardDecision {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	decision := EvaluateDrawdown(g.capital, g.tracker.HighWaterMark(), g.config)
	if decision.Action != g.lastAction {
		g.events = append(g.events, GuardEvent{
			Timestamp: time.Now(),
			From:      g.lastAction,
			To:        decision.Action,
			Drawdown:  decision.Drawdown,
			Reason:    decision.Reason,
		})
		g.lastAction = decision.Action
	}
	return decision
}

// LastAction returns the action of the most recent check
func (g *PortfolioGuard) LastAction() GuardAction {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.lastAction
}

// Events returns a copy of the action change log
func (g *PortfolioGuard) Events() []GuardEvent {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]GuardEvent, len(g.events))
	copy(out, g.events)
	return out
}
