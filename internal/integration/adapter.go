package integration

import (
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/logger"
	"github.com/ducminhle1904/strategy-guard/internal/portfolio"
	"github.com/ducminhle1904/strategy-guard/internal/risk"
	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

// PortfolioSource supplies the full trade history and equity curve on
// every check
type PortfolioSource interface {
	ClosedTrades() []types.TradeRecord
	EquityCurve() []float64
}

// Recommendation is what the execution loop acts on after a check
type Recommendation struct {
	StrategyID             string                    `json:"strategy_id"`
	CanTrade               bool                      `json:"can_trade"`
	CanLiveTrade           bool                      `json:"can_live_trade"`
	PaperOnlyMode          bool                      `json:"paper_only_mode"`
	Message                string                    `json:"message"`
	State                  health.HealthState        `json:"state"`
	Reason                 health.InvalidationReason `json:"reason"`
	ConfidenceThreshold    float64                   `json:"confidence_threshold"`
	PositionSizeMultiplier float64                   `json:"position_size_multiplier"`
	MaxDrawdown            float64                   `json:"max_drawdown"`
	ConsecutiveLosses      int                       `json:"consecutive_losses"`
	GuardAction            risk.GuardAction          `json:"guard_action"`
	GuardMultiplier        float64                   `json:"guard_multiplier"`
	GuardDrawdown          float64                   `json:"guard_drawdown"`
	CheckedAt              time.Time                 `json:"checked_at"`
}

// Observer receives every recommendation produced by a check
type Observer interface {
	Observe(rec Recommendation)
}

// TransitionObserver is implemented by observers that also want health
// state changes. It runs while the adapter is locked and must not call back
// into the adapter.
type TransitionObserver interface {
	ObserveTransition(strategyID string, t health.StateTransition)
}

// HealthIntegrationAdapter connects one strategy's StrategyHealth with the
// portfolio guard and sector allocator. The guard and allocator are
// optional and may be shared between adapters. The adapter serializes
// access to its StrategyHealth and is safe for concurrent use.
type HealthIntegrationAdapter struct {
	strategyID string
	health     *health.StrategyHealth
	guard      *risk.PortfolioGuard
	allocator  *portfolio.SectorAllocator
	logger     *logger.Logger

	observers []Observer
	last      Recommendation
	checked   bool
	mutex     sync.Mutex
}

// NewHealthIntegrationAdapter wires the components for strategyID. A nil
// StrategyHealth is replaced by a fresh monitor with the default policy.
func NewHealthIntegrationAdapter(
	strategyID string,
	h *health.StrategyHealth,
	guard *risk.PortfolioGuard,
	allocator *portfolio.SectorAllocator,
	log *logger.Logger,
) *HealthIntegrationAdapter {
	log = logger.OrNop(log).With("strategy", strategyID)
	if h == nil {
		h = health.NewStrategyHealth(nil, nil, health.WithLogger(log))
	}

	a := &HealthIntegrationAdapter{
		strategyID: strategyID,
		health:     h,
		guard:      guard,
		allocator:  allocator,
		logger:     log,
	}
	h.OnTransition(a.notifyTransition)
	return a
}

// AddObserver registers o for recommendations and, if it implements
// TransitionObserver, for state transitions
func (a *HealthIntegrationAdapter) AddObserver(o Observer) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.observers = append(a.observers, o)
}

// StrategyID returns the strategy this adapter gates
func (a *HealthIntegrationAdapter) StrategyID() string {
	return a.strategyID
}

// WithHealth runs fn with exclusive access to the underlying monitor
func (a *HealthIntegrationAdapter) WithHealth(fn func(h *health.StrategyHealth)) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	fn(a.health)
}

// CheckStrategyHealth refreshes the monitor from src, evaluates the rules
// and the portfolio guard, and returns the combined recommendation.
func (a *HealthIntegrationAdapter) CheckStrategyHealth(src PortfolioSource) (bool, string, Recommendation) {
	a.mutex.Lock()

	curve := src.EquityCurve()
	a.health.SetEquityCurve(curve)
	verdict := a.health.UpdateTrades(src.ClosedTrades())
	threshold := a.health.UpdateConfidenceThreshold()

	decision := risk.GuardDecision{Action: risk.GuardActionNormal, Multiplier: 1.0}
	if a.guard != nil {
		a.guard.ReplayCapital(curve)
		decision = a.guard.CheckDrawdownLimit()
	}

	state, stateReason := a.health.GetState()
	rec := Recommendation{
		StrategyID:             a.strategyID,
		CanTrade:               a.health.CanTrade() && !decision.Action.BlocksEntries(),
		CanLiveTrade:           a.health.CanLiveTrade() && !decision.Action.BlocksEntries(),
		PaperOnlyMode:          a.health.IsPaperOnlyMode(),
		State:                  state,
		Reason:                 a.health.ReasonCode(),
		ConfidenceThreshold:    threshold,
		PositionSizeMultiplier: a.health.PositionSizeMultiplier() * decision.Multiplier,
		MaxDrawdown:            a.health.MaxDrawdown(),
		ConsecutiveLosses:      a.health.ConsecutiveLosses(),
		GuardAction:            decision.Action,
		GuardMultiplier:        decision.Multiplier,
		GuardDrawdown:          decision.Drawdown,
		CheckedAt:              time.Now(),
	}
	rec.Message = composeMessage(rec, stateReason, decision)

	a.last = rec
	a.checked = true
	observers := append([]Observer(nil), a.observers...)
	a.mutex.Unlock()

	if !rec.CanTrade {
		a.logger.Warning("Trading blocked: %s", rec.Message)
	} else if verdict.State != health.StateActive || decision.Action != risk.GuardActionNormal {
		a.logger.Info("Trading restricted: %s", rec.Message)
	}

	for _, o := range observers {
		o.Observe(rec)
	}
	return rec.CanTrade, rec.Message, rec
}

func composeMessage(rec Recommendation, stateReason string, decision risk.GuardDecision) string {
	if !rec.State.CanTrade() {
		return fmt.Sprintf("Strategy %s: %s", rec.State, stateReason)
	}
	if decision.Action.BlocksEntries() {
		return fmt.Sprintf("Portfolio guard %s: %s", decision.Action, decision.Reason)
	}

	msg := fmt.Sprintf("Strategy %s: %s", rec.State, stateReason)
	if stateReason == "" {
		msg = fmt.Sprintf("Strategy %s", rec.State)
	}
	if decision.Action != risk.GuardActionNormal {
		msg += fmt.Sprintf("; portfolio guard %s: %s", decision.Action, decision.Reason)
	}
	return msg
}

// LastRecommendation returns the result of the most recent check and false
// if no check has run yet
func (a *HealthIntegrationAdapter) LastRecommendation() (Recommendation, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.last, a.checked
}

// SizeEntry scales a proposed position by the last recommendation and then
// clamps it to the sector's concentration headroom. Before the first check,
// or while trading is blocked, it returns 0.
func (a *HealthIntegrationAdapter) SizeEntry(sector string, proposedSize float64) float64 {
	a.mutex.Lock()
	rec, checked := a.last, a.checked
	a.mutex.Unlock()

	if !checked || !rec.CanTrade || proposedSize <= 0 {
		return 0
	}

	size := proposedSize * rec.PositionSizeMultiplier
	if a.allocator != nil && sector != "" {
		size = a.allocator.CanAddPosition(sector, size)
	}
	return size
}

// RecordEntry books a filled entry against the sector allocator
func (a *HealthIntegrationAdapter) RecordEntry(sector string, size float64) {
	if a.allocator == nil || sector == "" {
		return
	}
	a.allocator.UpdateAllocation(sector, size)
}

// RecordExit releases a closed position from the sector allocator
func (a *HealthIntegrationAdapter) RecordExit(sector string, size float64) {
	if a.allocator == nil || sector == "" {
		return
	}
	a.allocator.ReleaseAllocation(sector, size)
}

// called from inside StrategyHealth, with a.mutex held by the caller
func (a *HealthIntegrationAdapter) notifyTransition(t health.StateTransition) {
	for _, o := range a.observers {
		if to, ok := o.(TransitionObserver); ok {
			to.ObserveTransition(a.strategyID, t)
		}
	}
}
