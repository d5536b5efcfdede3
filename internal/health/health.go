package health

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/strategy-guard/internal/logger"
	"github.com/ducminhle1904/strategy-guard/internal/risk"
	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

// StrategyHealth watches a strategy's closed trades and equity curve and
// decides whether it may keep trading.
//
// A StrategyHealth is owned by a single decision loop. It is not safe for
// concurrent use; callers that share one must serialize access, including
// SaveState and LoadState.
type StrategyHealth struct {
	policy Policy
	logger *logger.Logger
	now    func() time.Time

	trades      []types.TradeRecord
	equityCurve []float64
	drawdown    *risk.DrawdownTracker

	state               HealthState
	stateReason         string
	reasonCode          InvalidationReason
	transitions         []StateTransition
	paperOnlyMode       bool
	confidenceThreshold float64

	onTransition func(StateTransition)
}

// Option configures a StrategyHealth
type Option func(*StrategyHealth)

// WithPolicy replaces the default invalidation policy
func WithPolicy(p Policy) Option {
	return func(h *StrategyHealth) { h.policy = p }
}

// WithLogger sets the logger used for transitions and persistence diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(h *StrategyHealth) { h.logger = logger.OrNop(l) }
}

// WithClock overrides the time source used for transition timestamps
func WithClock(now func() time.Time) Option {
	return func(h *StrategyHealth) { h.now = now }
}

// WithTransitionHook registers fn as the transition observer
func WithTransitionHook(fn func(StateTransition)) Option {
	return func(h *StrategyHealth) { h.onTransition = fn }
}

// NewStrategyHealth builds a monitor over the given history. Rules are not
// evaluated until Evaluate, UpdateTrades or a new equity low.
func NewStrategyHealth(trades []types.TradeRecord, equityCurve []float64, opts ...Option) *StrategyHealth {
	h := &StrategyHealth{
		policy:   DefaultPolicy(),
		logger:   logger.Nop(),
		now:      time.Now,
		drawdown: risk.NewDrawdownTracker(),
		state:    StateActive,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.confidenceThreshold = h.policy.DefaultConfidenceThreshold

	h.trades = append([]types.TradeRecord(nil), trades...)
	h.SetEquityCurve(equityCurve)
	return h
}

// OnTransition registers fn to be called after every logged state change
func (h *StrategyHealth) OnTransition(fn func(StateTransition)) {
	h.onTransition = fn
}

// Policy returns the active policy
func (h *StrategyHealth) Policy() Policy {
	return h.policy
}

// UpdateTrades replaces the trade history and re-evaluates the rules
func (h *StrategyHealth) UpdateTrades(trades []types.TradeRecord) Verdict {
	h.trades = append(h.trades[:0:0], trades...)
	return h.Evaluate()
}

// Trades returns a copy of the trade history
func (h *StrategyHealth) Trades() []types.TradeRecord {
	return append([]types.TradeRecord(nil), h.trades...)
}

// SetEquityCurve supplies the full equity series. Only points beyond those
// already folded into the drawdown bookkeeping are consumed. It returns true
// when the curve produced a new maximum drawdown.
func (h *StrategyHealth) SetEquityCurve(curve []float64) bool {
	h.equityCurve = append([]float64(nil), curve...)
	return h.drawdown.Replay(h.equityCurve)
}

// UpdateEquity appends a new equity value. A new drawdown low triggers rule
// evaluation.
func (h *StrategyHealth) UpdateEquity(value float64) {
	h.equityCurve = append(h.equityCurve, value)
	if h.drawdown.Update(value) {
		h.Evaluate()
	}
}

// EquityHighWaterMark returns the highest equity observed
func (h *StrategyHealth) EquityHighWaterMark() float64 {
	return h.drawdown.HighWaterMark()
}

// MaxDrawdown returns the worst drawdown since the last reset, <= 0
func (h *StrategyHealth) MaxDrawdown() float64 {
	return h.drawdown.MaxDrawdown()
}

// CurrentDrawdown returns the drawdown of the latest equity point
func (h *StrategyHealth) CurrentDrawdown() float64 {
	return h.drawdown.CurrentDrawdown()
}

// ResetMaxDDTracking zeroes the max drawdown and leaves paper-only mode.
// The high-water mark is kept.
func (h *StrategyHealth) ResetMaxDDTracking() {
	h.drawdown.Reset()
	h.paperOnlyMode = false
	h.logger.Info("Max drawdown tracking reset (high-water mark %.2f kept)", h.drawdown.HighWaterMark())
}

// CheckInvalidationRules evaluates the rules, most severe first, and returns
// the first match. It does not change the state, but a max drawdown breach
// switches on paper-only mode.
func (h *StrategyHealth) CheckInvalidationRules() Verdict {
	p := h.policy

	m := RollingMetrics(h.trades, p.ExpectancyWindow)
	if m.Trades >= p.ExpectancyMinTrades && m.Expectancy <= p.ExpectancyMin {
		return Verdict{
			State:   StateDisabled,
			Reason:  ReasonExpectancy,
			Message: fmt.Sprintf("Expectancy <= %.2f (last %d: %.2f)", p.ExpectancyMin, m.Trades, m.Expectancy),
		}
	}

	hc := HighConfidenceStatsOf(h.trades, p.HighConfidenceCutoff)
	if hc.Count >= p.HighConfidenceMinTrades && hc.WinRate < p.HighConfidenceMinWinRate {
		return Verdict{
			State:  StateDegraded,
			Reason: ReasonHighConfidence,
			Message: fmt.Sprintf("High-conf win rate < %.0f%% (%.1f%% over %d trades)",
				p.HighConfidenceMinWinRate, hc.WinRate, hc.Count),
		}
	}

	if n := ConsecutiveLossesOf(h.trades); n >= p.MaxConsecutiveLosses {
		return Verdict{
			State:   StatePaused,
			Reason:  ReasonConsecutiveLosses,
			Message: fmt.Sprintf("%d consecutive losses (limit %d)", n, p.MaxConsecutiveLosses),
		}
	}

	if dd := h.drawdown.MaxDrawdown(); dd < p.MaxDrawdownPaperOnly {
		h.paperOnlyMode = true
		return Verdict{
			State:   StatePaperOnly,
			Reason:  ReasonMaxDrawdown,
			Message: fmt.Sprintf("Max DD new low: %.1f%% (limit %.1f%%)", dd*100, p.MaxDrawdownPaperOnly*100),
		}
	}

	if s := RollingMetrics(h.trades, p.SharpeWindow); s.Trades >= p.SharpeMinTrades && s.RollingSharpe < p.RollingSharpeMin {
		return Verdict{
			State:   StateDegraded,
			Reason:  ReasonRollingSharpe,
			Message: fmt.Sprintf("Rolling Sharpe < %.2f (%.2f)", p.RollingSharpeMin, s.RollingSharpe),
		}
	}

	return Verdict{State: StateActive, Reason: ReasonAllRulesPassed, Message: "All rules passed"}
}

// Evaluate checks the rules and applies the resulting state. DISABLED is
// terminal here; only ForceState leaves it.
func (h *StrategyHealth) Evaluate() Verdict {
	v := h.CheckInvalidationRules()

	if h.state == StateDisabled && v.State != StateDisabled {
		return Verdict{State: h.state, Reason: h.reasonCode, Message: h.stateReason}
	}

	h.transition(v.State, v.Reason, v.Message)
	return v
}

// ForceState sets the state unconditionally. Forcing the current state is a
// no-op for the transition log. It returns false for unknown states.
func (h *StrategyHealth) ForceState(to HealthState, reason string) bool {
	if !to.IsValid() {
		h.logger.LogWarning("Force State", "ignoring unknown state %q", string(to))
		return false
	}
	h.transition(to, ReasonManual, "MANUAL: "+reason)
	return true
}

func (h *StrategyHealth) transition(to HealthState, code InvalidationReason, reason string) {
	from := h.state
	h.stateReason = reason
	h.reasonCode = code
	if from == to {
		return
	}

	t := StateTransition{
		From:      from,
		To:        to,
		Code:      code,
		Reason:    reason,
		Timestamp: h.now(),
	}
	h.transitions = append(h.transitions, t)
	h.state = to

	if to.Severity() > from.Severity() {
		h.logger.Warning("Strategy state %s -> %s: %s", from, to, reason)
	} else {
		h.logger.Info("Strategy state %s -> %s: %s", from, to, reason)
	}

	if h.onTransition != nil {
		h.onTransition(t)
	}
}

// State returns the current state
func (h *StrategyHealth) State() HealthState {
	return h.state
}

// GetState returns the current state and the reason it was entered
func (h *StrategyHealth) GetState() (HealthState, string) {
	return h.state, h.stateReason
}

// ReasonCode returns the tag of the rule that produced the current state
func (h *StrategyHealth) ReasonCode() InvalidationReason {
	return h.reasonCode
}

// Transitions returns a copy of the transition log
func (h *StrategyHealth) Transitions() []StateTransition {
	return append([]StateTransition(nil), h.transitions...)
}

func (h *StrategyHealth) CanTrade() bool     { return h.state.CanTrade() }
func (h *StrategyHealth) CanLiveTrade() bool { return h.state.CanLiveTrade() }

// IsPaperOnlyMode reports whether only simulated execution is allowed
func (h *StrategyHealth) IsPaperOnlyMode() bool {
	return h.state == StatePaperOnly || h.paperOnlyMode
}

// ShouldReduceSize reports whether positions should be scaled down
func (h *StrategyHealth) ShouldReduceSize() bool {
	return h.state == StateDegraded || h.state == StatePaperOnly
}

// PositionSizeMultiplier maps the state to a position scaling factor
func (h *StrategyHealth) PositionSizeMultiplier() float64 {
	switch {
	case !h.CanTrade():
		return 0.0
	case h.ShouldReduceSize():
		return h.policy.ReducedSizeMultiplier
	default:
		return 1.0
	}
}

// ConsecutiveLosses returns the length of the current losing streak
func (h *StrategyHealth) ConsecutiveLosses() int {
	return ConsecutiveLossesOf(h.trades)
}

// HighConfidenceStats summarizes trades at or above the policy cutoff
func (h *StrategyHealth) HighConfidenceStats() ConfidenceStats {
	return HighConfidenceStatsOf(h.trades, h.policy.HighConfidenceCutoff)
}

// RollingMetrics computes metrics over the monitor's trade history
func (h *StrategyHealth) RollingMetrics(window int) WindowMetrics {
	return RollingMetrics(h.trades, window)
}

// AllRollingWindows computes the 30/50/100 trade windows
func (h *StrategyHealth) AllRollingWindows() map[int]WindowMetrics {
	return AllRollingWindows(h.trades)
}

// HealthSummary is a point-in-time view of the monitor
type HealthSummary struct {
	State               HealthState        `json:"state"`
	StateReason         string             `json:"state_reason"`
	ReasonCode          InvalidationReason `json:"reason_code,omitempty"`
	CanTrade            bool               `json:"can_trade"`
	CanLiveTrade        bool               `json:"can_live_trade"`
	PaperOnlyMode       bool               `json:"paper_only_mode"`
	ShouldReduceSize    bool               `json:"should_reduce_size"`
	Rolling50           WindowMetrics      `json:"rolling_50"`
	ConsecutiveLosses   int                `json:"consecutive_losses"`
	HighConfidence      ConfidenceStats    `json:"high_conf_stats"`
	TotalTrades         int                `json:"total_trades"`
	MaxDrawdown         float64            `json:"max_drawdown"`
	EquityHighWaterMark float64            `json:"equity_high_water_mark"`
	ConfidenceThreshold float64            `json:"confidence_threshold"`
	Transitions         int                `json:"transitions"`
}

// Summary returns the current health summary
func (h *StrategyHealth) Summary() HealthSummary {
	return HealthSummary{
		State:               h.state,
		StateReason:         h.stateReason,
		ReasonCode:          h.reasonCode,
		CanTrade:            h.CanTrade(),
		CanLiveTrade:        h.CanLiveTrade(),
		PaperOnlyMode:       h.IsPaperOnlyMode(),
		ShouldReduceSize:    h.ShouldReduceSize(),
		Rolling50:           h.RollingMetrics(50),
		ConsecutiveLosses:   h.ConsecutiveLosses(),
		HighConfidence:      h.HighConfidenceStats(),
		TotalTrades:         len(h.trades),
		MaxDrawdown:         h.MaxDrawdown(),
		EquityHighWaterMark: h.EquityHighWaterMark(),
		ConfidenceThreshold: h.confidenceThreshold,
		Transitions:         len(h.transitions),
	}
}
