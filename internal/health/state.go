package health

import (
	"fmt"
	"strings"
	"time"
)

// HealthState is the trading permission level of a strategy
type HealthState string

const (
	StateActive    HealthState = "ACTIVE"
	StateDegraded  HealthState = "DEGRADED"
	StatePaperOnly HealthState = "PAPER_ONLY"
	StatePaused    HealthState = "PAUSED"
	StateDisabled  HealthState = "DISABLED"
)

var permissions = map[HealthState]struct {
	trade     bool
	liveTrade bool
	severity  int
}{
	StateActive:    {true, true, 0},
	StateDegraded:  {true, true, 1},
	StatePaperOnly: {true, false, 2},
	StatePaused:    {false, false, 3},
	StateDisabled:  {false, false, 4},
}

// AllStates lists the states from least to most severe
func AllStates() []HealthState {
	return []HealthState{StateActive, StateDegraded, StatePaperOnly, StatePaused, StateDisabled}
}

// CanTrade reports whether any trading, simulated or live, is allowed
func (s HealthState) CanTrade() bool {
	return permissions[s].trade
}

// CanLiveTrade reports whether real-capital execution is allowed
func (s HealthState) CanLiveTrade() bool {
	return permissions[s].liveTrade
}

// Severity orders states from ACTIVE (0) to DISABLED (4); unknown states are -1
func (s HealthState) Severity() int {
	p, ok := permissions[s]
	if !ok {
		return -1
	}
	return p.severity
}

func (s HealthState) IsValid() bool {
	_, ok := permissions[s]
	return ok
}

func (s HealthState) String() string {
	return string(s)
}

// ParseHealthState converts a persisted or user-supplied name to a state
func ParseHealthState(name string) (HealthState, error) {
	s := HealthState(strings.ToUpper(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown health state %q", name)
	}
	return s, nil
}

// InvalidationReason tags which rule produced a verdict
type InvalidationReason string

const (
	ReasonAllRulesPassed    InvalidationReason = "ALL_RULES_PASSED"
	ReasonExpectancy        InvalidationReason = "EXPECTANCY"
	ReasonHighConfidence    InvalidationReason = "HIGH_CONF_WIN_RATE"
	ReasonConsecutiveLosses InvalidationReason = "CONSECUTIVE_LOSSES"
	ReasonMaxDrawdown       InvalidationReason = "MAX_DRAWDOWN"
	ReasonRollingSharpe     InvalidationReason = "ROLLING_SHARPE"
	ReasonManual            InvalidationReason = "MANUAL"
	ReasonRestored          InvalidationReason = "RESTORED"
)

// Verdict is the outcome of one rule evaluation
type Verdict struct {
	State   HealthState        `json:"state"`
	Reason  InvalidationReason `json:"reason"`
	Message string             `json:"message"`
}

// StateTransition is one entry of the append-only transition log
type StateTransition struct {
	From      HealthState        `json:"from"`
	To        HealthState        `json:"to"`
	Code      InvalidationReason `json:"code,omitempty"`
	Reason    string             `json:"reason"`
	Timestamp time.Time          `json:"timestamp"`
}
