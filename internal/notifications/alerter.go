package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
	"github.com/ducminhle1904/strategy-guard/internal/logger"
	"github.com/ducminhle1904/strategy-guard/internal/risk"
)

const alertQueueSize = 32

type alert struct {
	level   string
	message string
}

// TransitionAlerter forwards health state transitions and portfolio guard
// changes to a Notifier. Observer callbacks only enqueue; Run delivers.
type TransitionAlerter struct {
	notifier Notifier
	logger   *logger.Logger
	queue    chan alert

	mu         sync.Mutex
	lastAction map[string]risk.GuardAction
}

func NewTransitionAlerter(n Notifier, log *logger.Logger) *TransitionAlerter {
	return &TransitionAlerter{
		notifier:   n,
		logger:     logger.OrNop(log),
		queue:      make(chan alert, alertQueueSize),
		lastAction: make(map[string]risk.GuardAction),
	}
}

// ObserveTransition implements integration.TransitionObserver
func (a *TransitionAlerter) ObserveTransition(strategyID string, t health.StateTransition) {
	a.enqueue(transitionLevel(t), fmt.Sprintf("Strategy `%s`: `%s` -> `%s`\n%s", strategyID, t.From, t.To, t.Reason))
}

// Observe implements integration.Observer. It alerts when the portfolio
// guard action changes; a first NORMAL reading is silent.
func (a *TransitionAlerter) Observe(rec integration.Recommendation) {
	a.mu.Lock()
	prev, seen := a.lastAction[rec.StrategyID]
	a.lastAction[rec.StrategyID] = rec.GuardAction
	a.mu.Unlock()

	if prev == rec.GuardAction || (!seen && rec.GuardAction == risk.GuardActionNormal) {
		return
	}

	level := LevelSuccess
	switch rec.GuardAction {
	case risk.GuardActionCloseAll:
		level = LevelError
	case risk.GuardActionReduceAll:
		level = LevelWarning
	}
	a.enqueue(level, fmt.Sprintf("Portfolio guard `%s` for `%s` (drawdown %.1f%%)",
		rec.GuardAction, rec.StrategyID, rec.GuardDrawdown*100))
}

func (a *TransitionAlerter) enqueue(level, message string) {
	select {
	case a.queue <- alert{level: level, message: message}:
	default:
		a.logger.LogWarning("Alert", "queue full, dropping %s alert: %s", level, message)
	}
}

// Run delivers queued alerts until ctx is cancelled
func (a *TransitionAlerter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case al := <-a.queue:
			if err := a.notifier.SendAlert(al.level, al.message); err != nil {
				a.logger.LogError("Send Alert", err)
			}
		}
	}
}

func transitionLevel(t health.StateTransition) string {
	switch {
	case t.To == health.StateDisabled:
		return LevelError
	case t.To == health.StateActive:
		return LevelSuccess
	case t.To.Severity() > t.From.Severity():
		return LevelWarning
	default:
		return LevelInfo
	}
}
