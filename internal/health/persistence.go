package health

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/state"
)

// SnapshotVersion is written into every snapshot
const SnapshotVersion = 1

// Snapshot is the durable part of a StrategyHealth. Trades and the raw
// equity series are not persisted; callers supply them again on restart.
type Snapshot struct {
	Version                    int                `json:"version"`
	State                      HealthState        `json:"state"`
	StateReason                string             `json:"state_reason"`
	ReasonCode                 InvalidationReason `json:"reason_code,omitempty"`
	CurrentConfidenceThreshold float64            `json:"current_confidence_threshold"`
	PaperOnlyMode              bool               `json:"paper_only_mode"`
	EquityHighWaterMark        float64            `json:"equity_high_water_mark"`
	MaxDrawdown                float64            `json:"max_drawdown"`
	MaxDrawdownAt              time.Time          `json:"max_drawdown_at,omitzero"`
	EquityPointsSeen           int                `json:"equity_points_seen"`
	TransitionLog              []StateTransition  `json:"transition_log"`
	TotalTrades                int                `json:"total_trades"`
	SavedAt                    time.Time          `json:"saved_at"`
}

// Snapshot captures the durable state of the monitor
func (h *StrategyHealth) Snapshot() Snapshot {
	log := h.Transitions()
	if log == nil {
		log = []StateTransition{}
	}
	return Snapshot{
		Version:                    SnapshotVersion,
		State:                      h.state,
		StateReason:                h.stateReason,
		ReasonCode:                 h.reasonCode,
		CurrentConfidenceThreshold: h.confidenceThreshold,
		PaperOnlyMode:              h.paperOnlyMode,
		EquityHighWaterMark:        h.drawdown.HighWaterMark(),
		MaxDrawdown:                h.drawdown.MaxDrawdown(),
		MaxDrawdownAt:              h.drawdown.MaxDrawdownAt(),
		EquityPointsSeen:           h.drawdown.Observed(),
		TransitionLog:              log,
		TotalTrades:                len(h.trades),
		SavedAt:                    h.now(),
	}
}

// Validate checks a decoded snapshot against the policy before it is applied
func (s Snapshot) Validate(p Policy) error {
	const component, op = "health", "Restore"

	if s.Version > SnapshotVersion {
		return guarderrors.NewValidationError(component, op, fmt.Sprintf("unsupported snapshot version %d", s.Version))
	}
	if !s.State.IsValid() {
		return guarderrors.NewValidationError(component, op, fmt.Sprintf("unknown state %q", s.State))
	}
	if !isFinite(s.CurrentConfidenceThreshold) || s.CurrentConfidenceThreshold < p.DefaultConfidenceThreshold ||
		s.CurrentConfidenceThreshold > 1 {
		return guarderrors.NewValidationError(component, op,
			fmt.Sprintf("confidence threshold %v outside [%.2f, 1]", s.CurrentConfidenceThreshold, p.DefaultConfidenceThreshold))
	}
	if !isFinite(s.EquityHighWaterMark) || !isFinite(s.MaxDrawdown) || s.MaxDrawdown > 0 || s.MaxDrawdown < -1 {
		return guarderrors.NewValidationError(component, op, "invalid drawdown bookkeeping")
	}
	if s.EquityPointsSeen < 0 {
		return guarderrors.NewValidationError(component, op, "negative equity_points_seen")
	}
	for i, t := range s.TransitionLog {
		if !t.From.IsValid() || !t.To.IsValid() {
			return guarderrors.NewValidationError(component, op, fmt.Sprintf("transition %d has an unknown state", i))
		}
	}
	return nil
}

// apply replaces the durable state of the monitor with s.
// s must have passed Validate.
func (h *StrategyHealth) apply(s Snapshot) {
	h.state = s.State
	h.stateReason = s.StateReason
	h.reasonCode = s.ReasonCode
	if h.reasonCode == "" {
		h.reasonCode = ReasonRestored
	}
	h.confidenceThreshold = s.CurrentConfidenceThreshold
	h.paperOnlyMode = s.PaperOnlyMode
	h.drawdown.Restore(s.EquityHighWaterMark, s.MaxDrawdown, s.MaxDrawdownAt, s.EquityPointsSeen)
	h.transitions = append([]StateTransition(nil), s.TransitionLog...)
}

// Persist writes the snapshot to store under key
func (h *StrategyHealth) Persist(ctx context.Context, store state.Store, key string) error {
	data, err := json.MarshalIndent(h.Snapshot(), "", "  ")
	if err != nil {
		return guarderrors.NewPersistenceError("health", "Persist", err)
	}
	return store.Save(ctx, key, data)
}

// Restore loads the snapshot stored under key. The instance is left
// untouched unless the whole snapshot decodes and validates.
func (h *StrategyHealth) Restore(ctx context.Context, store state.Store, key string) error {
	data, err := store.Load(ctx, key)
	if err != nil {
		return err
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return guarderrors.NewPersistenceError("health", "Restore", err)
	}
	if err := s.Validate(h.policy); err != nil {
		return err
	}

	h.apply(s)
	h.logger.Info("Strategy health restored: state=%s threshold=%.2f paper_only=%t",
		s.State, s.CurrentConfidenceThreshold, s.PaperOnlyMode)
	return nil
}

// SaveState writes the snapshot to a JSON file at path
func (h *StrategyHealth) SaveState(path string) error {
	err := h.Persist(context.Background(), state.NewFileStore(h.logger), path)
	if err != nil {
		h.logger.LogError("Save State", err)
	}
	return err
}

// LoadState restores the snapshot from a JSON file at path. A missing or
// unreadable file returns false and leaves the instance unchanged.
func (h *StrategyHealth) LoadState(path string) bool {
	err := h.Restore(context.Background(), state.NewFileStore(h.logger), path)
	if err == nil {
		return true
	}
	if guarderrors.IsNotFound(err) {
		h.logger.LogWarning("Load State", "no saved state at %s", path)
	} else {
		h.logger.LogError("Load State", err)
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
