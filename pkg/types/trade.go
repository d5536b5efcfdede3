package types

import "time"

// TradeRecord is a closed trade as reported by the portfolio layer.
// Records are appended in execution order and never mutated afterwards.
type TradeRecord struct {
	Symbol    string    `json:"symbol,omitempty"`
	PnL       float64   `json:"pnl"`
	ReturnPct float64   `json:"return_pct"`
	Regime    string    `json:"regime,omitempty"`
	ClosedAt  time.Time `json:"closed_at,omitzero"`

	// EntryConfidence is nil when the model confidence at entry is unknown.
	EntryConfidence *float64 `json:"entry_confidence,omitempty"`
}

// IsWin reports whether the trade realized a strictly positive PnL
func (t TradeRecord) IsWin() bool {
	return t.PnL > 0
}

// IsLoss reports whether the trade realized a strictly negative PnL
func (t TradeRecord) IsLoss() bool {
	return t.PnL < 0
}

// HasConfidence reports whether an entry confidence was recorded
func (t TradeRecord) HasConfidence() bool {
	return t.EntryConfidence != nil
}

// Confidence returns the entry confidence and whether it is known
func (t TradeRecord) Confidence() (float64, bool) {
	if t.EntryConfidence == nil {
		return 0, false
	}
	return *t.EntryConfidence, true
}

// WithConfidence returns a copy of the trade carrying the given entry confidence
func (t TradeRecord) WithConfidence(confidence float64) TradeRecord {
	c := confidence
	t.EntryConfidence = &c
	return t
}

// EquityPoint is a capital value sampled at a point in time
type EquityPoint struct {
	Value float64   `json:"value"`
	At    time.Time `json:"at,omitzero"`
}

// EquityValues flattens an equity series to its capital values
func EquityValues(points []EquityPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}
