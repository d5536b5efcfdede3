package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdownOf(t *testing.T) {
	tests := []struct {
		name  string
		curve []float64
		want  float64
	}{
		{"empty curve", nil, 0},
		{"single point", []float64{100000}, 0},
		{"monotonic rise", []float64{100, 101, 102}, 0},
		{"peak 115 trough 100", []float64{100, 110, 105, 115, 100, 120}, (100.0 - 115.0) / 115.0},
		{"non-positive start", []float64{0, 0, 10, 5}, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MaxDrawdownOf(tt.curve), 1e-12)
		})
	}
}

func TestDrawdownTrackerMatchesMaxDrawdownOf(t *testing.T) {
	curve := []float64{100, 110, 105, 115, 100, 120}
	tracker := NewDrawdownTracker()
	for _, v := range curve {
		tracker.Update(v)
	}

	assert.InDelta(t, -0.1304, tracker.MaxDrawdown(), 1e-4)
	assert.Equal(t, MaxDrawdownOf(curve), tracker.MaxDrawdown())
	assert.Equal(t, 120.0, tracker.HighWaterMark())
	assert.Equal(t, 0.0, tracker.CurrentDrawdown())
	assert.Equal(t, 6, tracker.Observed())
}

func TestDrawdownTrackerNewHighThenDrop(t *testing.T) {
	tracker := NewDrawdownTracker()
	tracker.Update(100000)

	assert.False(t, tracker.Update(110000))
	assert.Equal(t, 110000.0, tracker.HighWaterMark())

	assert.True(t, tracker.Update(100000))
	assert.Equal(t, (100000.0-110000.0)/110000.0, tracker.MaxDrawdown())
	assert.False(t, tracker.MaxDrawdownAt().IsZero())
}

func TestDrawdownTrackerHighWaterMarkNeverDecreases(t *testing.T) {
	tracker := NewDrawdownTracker()
	prev := 0.0
	for _, v := range []float64{50, 40, 80, 10, 79, 81, 0, 3} {
		tracker.Update(v)
		assert.GreaterOrEqual(t, tracker.HighWaterMark(), prev)
		assert.LessOrEqual(t, tracker.MaxDrawdown(), 0.0)
		prev = tracker.HighWaterMark()
	}
}

func TestDrawdownTrackerReset(t *testing.T) {
	tracker := NewDrawdownTracker()
	tracker.Replay([]float64{100000, 50000})
	assert.Equal(t, -0.5, tracker.MaxDrawdown())

	tracker.Reset()
	assert.Equal(t, 0.0, tracker.MaxDrawdown())
	assert.True(t, tracker.MaxDrawdownAt().IsZero())
	assert.Equal(t, 100000.0, tracker.HighWaterMark())
}

func TestDrawdownTrackerReplayIsIncremental(t *testing.T) {
	tracker := NewDrawdownTracker()
	assert.True(t, tracker.Replay([]float64{100, 80}))
	tracker.Reset()

	// already-seen points are not folded in again
	assert.False(t, tracker.Replay([]float64{100, 80, 100}))
	assert.Equal(t, 0.0, tracker.MaxDrawdown())
	assert.Equal(t, 3, tracker.Observed())

	// a shorter curve is a restarted series
	assert.True(t, tracker.Replay([]float64{100, 70}))
	assert.Equal(t, 2, tracker.Observed())
	assert.InDelta(t, -0.3, tracker.MaxDrawdown(), 1e-12)
}

func TestDrawdownTrackerRestore(t *testing.T) {
	tracker := NewDrawdownTracker()
	tracker.Restore(120000, 0.2, tracker.MaxDrawdownAt(), -3)

	assert.Equal(t, 120000.0, tracker.HighWaterMark())
	assert.Equal(t, 0.0, tracker.MaxDrawdown(), "positive drawdown is clamped")
	assert.Equal(t, 0, tracker.Observed())

	tracker.Update(90000)
	assert.InDelta(t, -0.25, tracker.MaxDrawdown(), 1e-12)
}
