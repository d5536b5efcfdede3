package risk

import "time"

// DrawdownTracker follows an equity high-water mark and the worst
// trough-vs-peak loss seen since the last reset. Drawdowns are <= 0.
type DrawdownTracker struct {
	highWaterMark   float64
	currentDrawdown float64
	maxDrawdown     float64
	maxDrawdownAt   time.Time
	lastEquity      float64
	observed        int
	now             func() time.Time
}

// NewDrawdownTracker creates an empty tracker
func NewDrawdownTracker() *DrawdownTracker {
	return &DrawdownTracker{now: time.Now}
}

// Update records a new equity value. It returns true when the value set a new
// maximum drawdown.
func (d *DrawdownTracker) Update(equity float64) bool {
	d.observed++
	d.lastEquity = equity

	if equity > d.highWaterMark {
		d.highWaterMark = equity
	}

	// recomputed against the possibly updated mark
	if d.highWaterMark > 0 {
		d.currentDrawdown = (equity - d.highWaterMark) / d.highWaterMark
	} else {
		d.currentDrawdown = 0
	}

	if d.currentDrawdown < d.maxDrawdown {
		d.maxDrawdown = d.currentDrawdown
		d.maxDrawdownAt = d.now()
		return true
	}
	return false
}

// Replay feeds the points of curve that the tracker has not observed yet.
// A curve shorter than the observed count is treated as a restarted series
// and fed from the beginning. It returns true if any point set a new low.
func (d *DrawdownTracker) Replay(curve []float64) bool {
	start := d.observed
	if len(curve) < start {
		start = 0
		d.observed = 0
	}

	newLow := false
	for _, v := range curve[start:] {
		if d.Update(v) {
			newLow = true
		}
	}
	return newLow
}

// Reset zeroes the maximum drawdown. The high-water mark is kept.
func (d *DrawdownTracker) Reset() {
	d.currentDrawdown = 0
	d.maxDrawdown = 0
	d.maxDrawdownAt = time.Time{}
}

// Restore loads previously persisted bookkeeping
func (d *DrawdownTracker) Restore(highWaterMark, maxDrawdown float64, maxDrawdownAt time.Time, observed int) {
	if maxDrawdown > 0 {
		maxDrawdown = 0
	}
	if observed < 0 {
		observed = 0
	}
	d.highWaterMark = highWaterMark
	d.maxDrawdown = maxDrawdown
	d.maxDrawdownAt = maxDrawdownAt
	d.observed = observed
	d.currentDrawdown = 0
}

func (d *DrawdownTracker) HighWaterMark() float64   { return d.highWaterMark }
func (d *DrawdownTracker) CurrentDrawdown() float64 { return d.currentDrawdown }
func (d *DrawdownTracker) MaxDrawdown() float64     { return d.maxDrawdown }
func (d *DrawdownTracker) MaxDrawdownAt() time.Time { return d.maxDrawdownAt }
func (d *DrawdownTracker) LastEquity() float64      { return d.lastEquity }
func (d *DrawdownTracker) Observed() int            { return d.observed }

// MaxDrawdownOf returns the worst relative loss from a running peak over curve
func MaxDrawdownOf(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0]
	maxDD := 0.0
	for _, equity := range curve {
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (equity - peak) / peak; dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
