package portfolio

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SectorConfig holds the concentration policy
type SectorConfig struct {
	MaxConcentration float64 `json:"max_concentration" yaml:"max_concentration"` // max fraction of capital per sector
}

// DefaultSectorConfig returns a 40% per-sector cap
func DefaultSectorConfig() SectorConfig {
	return SectorConfig{MaxConcentration: 0.40}
}

// AllocationEvent represents a change to a sector's running total
type AllocationEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"` // ALLOCATE, RELEASE
	Sector    string    `json:"sector"`
	Amount    float64   `json:"amount"`
	After     float64   `json:"after"`
}

// SectorAllocator tracks per-sector exposure and clamps new positions to the
// concentration cap. Totals are kept as decimals so the remaining headroom is
// exact. Exits are not tracked automatically; the execution layer calls
// ReleaseAllocation when a position closes.
type SectorAllocator struct {
	mu               sync.RWMutex
	maxConcentration decimal.Decimal
	allocations      map[string]decimal.Decimal
	history          []AllocationEvent
}

// NewSectorAllocator creates an allocator with the given cap
func NewSectorAllocator(config SectorConfig) *SectorAllocator {
	return &SectorAllocator{
		maxConcentration: decimal.NewFromFloat(config.MaxConcentration),
		allocations:      make(map[string]decimal.Decimal),
		history:          make([]AllocationEvent, 0),
	}
}

// CanAddPosition returns how much of proposedSize may be opened in sector:
// the full request when it fits under the cap, otherwise the remaining
// headroom floored at zero.
func (sa *SectorAllocator) CanAddPosition(sector string, proposedSize float64) float64 {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	current := sa.allocations[sector]
	proposed := decimal.NewFromFloat(proposedSize)

	if current.Add(proposed).GreaterThan(sa.maxConcentration) {
		allowed := sa.maxConcentration.Sub(current)
		if allowed.IsNegative() {
			return 0.0
		}
		return allowed.InexactFloat64()
	}
	return proposedSize
}

// UpdateAllocation accumulates size into the sector after a position opened.
// Non-positive sizes are ignored.
func (sa *SectorAllocator) UpdateAllocation(sector string, size float64) {
	if size <= 0 {
		return
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	total := sa.allocations[sector].Add(decimal.NewFromFloat(size))
	sa.allocations[sector] = total
	sa.record("ALLOCATE", sector, size, total)
}

// ReleaseAllocation subtracts size from the sector when a position closes.
// The total never drops below zero.
func (sa *SectorAllocator) ReleaseAllocation(sector string, size float64) {
	if size <= 0 {
		return
	}

	sa.mu.Lock()
	defer sa.mu.Unlock()

	current, ok := sa.allocations[sector]
	if !ok {
		return
	}

	total := current.Sub(decimal.NewFromFloat(size))
	if total.Sign() <= 0 {
		delete(sa.allocations, sector)
		total = decimal.Zero
	} else {
		sa.allocations[sector] = total
	}
	sa.record("RELEASE", sector, size, total)
}

// Allocation returns the running total for sector
func (sa *SectorAllocator) Allocation(sector string) float64 {
	sa.mu.RLock()
	defer sa.mu.RUnlock()
	return sa.allocations[sector].InexactFloat64()
}

// Headroom returns the capacity left under the cap for sector
func (sa *SectorAllocator) Headroom(sector string) float64 {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	left := sa.maxConcentration.Sub(sa.allocations[sector])
	if left.IsNegative() {
		return 0.0
	}
	return left.InexactFloat64()
}

// MaxConcentration returns the configured cap
func (sa *SectorAllocator) MaxConcentration() float64 {
	return sa.maxConcentration.InexactFloat64()
}

// Allocations returns a copy of all sector totals
func (sa *SectorAllocator) Allocations() map[string]float64 {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	out := make(map[string]float64, len(sa.allocations))
	for sector, total := range sa.allocations {
		out[sector] = total.InexactFloat64()
	}
	return out
}

// Sectors returns the tracked sectors in name order
func (sa *SectorAllocator) Sectors() []string {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	sectors := make([]string, 0, len(sa.allocations))
	for sector := range sa.allocations {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)
	return sectors
}

// History returns the most recent allocation events, newest last.
// A non-positive limit returns all of them.
func (sa *SectorAllocator) History(limit int) []AllocationEvent {
	sa.mu.RLock()
	defer sa.mu.RUnlock()

	start := 0
	if limit > 0 && len(sa.history) > limit {
		start = len(sa.history) - limit
	}
	out := make([]AllocationEvent, len(sa.history)-start)
	copy(out, sa.history[start:])
	return out
}

func (sa *SectorAllocator) record(eventType, sector string, amount float64, after decimal.Decimal) {
	sa.history = append(sa.history, AllocationEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Sector:    sector,
		Amount:    amount,
		After:     after.InexactFloat64(),
	})
}
