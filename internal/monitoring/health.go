package monitoring

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/ducminhle1904/strategy-guard/internal/integration"
)

// HealthChecker keeps the latest recommendation per strategy and reports
// them over HTTP
type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	latest    map[string]integration.Recommendation
	errors    []string
}

type HealthStatus struct {
	Status     string                       `json:"status"`
	Timestamp  time.Time                    `json:"timestamp"`
	Uptime     string                       `json:"uptime"`
	Strategies []integration.Recommendation `json:"strategies"`
	Errors     []string                     `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		latest:    make(map[string]integration.Recommendation),
		errors:    make([]string, 0),
	}
}

// Observe stores rec as the latest recommendation of its strategy
func (h *HealthChecker) Observe(rec integration.Recommendation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[rec.StrategyID] = rec
}

// RecordError remembers a feed or evaluation failure. Errors are kept until
// the next successful refresh calls ClearErrors.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
}

func (h *HealthChecker) ClearErrors() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = h.errors[:0]
}

// Status summarizes all strategies. It is "halted" when any strategy may
// not trade, "restricted" when any trades at reduced size or paper only,
// and "healthy" otherwise. Recorded errors make a non-halted status
// "unhealthy".
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.latest))
	for id := range h.latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	status := "healthy"
	strategies := make([]integration.Recommendation, 0, len(ids))
	for _, id := range ids {
		rec := h.latest[id]
		strategies = append(strategies, rec)
		switch {
		case !rec.CanTrade:
			status = "halted"
		case status == "healthy" && (rec.PositionSizeMultiplier < 1 || !rec.CanLiveTrade):
			status = "restricted"
		}
	}

	var errs []string
	if len(h.errors) > 0 {
		if status != "halted" {
			status = "unhealthy"
		}
		errs = append(errs, h.errors...)
	}

	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Uptime:     time.Since(h.startTime).String(),
		Strategies: strategies,
		Errors:     errs,
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Status()

	w.Header().Set("Content-Type", "application/json")
	switch status.Status {
	case "halted":
		w.WriteHeader(http.StatusServiceUnavailable)
	case "unhealthy":
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(status)
}
