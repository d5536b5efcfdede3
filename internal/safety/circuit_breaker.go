package safety

import (
	"fmt"
	"sync"
	"time"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
)

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the circuit breaker state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	SuccessThreshold uint32        // successes in half-open before closing
	Timeout          time.Duration // how long to stay open before probing
}

// CircuitBreaker stops calling a failing dependency for a while
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mutex         sync.Mutex
	state         CircuitBreakerState
	failures      uint32
	successes     uint32
	nextAttempt   time.Time
	onStateChange func(name string, from, to CircuitBreakerState)
}

// NewCircuitBreaker creates a closed breaker; zero config fields take defaults
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{name: name, config: config, now: time.Now}
}

// WithClock replaces the time source
func (cb *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	cb.now = now
	return cb
}

// SetStateChangeCallback sets a callback to be called when the state changes.
// It runs with the breaker locked.
func (cb *CircuitBreaker) SetStateChangeCallback(callback func(name string, from, to CircuitBreakerState)) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = callback
}

// Call executes fn with circuit breaker protection. While open it fails
// fast with a NETWORK error without calling fn.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.allow() {
		return guarderrors.NewGuardError(guarderrors.ErrorCategoryNetwork, "safety", cb.name,
			fmt.Sprintf("circuit breaker %s is open", cb.name))
	}

	if err := fn(); err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == StateOpen {
		if cb.now().Before(cb.nextAttempt) {
			return false
		}
		cb.changeState(StateHalfOpen)
	}
	return true
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.changeState(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.nextAttempt = cb.now().Add(cb.config.Timeout)
		cb.changeState(StateOpen)
	}
}

func (cb *CircuitBreaker) changeState(to CircuitBreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.successes = 0
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Reset closes the breaker
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.changeState(StateClosed)
	cb.failures = 0
}
