package notifications

import "github.com/ducminhle1904/strategy-guard/internal/safety"

// BreakerNotifier stops calling a failing notifier until its breaker
// allows a probe again
type BreakerNotifier struct {
	next    Notifier
	breaker *safety.CircuitBreaker
}

func NewBreakerNotifier(next Notifier, breaker *safety.CircuitBreaker) *BreakerNotifier {
	return &BreakerNotifier{next: next, breaker: breaker}
}

func (b *BreakerNotifier) SendAlert(level, message string) error {
	return b.breaker.Call(func() error {
		return b.next.SendAlert(level, message)
	})
}
