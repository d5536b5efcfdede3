package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
	"github.com/ducminhle1904/strategy-guard/internal/risk"
	"github.com/ducminhle1904/strategy-guard/internal/safety"
	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert
}

func (n *recordingNotifier) SendAlert(level, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert{level: level, message: message})
	return nil
}

func (n *recordingNotifier) snapshot() []alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alert(nil), n.alerts...)
}

func TestTelegramNotifierSendAlert(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botsecret/sendMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewTelegramNotifier("secret", "42").WithBaseURL(server.URL + "/")
	require.NoError(t, n.SendAlert(LevelError, "drawdown breached"))

	assert.Equal(t, "42", form["chat_id"])
	assert.Equal(t, "Markdown", form["parse_mode"])
	assert.Contains(t, form["text"], "🚨")
	assert.Contains(t, form["text"], "drawdown breached")
}

func TestTelegramNotifierNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := NewTelegramNotifier("secret", "42").WithBaseURL(server.URL).SendAlert(LevelInfo, "hello")
	require.Error(t, err)
	assert.Equal(t, guarderrors.ErrorCategoryNetwork, guarderrors.CategoryOf(err))
	assert.Contains(t, err.Error(), "429")
}

func TestTransitionLevel(t *testing.T) {
	tests := []struct {
		from, to health.HealthState
		want     string
	}{
		{health.StateActive, health.StateDisabled, LevelError},
		{health.StateDegraded, health.StateActive, LevelSuccess},
		{health.StateActive, health.StatePaused, LevelWarning},
		{health.StatePaused, health.StateDegraded, LevelInfo},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, transitionLevel(health.StateTransition{From: tt.from, To: tt.to}))
		})
	}
}

func TestAlerterGuardActionChanges(t *testing.T) {
	n := &recordingNotifier{}
	a := NewTransitionAlerter(n, nil)

	a.Observe(integration.Recommendation{StrategyID: "s1", GuardAction: risk.GuardActionNormal})
	a.Observe(integration.Recommendation{StrategyID: "s1", GuardAction: risk.GuardActionReduceAll, GuardDrawdown: -0.18})
	a.Observe(integration.Recommendation{StrategyID: "s1", GuardAction: risk.GuardActionReduceAll, GuardDrawdown: -0.19})
	a.Observe(integration.Recommendation{StrategyID: "s1", GuardAction: risk.GuardActionNormal})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	require.Eventually(t, func() bool { return len(n.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
	alerts := n.snapshot()
	assert.Equal(t, LevelWarning, alerts[0].level)
	assert.Contains(t, alerts[0].message, "REDUCE_ALL")
	assert.Contains(t, alerts[0].message, "-18.0%")
	assert.Equal(t, LevelSuccess, alerts[1].level)
}

func TestAlerterReceivesAdapterTransitions(t *testing.T) {
	n := &recordingNotifier{}
	alerter := NewTransitionAlerter(n, nil)
	adapter := integration.NewHealthIntegrationAdapter("s1", nil, nil, nil, nil)
	adapter.AddObserver(alerter)

	losses := make([]types.TradeRecord, 7)
	for i := range losses {
		losses[i] = types.TradeRecord{PnL: -10, ReturnPct: -0.01}
	}
	ok, _, _ := adapter.CheckStrategyHealth(&integration.FileFeed{Trades: losses})
	require.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go alerter.Run(ctx)

	require.Eventually(t, func() bool { return len(n.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	got := n.snapshot()[0]
	assert.Equal(t, LevelWarning, got.level)
	assert.Contains(t, got.message, "`ACTIVE` -> `PAUSED`")
}

func TestAlerterDropsWhenQueueFull(t *testing.T) {
	a := NewTransitionAlerter(&recordingNotifier{}, nil)
	for i := 0; i < alertQueueSize+5; i++ {
		a.ObserveTransition("s1", health.StateTransition{From: health.StateActive, To: health.StateDegraded})
	}
	assert.Len(t, a.queue, alertQueueSize)
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) SendAlert(level, message string) error {
	n.calls++
	return guarderrors.NewGuardError(guarderrors.ErrorCategoryNetwork, "test", "SendAlert", "down")
}

func TestBreakerNotifierFailsFast(t *testing.T) {
	next := &failingNotifier{}
	n := NewBreakerNotifier(next, safety.NewCircuitBreaker("telegram", safety.CircuitBreakerConfig{
		FailureThreshold: 2,
		Timeout:          time.Hour,
	}))

	for i := 0; i < 5; i++ {
		assert.Error(t, n.SendAlert(LevelInfo, "hello"))
	}
	assert.Equal(t, 2, next.calls)
}
