package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestDoVal_RetriesTransient(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, NewStatusError("test", http.StatusServiceUnavailable, "down")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_StopsOnPermanent(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(5), func(context.Context) (int, error) {
		calls++
		return 0, NewStatusError("test", http.StatusBadRequest, "bad")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestDoVal_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := DoVal(ctx, fastRetry(5), func(context.Context) (int, error) {
		calls++
		return 0, NewStatusError("test", http.StatusBadGateway, "")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", NewStatusError("p", 429, ""), true},
		{"503", NewStatusError("p", 503, ""), true},
		{"404", NewStatusError("p", 404, ""), false},
		{"reset", errors.New("read: connection reset by peer"), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestBackoff_Capped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, backoff(0, cfg))
	assert.Equal(t, 2*time.Second, backoff(1, cfg))
	assert.Equal(t, 3*time.Second, backoff(5, cfg))
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker("weather", CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	cb.now = func() time.Time { return now }
	g := &Guard{Breaker: cb, Retry: fastRetry(1)}

	fail := func(context.Context) (string, error) {
		return "", NewStatusError("weather", http.StatusInternalServerError, "")
	}
	for range 2 {
		_, err := Call(context.Background(), g, fail)
		require.Error(t, err)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	called := false
	_, err := Call(context.Background(), g, func(context.Context) (string, error) {
		called = true
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	val, err := Call(context.Background(), g, func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	g := NewGuard("tariff", fastRetry(1), CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	_, err := Call(context.Background(), g, func(context.Context) (int, error) {
		return 0, NewStatusError("tariff", http.StatusNotFound, "")
	})
	require.Error(t, err)
	assert.Equal(t, CircuitClosed, g.Breaker.State())
}

func TestCall_NilGuard(t *testing.T) {
	val, err := Call(context.Background(), nil, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, val)
}

func TestFromConfig(t *testing.T) {
	r := FromRetryConfig(4, 100, 0)
	assert.Equal(t, 4, r.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, r.InitialBackoff)
	assert.Equal(t, DefaultRetryConfig().MaxBackoff, r.MaxBackoff)

	c := FromCircuitConfig(0, 10)
	assert.Equal(t, 5, c.FailureThreshold)
	assert.Equal(t, 10*time.Second, c.ResetTimeout)
}
