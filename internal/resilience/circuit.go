// Package resilience provides retry and circuit breaking for risk-signal
// provider calls.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState is the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the provider while the circuit is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreakerConfig controls when a breaker opens and how long it stays open.
type CircuitBreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// DefaultCircuitBreakerConfig returns the defaults used for provider breakers.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second}
}

// FromCircuitConfig overlays non-zero config values on the defaults.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}

// CircuitBreaker stops calling a provider after consecutive failures and lets
// a single trial call through once ResetTimeout has elapsed.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	now      func() time.Time
}

// NewCircuitBreaker creates a closed breaker for the named provider.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	return &CircuitBreaker{name: name, cfg: cfg, now: time.Now}
}

// State returns the current state, reporting half-open once the reset timeout
// has passed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.ResetTimeout {
			return ErrCircuitOpen
		}
		cb.setState(CircuitHalfOpen)
		return nil
	case CircuitHalfOpen:
		// one trial call at a time
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err == nil {
		cb.failures = 0
		if cb.state != CircuitClosed {
			cb.setState(CircuitClosed)
		}
		return
	}
	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.openedAt = cb.now()
		if cb.state != CircuitOpen {
			cb.setState(CircuitOpen)
		}
	}
}

func (cb *CircuitBreaker) setState(to CircuitState) {
	zap.L().Info("circuit breaker state change",
		zap.String("provider", cb.name),
		zap.Stringer("from", cb.state),
		zap.Stringer("to", to),
	)
	cb.state = to
}

// Guard combines a breaker with a retry policy for one provider.
type Guard struct {
	Breaker *CircuitBreaker
	Retry   RetryConfig
}

// NewGuard builds a Guard with logging retries.
func NewGuard(provider string, retry RetryConfig, circuit CircuitBreakerConfig) *Guard {
	if retry.OnRetry == nil {
		retry.OnRetry = RetryLogger(provider, "fetch")
	}
	return &Guard{Breaker: NewCircuitBreaker(provider, circuit), Retry: retry}
}

// Call runs fn through g's breaker with retries. A nil Guard calls fn once.
// The breaker records the outcome of the whole retried call.
func Call[T any](ctx context.Context, g *Guard, fn func(ctx context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}
	var zero T
	if g.Breaker != nil {
		if err := g.Breaker.allow(); err != nil {
			return zero, err
		}
	}
	val, err := DoVal(ctx, g.Retry, fn)
	if g.Breaker != nil {
		g.Breaker.record(breakerOutcome(err))
	}
	return val, err
}

// breakerOutcome ignores non-transient errors (bad input, 4xx) so they do not
// open the circuit. Deadlines still count: a hanging provider should trip.
func breakerOutcome(err error) error {
	if err == nil || IsTransient(err) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
