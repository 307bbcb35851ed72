// Package signal wraps the external weather, tariff and geocoding providers
// behind typed adapters that never fail: every transport, parse or timeout
// error becomes an Unavailable signal carrying the reason.
package signal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/supplier-cli/internal/metrics"
	"github.com/sells-group/supplier-cli/internal/resilience"
)

// Signal is a tagged provider result: Available with a value, or Unavailable
// with a reason.
type Signal[T any] struct {
	value  T
	reason string
	ok     bool
}

// Available wraps a successful value.
func Available[T any](v T) Signal[T] {
	return Signal[T]{value: v, ok: true}
}

// Unavailable records a failure reason.
func Unavailable[T any](reason string) Signal[T] {
	return Signal[T]{reason: reason}
}

// IsAvailable reports whether the signal carries a value.
func (s Signal[T]) IsAvailable() bool { return s.ok }

// Value returns the value and whether it is available.
func (s Signal[T]) Value() (T, bool) { return s.value, s.ok }

// Reason returns the failure reason, empty when available.
func (s Signal[T]) Reason() string { return s.reason }

// String implements fmt.Stringer.
func (s Signal[T]) String() string {
	if s.ok {
		return fmt.Sprintf("Available(%v)", s.value)
	}
	return fmt.Sprintf("Unavailable(%s)", s.reason)
}

// WeatherProvider returns a forecast summary for a free-text location.
type WeatherProvider interface {
	Weather(ctx context.Context, location string) Signal[WeatherSummary]
}

// TariffProvider reports duty levels for a trade code and a 4-digit
// classification code.
type TariffProvider interface {
	Tariff(ctx context.Context, tradeCode, productCode string) Signal[TariffSummary]
}

// DistanceProvider returns the great-circle distance in km between two
// free-text locations.
type DistanceProvider interface {
	Distance(ctx context.Context, from, to string) Signal[float64]
}

// Names used for logging and metric labels.
const (
	NameWeather  = "weather"
	NameTariff   = "tariff"
	NameDistance = "distance"
)

// Options are shared by every adapter.
type Options struct {
	// Timeout bounds one adapter call including retries. Zero means no
	// per-call timeout beyond the caller's context.
	Timeout time.Duration
	// Guard applies retry and circuit breaking. Nil calls the provider once.
	Guard   *resilience.Guard
	Metrics *metrics.Metrics
}

// lookup runs fn under the adapter options and folds any error or panic into
// an Unavailable signal.
func lookup[T any](ctx context.Context, name string, o Options, fn func(ctx context.Context) (T, error)) (sig Signal[T]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			sig = Unavailable[T](fmt.Sprintf("panic: %v", r))
		}
		o.Metrics.ObserveSignal(name, sig.IsAvailable(), time.Since(start).Seconds())
		if !sig.IsAvailable() {
			zap.L().Debug("signal unavailable", zap.String("signal", name), zap.String("reason", sig.Reason()))
		}
	}()

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	v, err := resilience.Call(ctx, o.Guard, fn)
	if err != nil {
		return Unavailable[T](err.Error())
	}
	return Available(v)
}
