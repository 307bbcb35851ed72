// Package scorer composes per-supplier factors into a bounded composite score
// and ranks the scored set.
package scorer

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/supplier-cli/internal/config"
)

// DefaultConfig returns the documented scoring constants.
func DefaultConfig() config.ScoringConfig {
	return config.ScoringConfig{
		BaseScore:   50,
		TiebreakMax: 2,
		MinScore:    0,
		MaxScore:    100,

		// Complaint: +10 clean, else -min(20, count*avg/10).
		ComplaintNone:    10,
		ComplaintCap:     20,
		ComplaintDivisor: 10,

		// Weather.
		WeatherClear:         5,
		WeatherPerExtremeDay: 3,
		WeatherCap:           15,
		WeatherMissing:       -5,
		WeatherInvalid:       0,
		WeatherUnavailable:   0,

		// Tariff.
		TariffHigh:        -10,
		TariffLow:         5,
		TariffUnavailable: 0,

		// Product match.
		ProductMatch:    15,
		ProductMismatch: -5,

		// Expiration (Government only).
		ExpirationPerProduct: 5,
		ExpirationCap:        15,

		// Distance bands.
		DistanceNearKM:      5000,
		DistanceMidKM:       10000,
		DistanceNear:        10,
		DistanceMid:         5,
		DistanceFar:         0,
		DistanceUnavailable: -5,
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	all := map[string]float64{
		"base_score": c.BaseScore, "tiebreak_max": c.TiebreakMax,
		"min_score": c.MinScore, "max_score": c.MaxScore,
		"complaint_none": c.ComplaintNone, "complaint_cap": c.ComplaintCap,
		"complaint_divisor": c.ComplaintDivisor, "weather_clear": c.WeatherClear,
		"weather_per_extreme_day": c.WeatherPerExtremeDay, "weather_cap": c.WeatherCap,
		"weather_missing": c.WeatherMissing, "weather_invalid": c.WeatherInvalid,
		"weather_unavailable": c.WeatherUnavailable, "tariff_high": c.TariffHigh,
		"tariff_low": c.TariffLow, "tariff_unavailable": c.TariffUnavailable,
		"product_match": c.ProductMatch, "product_mismatch": c.ProductMismatch,
		"expiration_per_product": c.ExpirationPerProduct, "expiration_cap": c.ExpirationCap,
		"distance_near_km": c.DistanceNearKM, "distance_mid_km": c.DistanceMidKM,
		"distance_near": c.DistanceNear, "distance_mid": c.DistanceMid,
		"distance_far": c.DistanceFar, "distance_unavailable": c.DistanceUnavailable,
	}
	for name, v := range all {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Sprintf("%s must be finite", name))
		}
	}

	// Score bounds.
	if c.MaxScore <= c.MinScore {
		errs = append(errs, "max_score must be > min_score")
	}
	if c.TiebreakMax < 0 {
		errs = append(errs, "tiebreak_max must be >= 0")
	}
	if c.TiebreakMax >= c.MaxScore-c.MinScore {
		errs = append(errs, "tiebreak_max must be smaller than the score range")
	}

	// Penalty caps and rates are magnitudes.
	nonNeg := map[string]float64{
		"complaint_cap":           c.ComplaintCap,
		"weather_per_extreme_day": c.WeatherPerExtremeDay,
		"weather_cap":             c.WeatherCap,
		"expiration_per_product":  c.ExpirationPerProduct,
		"expiration_cap":          c.ExpirationCap,
	}
	for name, v := range nonNeg {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}
	if c.ComplaintDivisor <= 0 {
		errs = append(errs, "complaint_divisor must be > 0")
	}

	// Distance bands.
	if c.DistanceNearKM <= 0 {
		errs = append(errs, "distance_near_km must be > 0")
	}
	if c.DistanceMidKM < c.DistanceNearKM {
		errs = append(errs, "distance_mid_km must be >= distance_near_km")
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
