// Package factor computes the six independent per-supplier factors. Each
// factor is a pure function of its inputs; Calculator gathers the risk
// signals and applies them.
package factor

import (
	"math"
	"strings"
	"time"

	"github.com/sells-group/supplier-cli/internal/config"
	"github.com/sells-group/supplier-cli/internal/model"
	"github.com/sells-group/supplier-cli/internal/signal"
)

// ExpireDateLayout is the date format of product expiry cells.
const ExpireDateLayout = "2006-01-02"

// Complaint scores complaint history: a clean record earns ComplaintNone,
// otherwise -min(cap, count*avgSeverity/divisor).
func Complaint(cfg config.ScoringConfig, stats model.ComplaintStats) float64 {
	if stats.Count <= 0 {
		return cfg.ComplaintNone
	}
	return -math.Min(cfg.ComplaintCap, float64(stats.Count)*stats.AverageSeverity/cfg.ComplaintDivisor)
}

// Weather scores forecast risk at the supplier location.
func Weather(cfg config.ScoringConfig, loc Location, sig signal.Signal[signal.WeatherSummary]) float64 {
	switch loc.Status {
	case LocationMissing:
		return cfg.WeatherMissing
	case LocationInvalid:
		return cfg.WeatherInvalid
	}
	w, ok := sig.Value()
	if !ok {
		return cfg.WeatherUnavailable
	}
	if w.HasExtreme() {
		return -math.Min(cfg.WeatherCap, float64(w.ExtremeDays)*cfg.WeatherPerExtremeDay)
	}
	return cfg.WeatherClear
}

// Tariff scores import duty exposure. Unavailable data is neutral.
func Tariff(cfg config.ScoringConfig, sig signal.Signal[signal.TariffSummary]) float64 {
	ts, ok := sig.Value()
	if !ok {
		return cfg.TariffUnavailable
	}
	if ts.HighDuty {
		return cfg.TariffHigh
	}
	return cfg.TariffLow
}

// ProductMatch compares the supplier domain with the requested category,
// case-insensitively.
func ProductMatch(cfg config.ScoringConfig, domain model.Domain, category string) float64 {
	if strings.EqualFold(strings.TrimSpace(category), string(domain)) {
		return cfg.ProductMatch
	}
	return cfg.ProductMismatch
}

// ExpiredCount counts linked products whose expiry date parses and is before
// now. Blank or unparseable dates are skipped.
func ExpiredCount(products []model.LinkedProduct, now time.Time) int {
	n := 0
	for _, p := range products {
		raw := strings.TrimSpace(p.ExpireDate)
		if raw == "" {
			continue
		}
		exp, err := time.ParseInLocation(ExpireDateLayout, raw, now.Location())
		if err != nil {
			continue
		}
		if exp.Before(now) {
			n++
		}
	}
	return n
}

// Expiration penalizes expired linked products. Only Government suppliers
// carry product links; every other domain scores 0.
func Expiration(cfg config.ScoringConfig, rec model.SupplierRecord, now time.Time) float64 {
	if rec.Domain != model.DomainGovernment {
		return 0
	}
	expired := ExpiredCount(rec.Products, now)
	if expired == 0 {
		return 0
	}
	return -math.Min(cfg.ExpirationCap, float64(expired)*cfg.ExpirationPerProduct)
}

// Distance scores the great-circle distance between the source and supplier
// locations. No usable supplier location, no source, or an Unavailable
// signal all score DistanceUnavailable.
func Distance(cfg config.ScoringConfig, loc Location, source string, sig signal.Signal[float64]) float64 {
	if loc.Status != LocationValid || strings.TrimSpace(source) == "" {
		return cfg.DistanceUnavailable
	}
	km, ok := sig.Value()
	if !ok || math.IsNaN(km) || km < 0 {
		return cfg.DistanceUnavailable
	}
	switch {
	case km < cfg.DistanceNearKM:
		return cfg.DistanceNear
	case km < cfg.DistanceMidKM:
		return cfg.DistanceMid
	default:
		return cfg.DistanceFar
	}
}
