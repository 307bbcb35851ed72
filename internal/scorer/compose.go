package scorer

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/sells-group/supplier-cli/internal/config"
	"github.com/sells-group/supplier-cli/internal/model"
)

// Composer turns a FactorSet into a ScoredSupplier. It is safe for concurrent
// use; the tiebreak source is locked.
type Composer struct {
	cfg config.ScoringConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewComposer creates a Composer. seed 0 draws tiebreaks from a randomly
// seeded source; any other seed makes them reproducible.
func NewComposer(cfg config.ScoringConfig, seed int64) *Composer {
	var src rand.Source
	if seed == 0 {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	} else {
		src = rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	}
	return &Composer{cfg: cfg, rng: rand.New(src)}
}

// Tiebreak draws a value uniformly from [0, TiebreakMax).
func (c *Composer) Tiebreak() float64 {
	if c.cfg.TiebreakMax <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() * c.cfg.TiebreakMax
}

// Tiebreaks draws n tiebreaks in order. Drawing them up front, indexed by
// supplier position, keeps a seeded run reproducible however the scoring
// work is scheduled.
func (c *Composer) Tiebreaks(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = c.Tiebreak()
	}
	return out
}

// Compose scores one supplier with a tiebreak drawn by Tiebreak or
// Tiebreaks. Subtotal is base + factors (deterministic); CompositeScore adds
// tb and clamps to [MinScore, MaxScore]. Compose does not touch the random
// source.
func (c *Composer) Compose(rec model.SupplierRecord, factors model.FactorSet, complaintCount int, location string, tb float64) model.ScoredSupplier {
	subtotal := c.cfg.BaseScore + factors.Sum()
	return model.ScoredSupplier{
		Supplier:       rec,
		Factors:        factors,
		Subtotal:       subtotal,
		Tiebreak:       tb,
		CompositeScore: Clamp(subtotal+tb, c.cfg.MinScore, c.cfg.MaxScore),
		ComplaintCount: complaintCount,
		Location:       location,
	}
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
