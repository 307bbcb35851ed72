package scorer

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-cli/internal/config"
	"github.com/sells-group/supplier-cli/internal/model"
)

func rec(id string) model.SupplierRecord {
	return model.SupplierRecord{ID: id, Name: "Supplier " + id, Domain: model.DomainGPS}
}

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultConfig()))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.ScoringConfig)
		wantErr string
	}{
		{"inverted bounds", func(c *config.ScoringConfig) { c.MaxScore = 0 }, "max_score must be > min_score"},
		{"negative tiebreak", func(c *config.ScoringConfig) { c.TiebreakMax = -1 }, "tiebreak_max must be >= 0"},
		{"huge tiebreak", func(c *config.ScoringConfig) { c.TiebreakMax = 100 }, "smaller than the score range"},
		{"zero divisor", func(c *config.ScoringConfig) { c.ComplaintDivisor = 0 }, "complaint_divisor"},
		{"negative cap", func(c *config.ScoringConfig) { c.WeatherCap = -15 }, "weather_cap must be >= 0"},
		{"bands inverted", func(c *config.ScoringConfig) { c.DistanceMidKM = 1000 }, "distance_mid_km"},
		{"zero near band", func(c *config.ScoringConfig) { c.DistanceNearKM = 0 }, "distance_near_km must be > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompose_Example(t *testing.T) {
	c := NewComposer(DefaultConfig(), 7)
	f := model.FactorSet{Complaint: 10, Weather: 5, Tariff: 5, ProductMatch: 15, Expiration: 0, Distance: 10}

	s := c.Compose(rec("a"), f, 0, "Austin, United States", c.Tiebreak())

	assert.InDelta(t, 95, s.Subtotal, 1e-9)
	assert.GreaterOrEqual(t, s.CompositeScore, 95.0)
	assert.Less(t, s.CompositeScore, 97.0)
	assert.InDelta(t, s.Subtotal+s.Tiebreak, s.CompositeScore, 1e-9)
	assert.Equal(t, f, s.Factors, "tiebreak is not a factor")
	assert.Equal(t, "Austin, United States", s.Location)
}

func TestCompose_Clamped(t *testing.T) {
	c := NewComposer(DefaultConfig(), 1)

	high := c.Compose(rec("h"), model.FactorSet{Complaint: 10, Weather: 10, Tariff: 5, ProductMatch: 15, Distance: 10}, 0, "", 1.5)
	assert.Equal(t, 100.0, high.CompositeScore)
	assert.InDelta(t, 100, high.Subtotal, 1e-9)

	cfg := DefaultConfig()
	cfg.BaseScore = 0
	low := NewComposer(cfg, 1).Compose(rec("l"), model.FactorSet{Complaint: -20, Weather: -15, Tariff: -10, ProductMatch: -5, Expiration: -15, Distance: -5}, 9, "", 1.9)
	assert.Equal(t, 0.0, low.CompositeScore)
	assert.Equal(t, 9, low.ComplaintCount)
}

func TestTiebreak_Range(t *testing.T) {
	c := NewComposer(DefaultConfig(), 0)
	for range 10_000 {
		tb := c.Tiebreak()
		require.GreaterOrEqual(t, tb, 0.0)
		require.Less(t, tb, 2.0)
	}

	cfg := DefaultConfig()
	cfg.TiebreakMax = 0
	assert.Equal(t, 0.0, NewComposer(cfg, 0).Tiebreak())
}

func TestTiebreak_SeedReproducible(t *testing.T) {
	a, b := NewComposer(DefaultConfig(), 42), NewComposer(DefaultConfig(), 42)
	for range 5 {
		assert.Equal(t, a.Tiebreak(), b.Tiebreak())
	}
}

func TestTiebreaks_SeededOrder(t *testing.T) {
	a := NewComposer(DefaultConfig(), 42).Tiebreaks(20)
	b := NewComposer(DefaultConfig(), 42)
	require.Len(t, a, 20)
	for i := range a {
		assert.Equal(t, a[i], b.Tiebreak(), "draw %d", i)
	}
	assert.Empty(t, NewComposer(DefaultConfig(), 42).Tiebreaks(0))
}

func TestCompose_ConcurrentUsesGivenTiebreak(t *testing.T) {
	c := NewComposer(DefaultConfig(), 9)
	tbs := c.Tiebreaks(50)
	out := make([]model.ScoredSupplier, len(tbs))

	var wg sync.WaitGroup
	for i := range tbs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = c.Compose(rec(fmt.Sprint(i)), model.FactorSet{}, 0, "", tbs[i])
		}()
	}
	wg.Wait()

	for i, s := range out {
		assert.Equal(t, tbs[i], s.Tiebreak)
		assert.InDelta(t, 50+tbs[i], s.CompositeScore, 1e-9)
	}
}

func scored(id string, composite, subtotal float64) model.ScoredSupplier {
	return model.ScoredSupplier{Supplier: rec(id), CompositeScore: composite, Subtotal: subtotal}
}

func TestTopK(t *testing.T) {
	in := []model.ScoredSupplier{
		scored("a", 60, 59),
		scored("b", 90, 89),
		scored("c", 75, 74),
		scored("d", 75, 75),
		scored("e", 10, 9),
		scored("f", 88, 87),
		scored("g", 75, 75),
	}

	got := TopK(in, 5)
	require.Len(t, got, 5)
	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.Supplier.ID
	}
	assert.Equal(t, []string{"b", "f", "d", "g", "c"}, ids)
	assert.Equal(t, "a", in[0].Supplier.ID, "input is not reordered")

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].CompositeScore, got[i].CompositeScore)
	}
}

func TestTopK_Edges(t *testing.T) {
	in := []model.ScoredSupplier{scored("a", 1, 1), scored("b", 2, 2)}

	assert.Len(t, TopK(in, 5), 2, "fewer than k returns all")
	assert.NotNil(t, TopK(in, 0))
	assert.Empty(t, TopK(in, 0))
	assert.Empty(t, TopK(nil, 5))
	assert.NotNil(t, TopK(nil, 5))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 100.0, Clamp(140, 0, 100))
	assert.Equal(t, 42.5, Clamp(42.5, 0, 100))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 100))
}
