package scorer

import (
	"cmp"
	"slices"

	"github.com/sells-group/supplier-cli/internal/model"
)

// DefaultTopK is the number of suppliers returned by a recommendation.
const DefaultTopK = 5

// Rank sorts scored suppliers in place: CompositeScore descending, then
// Subtotal descending, then supplier ID ascending.
func Rank(scored []model.ScoredSupplier) {
	slices.SortStableFunc(scored, compareScored)
}

// TopK returns the first k suppliers of a ranked copy of scored. k <= 0
// yields an empty, non-nil slice.
func TopK(scored []model.ScoredSupplier, k int) []model.ScoredSupplier {
	if k <= 0 || len(scored) == 0 {
		return []model.ScoredSupplier{}
	}
	ranked := slices.Clone(scored)
	Rank(ranked)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return slices.Clip(ranked)
}

func compareScored(a, b model.ScoredSupplier) int {
	if c := cmp.Compare(b.CompositeScore, a.CompositeScore); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Subtotal, a.Subtotal); c != 0 {
		return c
	}
	return cmp.Compare(a.Supplier.ID, b.Supplier.ID)
}
