package complaint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/supplier-cli/internal/dataset"
	"github.com/sells-group/supplier-cli/internal/model"
)

func TestAggregate(t *testing.T) {
	tbl := dataset.NewTable("complaints", []string{"Date", "Company", "Issue"}, [][]string{
		{"2025-01-01", "Acme", "Defective product"},
		{"2025-01-02", "Acme", "Managing an account"},
		{"2025-01-03", "Acme", "Something new"},
		{"2025-01-04", "acme", "Defective product"},
		{"2025-01-05", "", "Billing dispute"},
	})
	l := NewLedger(tbl)

	tests := []struct {
		name string
		in   string
		want model.ComplaintStats
	}{
		{"exact match", "Acme", model.ComplaintStats{Count: 3, AverageSeverity: (9.0 + 3 + 5) / 3}},
		{"case sensitive", "acme", model.ComplaintStats{Count: 1, AverageSeverity: 9}},
		{"no fuzzy match", "Acme Inc", model.ComplaintStats{}},
		{"unknown", "Nobody", model.ComplaintStats{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Aggregate(tt.in)
			assert.Equal(t, tt.want.Count, got.Count)
			assert.InDelta(t, tt.want.AverageSeverity, got.AverageSeverity, 1e-9)
		})
	}
}

func TestAggregate_MissingLedger(t *testing.T) {
	var l *Ledger
	assert.Equal(t, model.ComplaintStats{}, l.Aggregate("Acme"))
	assert.Equal(t, model.ComplaintStats{}, NewLedger(nil).Aggregate("Acme"))
	assert.Equal(t, 0, NewLedger(dataset.NewTable("x", []string{"Issue"}, [][]string{{"a"}})).Len())
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, 7, Severity("Problem with a purchase"))
	assert.Equal(t, DefaultSeverity, Severity("unlisted"))
	for issue, s := range severity {
		assert.True(t, s >= 1 && s <= 9, issue)
	}
}
