// Package complaint reduces a complaint ledger to per-supplier statistics.
package complaint

import (
	"github.com/sells-group/supplier-cli/internal/dataset"
	"github.com/sells-group/supplier-cli/internal/model"
)

// DefaultSeverity applies to issue types missing from the severity table.
const DefaultSeverity = 5

// severity maps complaint issue types to a 1-9 severity.
var severity = map[string]int{
	"Managing an account":      3,
	"Closing an account":       4,
	"Deposits and withdrawals": 5,
	"Billing dispute":          6,
	"Problem with a purchase":  7,
	"Product not received":     8,
	"Defective product":        9,
}

// Severity returns the severity of an issue type.
func Severity(issue string) int {
	if s, ok := severity[issue]; ok {
		return s
	}
	return DefaultSeverity
}

// Ledger indexes complaint issues by company name. It is read-only after
// construction and safe for concurrent use. A nil Ledger has no complaints.
type Ledger struct {
	issues map[string][]string
}

// NewLedger indexes a complaint table with Company and Issue columns. A nil
// table or one without a Company column yields an empty ledger.
func NewLedger(tbl *dataset.Table) *Ledger {
	l := &Ledger{issues: make(map[string][]string)}
	companyCol := tbl.Column("Company")
	if companyCol < 0 {
		return l
	}
	issueCol := tbl.Column("Issue")
	for i := 0; i < tbl.Len(); i++ {
		company, ok := tbl.Value(i, companyCol)
		if !ok {
			continue
		}
		issue, _ := tbl.Value(i, issueCol)
		l.issues[company] = append(l.issues[company], issue)
	}
	return l
}

// Len returns the number of distinct companies with complaints.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.issues)
}

// Aggregate returns complaint stats for an exact, case-sensitive supplier name.
func (l *Ledger) Aggregate(supplierName string) model.ComplaintStats {
	if l == nil {
		return model.ComplaintStats{}
	}
	issues := l.issues[supplierName]
	if len(issues) == 0 {
		return model.ComplaintStats{}
	}
	total := 0
	for _, issue := range issues {
		total += Severity(issue)
	}
	return model.ComplaintStats{
		Count:           len(issues),
		AverageSeverity: float64(total) / float64(len(issues)),
	}
}
