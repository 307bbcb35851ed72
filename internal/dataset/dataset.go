// Package dataset holds the in-memory reference data consumed by the
// recommendation engine and loads it from a directory of CSV/XLSX tables.
package dataset

import (
	"strings"

	"github.com/sells-group/supplier-cli/internal/model"
)

// Table is a parsed tabular source with a header row.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a Table. Rows shorter than the header are padded; longer
// rows are truncated.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: columns, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		k := columnKey(c)
		if _, dup := t.index[k]; !dup {
			t.index[k] = i
		}
	}
	for _, r := range rows {
		row := make([]string, len(columns))
		copy(row, r)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of the first column matching any of the given
// names, ignoring case, spaces, underscores and hyphens. It returns -1 when
// none resolve.
func (t *Table) Column(names ...string) int {
	if t == nil {
		return -1
	}
	for _, n := range names {
		if i, ok := t.index[columnKey(n)]; ok {
			return i
		}
	}
	return -1
}

// HasColumn reports whether any of the names resolve.
func (t *Table) HasColumn(names ...string) bool {
	return t.Column(names...) >= 0
}

// Value returns the raw cell at row/col and whether the cell is present and
// non-blank. A cell containing only whitespace is reported as present.
func (t *Table) Value(row, col int) (string, bool) {
	if t == nil || col < 0 || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	v := t.Rows[row][col]
	if v == "" {
		return "", false
	}
	return v, true
}

func columnKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// Dataset is the reference snapshot for one or more recommendation requests.
// It is never mutated after load and may be shared across goroutines.
type Dataset struct {
	Suppliers  map[model.Domain]*Table
	Products   map[model.Domain]*Table
	Projects   map[model.Domain]*Table
	Complaints *Table
}

// New returns an empty Dataset with initialized maps.
func New() *Dataset {
	return &Dataset{
		Suppliers: make(map[model.Domain]*Table),
		Products:  make(map[model.Domain]*Table),
		Projects:  make(map[model.Domain]*Table),
	}
}

// SupplierRows returns the total supplier row count across domains.
func (d *Dataset) SupplierRows() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, t := range d.Suppliers {
		n += t.Len()
	}
	return n
}
