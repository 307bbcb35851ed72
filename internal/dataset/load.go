package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/supplier-cli/internal/model"
)

// domainDirs maps on-disk directory names to domains. "goverment" is the
// spelling used by the upstream data drops.
var domainDirs = map[string]model.Domain{
	"gps":        model.DomainGPS,
	"medical":    model.DomainMedical,
	"government": model.DomainGovernment,
	"goverment":  model.DomainGovernment,
	"sge":        model.DomainGovernment,
}

var tableExts = []string{".csv", ".xlsx"}

// LoadDir reads a reference dataset from dir.
//
// Layout: <dir>/<domain>/*_suppliers.{csv,xlsx}, *_products.*, *_projects.*
// and <dir>/complaints*.{csv,xlsx}. Missing directories and files are not
// errors; unreadable files are skipped with a warning. Only a missing or
// unreadable dir is returned as an error.
func LoadDir(dir string) (*Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read dir %s", dir)
	}

	ds := New()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			domain, ok := domainDirs[strings.ToLower(name)]
			if !ok {
				continue
			}
			loadDomainDir(ds, domain, filepath.Join(dir, name))
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), "complaints") && isTableFile(name) {
			t, err := ReadTable(filepath.Join(dir, name))
			if err != nil {
				zap.L().Warn("dataset: skipping complaints file", zap.String("file", name), zap.Error(err))
				continue
			}
			ds.Complaints = t
		}
	}

	zap.L().Info("dataset: loaded",
		zap.String("dir", dir),
		zap.Int("supplier_tables", len(ds.Suppliers)),
		zap.Int("supplier_rows", ds.SupplierRows()),
		zap.Int("complaints", ds.Complaints.Len()),
	)
	return ds, nil
}

func loadDomainDir(ds *Dataset, domain model.Domain, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		zap.L().Warn("dataset: skipping domain dir", zap.String("dir", dir), zap.Error(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isTableFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var target map[model.Domain]*Table
		switch tableKind(name) {
		case "suppliers":
			target = ds.Suppliers
		case "products":
			target = ds.Products
		case "projects":
			target = ds.Projects
		default:
			continue
		}
		if _, seen := target[domain]; seen {
			continue
		}
		t, err := ReadTable(filepath.Join(dir, name))
		if err != nil {
			zap.L().Warn("dataset: skipping file", zap.String("file", name), zap.Error(err))
			continue
		}
		target[domain] = t
	}
}

// tableKind returns the suffix after the last underscore, e.g. "suppliers" for
// "GPS_suppliers.csv".
func tableKind(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.LastIndex(base, "_"); i >= 0 {
		base = base[i+1:]
	}
	return strings.ToLower(base)
}

func isTableFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range tableExts {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadTable reads a CSV or XLSX file into a Table named after the file.
func ReadTable(path string) (*Table, error) {
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		return fromRows(name, rows), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", name)
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(name, f)
}

// ReadCSV parses CSV text into a Table. Input that is not valid UTF-8 is
// decoded as Windows-1252. Malformed lines and lines with more fields than
// the header are skipped.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", name)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: decode %s", name)
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows    [][]string
		skipped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, eris.Wrapf(err, "dataset: parse %s", name)
		}
		rows = append(rows, record)
	}

	if len(rows) > 0 {
		width := len(rows[0])
		kept := rows[:1]
		for _, r := range rows[1:] {
			if len(r) > width {
				skipped++
				continue
			}
			kept = append(kept, r)
		}
		rows = kept
	}
	if skipped > 0 {
		zap.L().Debug("dataset: skipped bad lines", zap.String("table", name), zap.Int("skipped", skipped))
	}
	return fromRows(name, rows), nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open xlsx %s", filepath.Base(path))
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("dataset: xlsx %s has no sheets", filepath.Base(path))
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = xlsxValue(cell, f.Date1904)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsxValue renders date cells as ISO dates, matching what the CSV exports
// carry, and everything else as displayed.
func xlsxValue(cell *xlsx.Cell, date1904 bool) string {
	if cell.IsTime() {
		if t, err := cell.GetTime(date1904); err == nil {
			return t.Round(time.Second).Format(time.DateOnly)
		}
	}
	return cell.String()
}

func fromRows(name string, rows [][]string) *Table {
	if len(rows) == 0 {
		return NewTable(name, nil, nil)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return NewTable(name, header, rows[1:])
}
