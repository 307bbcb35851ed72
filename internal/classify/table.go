package classify

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultCode is returned when nothing in the table matches.
const DefaultCode = "8526"

var codePattern = regexp.MustCompile(`\d{4}`)

// Entry maps a category keyword to a 4-digit HS code.
type Entry struct {
	Keyword string `yaml:"keyword"`
	Code    string `yaml:"code"`
}

// Table is an ordered keyword table. Order matters: the first partial match
// wins.
type Table []Entry

// DefaultTable returns the built-in keyword table.
func DefaultTable() Table {
	return Table{
		{"GPS", "8526"},
		{"Navigation", "8526"},
		{"Medical", "9018"},
		{"Pharmaceutical", "3004"},
		{"Electronics", "8517"},
		{"Computer", "8471"},
		{"Software", "8523"},
		{"Automobile", "8703"},
		{"Machinery", "8479"},
		{"Textile", "6001"},
		{"Food", "2106"},
		{"Chemical", "3824"},
		{"Metal", "7326"},
		{"Plastic", "3926"},
		{"Wood", "4421"},
		{"Furniture", "9403"},
		{"Lighting", "9405"},
		{"Tool", "8207"},
		{"Toy", "9503"},
		{"Sports", "9506"},
	}
}

type tableFile struct {
	Entries []Entry `yaml:"entries"`
}

// LoadTable reads a YAML table of the form:
//
//	entries:
//	  - keyword: GPS
//	    code: "8526"
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: read table %s", path)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "classify: parse table %s", path)
	}
	if len(f.Entries) == 0 {
		return nil, eris.Errorf("classify: table %s has no entries", path)
	}
	for i, e := range f.Entries {
		if strings.TrimSpace(e.Keyword) == "" {
			return nil, eris.Errorf("classify: table entry %d has no keyword", i)
		}
		if !isCode(e.Code) {
			return nil, eris.Errorf("classify: table entry %q has invalid code %q", e.Keyword, e.Code)
		}
	}
	return Table(f.Entries), nil
}

// Lookup resolves a code from the table: exact category, then partial
// category or product-name match in table order, then broad keyword hints,
// then DefaultCode. An empty category or keyword never matches.
func (t Table) Lookup(productName, category string) string {
	for _, e := range t {
		if category != "" && e.Keyword == category {
			return e.Code
		}
	}

	name := strings.ToLower(productName)
	cat := strings.ToLower(category)
	for _, e := range t {
		kw := strings.ToLower(e.Keyword)
		if kw == "" {
			continue
		}
		if cat != "" && (strings.Contains(cat, kw) || strings.Contains(kw, cat)) {
			return e.Code
		}
		if strings.Contains(name, kw) {
			return e.Code
		}
	}

	switch {
	case strings.Contains(cat, "gps") || strings.Contains(name, "navigation"):
		return "8526"
	case strings.Contains(cat, "medical") || strings.Contains(name, "health"):
		return "9018"
	case strings.Contains(cat, "electronic") || strings.Contains(name, "device"):
		return "8517"
	}
	return DefaultCode
}

// ExtractCode returns the first 4-digit run in s, or "".
func ExtractCode(s string) string {
	return codePattern.FindString(s)
}

func isCode(s string) bool {
	return len(s) == 4 && codePattern.MatchString(s)
}
