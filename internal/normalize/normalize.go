// Package normalize merges per-domain supplier tables into one uniform
// collection of model.SupplierRecord.
package normalize

import (
	"strings"

	"github.com/sells-group/supplier-cli/internal/dataset"
	"github.com/sells-group/supplier-cli/internal/model"
)

// SourceDomains is the order in which domain tables are fused.
var SourceDomains = []model.Domain{model.DomainGPS, model.DomainMedical, model.DomainGovernment}

// Column aliases, resolved case/spelling tolerantly by dataset.Table.
var (
	idColumns      = []string{"ID", "Supplier ID", "SupplierID"}
	nameColumns    = []string{"Name", "Supplier Name", "Company"}
	cityColumns    = []string{"City"}
	countryColumns = []string{"Country", "State"}

	productSupplierColumns = []string{"Supplier ID", "SupplierID"}
	productIDColumns       = []string{"Product ID", "ID"}
	productNameColumns     = []string{"Product Name", "Product", "Name"}
	productExpireColumns   = []string{"Expire Date", "Expiry Date", "Expiration Date"}
)

const unknownName = "Unknown"

// Suppliers returns every supplier row in ds stamped with its source domain.
// A domain without a table contributes nothing. Government suppliers carry
// their linked product rows.
func Suppliers(ds *dataset.Dataset) []model.SupplierRecord {
	if ds == nil {
		return nil
	}

	var out []model.SupplierRecord
	for _, domain := range SourceDomains {
		tbl := ds.Suppliers[domain]
		if tbl.Len() == 0 {
			continue
		}

		var products map[string][]model.LinkedProduct
		if domain == model.DomainGovernment {
			products = linkProducts(ds.Products[domain])
		}

		idCol := tbl.Column(idColumns...)
		nameCol := tbl.Column(nameColumns...)
		cityCol := tbl.Column(cityColumns...)
		countryCol := tbl.Column(countryColumns...)

		for i := range tbl.Rows {
			rec := model.SupplierRecord{Domain: domain, Name: unknownName}
			if v, ok := tbl.Value(i, idCol); ok {
				rec.ID = strings.TrimSpace(v)
			}
			if v, ok := tbl.Value(i, nameCol); ok {
				rec.Name = v
			}
			rec.City = optional(tbl, i, cityCol)
			rec.Country = optional(tbl, i, countryCol)
			if products != nil && rec.ID != "" {
				rec.Products = products[rec.ID]
			}
			out = append(out, rec)
		}
	}
	return out
}

// optional returns a pointer to the cell value, or nil when the column did
// not resolve or the cell is blank.
func optional(tbl *dataset.Table, row, col int) *string {
	v, ok := tbl.Value(row, col)
	if !ok {
		return nil
	}
	return &v
}

func linkProducts(tbl *dataset.Table) map[string][]model.LinkedProduct {
	out := make(map[string][]model.LinkedProduct)
	supCol := tbl.Column(productSupplierColumns...)
	if supCol < 0 {
		return out
	}
	idCol := tbl.Column(productIDColumns...)
	nameCol := tbl.Column(productNameColumns...)
	expCol := tbl.Column(productExpireColumns...)

	for i := 0; i < tbl.Len(); i++ {
		sid, ok := tbl.Value(i, supCol)
		if !ok {
			continue
		}
		p := model.LinkedProduct{}
		if idCol != supCol {
			p.ID, _ = tbl.Value(i, idCol)
		}
		p.Name, _ = tbl.Value(i, nameCol)
		p.ExpireDate, _ = tbl.Value(i, expCol)
		sid = strings.TrimSpace(sid)
		out[sid] = append(out[sid], p)
	}
	return out
}
