package model

import (
	"strings"
	"time"
)

// Domain is the product category a supplier primarily serves.
type Domain string

const (
	DomainGPS         Domain = "GPS"
	DomainMedical     Domain = "Medical"
	DomainGovernment  Domain = "Government"
	DomainElectronics Domain = "Electronics"
	DomainOther       Domain = "Other"
)

// Domains lists every known domain in display order.
var Domains = []Domain{DomainGPS, DomainMedical, DomainGovernment, DomainElectronics, DomainOther}

// ParseDomain maps a free-text category to a Domain, case-insensitively.
// Unknown values map to DomainOther.
func ParseDomain(s string) Domain {
	for _, d := range Domains {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d
		}
	}
	return DomainOther
}

// LinkedProduct is a product row attached to a supplier by the normalizer.
type LinkedProduct struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	ExpireDate string `json:"expire_date,omitempty"` // raw cell value, parsed lazily
}

// SupplierRecord is one normalized supplier row. City and Country are nil when
// the source table had no resolvable column or the cell was blank.
type SupplierRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Domain   Domain          `json:"domain"`
	City     *string         `json:"city,omitempty"`
	Country  *string         `json:"country,omitempty"`
	Products []LinkedProduct `json:"products,omitempty"`
}

// CityValue returns the city or "" when unset.
func (s SupplierRecord) CityValue() string {
	if s.City == nil {
		return ""
	}
	return *s.City
}

// CountryValue returns the country or "" when unset.
func (s SupplierRecord) CountryValue() string {
	if s.Country == nil {
		return ""
	}
	return *s.Country
}

// ComplaintStats summarizes the complaint history of one supplier.
type ComplaintStats struct {
	Count           int     `json:"count"`
	AverageSeverity float64 `json:"average_severity"`
}

// FactorSet holds the six independent factor values for one supplier.
type FactorSet struct {
	Complaint    float64 `json:"complaint"`
	Weather      float64 `json:"weather"`
	Tariff       float64 `json:"tariff"`
	ProductMatch float64 `json:"product_match"`
	Expiration   float64 `json:"expiration"`
	Distance     float64 `json:"distance"`
}

// Sum returns the total of all six factors.
func (f FactorSet) Sum() float64 {
	return f.Complaint + f.Weather + f.Tariff + f.ProductMatch + f.Expiration + f.Distance
}

// Map returns the factors keyed by name, in the order they are displayed.
func (f FactorSet) Map() map[string]float64 {
	return map[string]float64{
		"complaint":     f.Complaint,
		"weather":       f.Weather,
		"tariff":        f.Tariff,
		"product_match": f.ProductMatch,
		"expiration":    f.Expiration,
		"distance":      f.Distance,
	}
}

// ScoredSupplier is a supplier with its factors and composite score.
//
// Subtotal is the deterministic part (base + factors); Tiebreak is the
// bounded random draw mixed into CompositeScore to order otherwise-equal
// candidates. Tiebreak is never part of Factors.
type ScoredSupplier struct {
	Supplier       SupplierRecord `json:"supplier"`
	Factors        FactorSet      `json:"factors"`
	Subtotal       float64        `json:"subtotal"`
	Tiebreak       float64        `json:"tiebreak"`
	CompositeScore float64        `json:"composite_score"`
	ComplaintCount int            `json:"complaint_count"`
	Location       string         `json:"location,omitempty"` // resolved location query, empty if invalid
}

// ProductInfo describes the requested product.
type ProductInfo struct {
	Category           string `json:"category"`
	Name               string `json:"name"`
	SourceLocation     string `json:"source_location,omitempty"`
	ClassificationCode string `json:"classification_code"`
	ClassificationFrom string `json:"classification_from"` // "collaborator" or "fallback"
}

// Recommendation is the output payload of one recommendation request.
type Recommendation struct {
	RequestID      string           `json:"request_id"`
	Product        ProductInfo      `json:"product"`
	TopSuppliers   []ScoredSupplier `json:"top_suppliers"`
	Explanation    string           `json:"explanation"`
	SuppliersTotal int              `json:"suppliers_total"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
