package factor

import (
	"strings"

	"github.com/sells-group/supplier-cli/internal/model"
)

// DefaultCountry is assumed when a supplier has no country.
const DefaultCountry = "United States"

// DefaultTradeCode is the reporter code used for unrecognized countries.
const DefaultTradeCode = "C840"

// TradeCodes maps country names to WTO reporter member codes.
var TradeCodes = map[string]string{
	"united states":  "C840",
	"china":          "C156",
	"india":          "C356",
	"germany":        "C276",
	"united kingdom": "C826",
}

// TradeCode returns the WTO reporter code for a country name,
// case-insensitively, or DefaultTradeCode.
func TradeCode(country string) string {
	if code, ok := TradeCodes[strings.ToLower(strings.TrimSpace(country))]; ok {
		return code
	}
	return DefaultTradeCode
}

// companyTerms mark a city cell that actually holds a company name.
var companyTerms = []string{"llc", "inc", "incorporated", "company", "corp", "corporation"}

// LocationStatus classifies a supplier's location data.
type LocationStatus int

const (
	// LocationMissing means no city data at all (no column or blank cell).
	LocationMissing LocationStatus = iota
	// LocationInvalid means a city value exists but is unusable.
	LocationInvalid
	// LocationValid means Query can be sent to providers.
	LocationValid
)

// String implements fmt.Stringer.
func (s LocationStatus) String() string {
	switch s {
	case LocationInvalid:
		return "invalid"
	case LocationValid:
		return "valid"
	default:
		return "missing"
	}
}

// Location is the resolved supplier location.
type Location struct {
	Status LocationStatus
	// Query is "city, country" when Status is LocationValid.
	Query string
	// Country is the supplier country or DefaultCountry.
	Country string
}

// ResolveLocation classifies a supplier's city and builds the provider query.
// The country defaults to DefaultCountry here, not in the normalizer.
func ResolveLocation(rec model.SupplierRecord) Location {
	country := strings.TrimSpace(rec.CountryValue())
	if country == "" {
		country = DefaultCountry
	}
	loc := Location{Country: country}

	if rec.City == nil {
		loc.Status = LocationMissing
		return loc
	}
	city := strings.TrimSpace(*rec.City)
	if city == "" || looksLikeCompany(city) {
		loc.Status = LocationInvalid
		return loc
	}
	loc.Status = LocationValid
	loc.Query = city + ", " + country
	return loc
}

func looksLikeCompany(city string) bool {
	lower := strings.ToLower(city)
	for _, term := range companyTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
