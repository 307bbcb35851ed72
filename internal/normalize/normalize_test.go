package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-cli/internal/dataset"
	"github.com/sells-group/supplier-cli/internal/model"
)

func TestSuppliers_FusesDomainsInOrder(t *testing.T) {
	ds := dataset.New()
	ds.Suppliers[model.DomainGovernment] = dataset.NewTable("sge", []string{"ID", "Name", "state"}, [][]string{
		{"G1", "GovSupply", "Texas"},
	})
	ds.Suppliers[model.DomainGPS] = dataset.NewTable("gps", []string{"ID", "Name", "City", "Country"}, [][]string{
		{"1", "NavCo", "Austin", "United States"},
		{"2", "", "", ""},
	})

	recs := Suppliers(ds)
	require.Len(t, recs, 3)

	assert.Equal(t, model.DomainGPS, recs[0].Domain)
	assert.Equal(t, "NavCo", recs[0].Name)
	assert.Equal(t, "Austin", recs[0].CityValue())
	assert.Equal(t, "United States", recs[0].CountryValue())

	assert.Equal(t, "Unknown", recs[1].Name)
	assert.Nil(t, recs[1].City, "blank city stays unset")
	assert.Nil(t, recs[1].Country)

	assert.Equal(t, model.DomainGovernment, recs[2].Domain)
	assert.Nil(t, recs[2].City, "no city column resolves")
	assert.Equal(t, "Texas", recs[2].CountryValue(), "state used as country")
}

func TestSuppliers_MissingTablesContributeNothing(t *testing.T) {
	assert.Empty(t, Suppliers(dataset.New()))
	assert.Nil(t, Suppliers(nil))
}

func TestSuppliers_LinksGovernmentProducts(t *testing.T) {
	ds := dataset.New()
	ds.Suppliers[model.DomainGovernment] = dataset.NewTable("sge", []string{"ID", "Name"}, [][]string{
		{"10", "GovSupply"},
		{"11", "Other"},
	})
	ds.Products[model.DomainGovernment] = dataset.NewTable("prod", []string{"Product ID", "Supplier ID", "Product Name", "Expire Date"}, [][]string{
		{"p1", "10", "Kit", "2020-01-01"},
		{"p2", "10", "Mask", ""},
		{"p3", "12", "Gloves", "2030-01-01"},
	})
	ds.Products[model.DomainGPS] = dataset.NewTable("gps", []string{"Supplier ID"}, [][]string{{"10"}})

	recs := Suppliers(ds)
	require.Len(t, recs, 2)
	require.Len(t, recs[0].Products, 2)
	assert.Equal(t, "p1", recs[0].Products[0].ID)
	assert.Equal(t, "2020-01-01", recs[0].Products[0].ExpireDate)
	assert.Equal(t, "", recs[0].Products[1].ExpireDate)
	assert.Empty(t, recs[1].Products)
}

func TestSuppliers_WhitespaceCityIsPresent(t *testing.T) {
	ds := dataset.New()
	ds.Suppliers[model.DomainMedical] = dataset.NewTable("med", []string{"id", "name", "CITY"}, [][]string{
		{"m1", "MedCo", "   "},
	})
	recs := Suppliers(ds)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].City)
	assert.Equal(t, "   ", *recs[0].City)
}
