package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/store"
	"github.com/rshade/carbonledger/internal/supplier"
)

var fixedNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

const fixedNowText = "2025-01-02T03:04:05Z"

func ptr[T any](v T) *T { return &v }

func invoiceCtx(perUnit, quantity string, units *float64) InvoiceContext {
	inv := store.Invoice{
		ID:                 "inv-1",
		BatchID:            "b-1",
		Facility:           "Plant A",
		OrganizationalUnit: "Dairy",
		SupplierURL:        "https://supplier.example/1",
		SubCategory:        "Purchased Electricity",
		UnitsBought:        units,
	}
	if perUnit != "" {
		inv.EmissionsArePerUnit = ptr(perUnit)
	}
	if quantity != "" {
		inv.QuantityNeededPerUnit = ptr(quantity)
	}
	return InvoiceContext{Invoice: inv, ProductID: "p-1", ProductName: "Oat Milk"}
}

func metrics(pairs ...any) *supplier.Data {
	list := make([]map[string]any, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		list = append(list, map[string]any{"name": pairs[i], "value": pairs[i+1]})
	}
	body, _ := json.Marshal(map[string]any{
		"name":                   "Supplier Item",
		"product_id":             "sku-9",
		"manufacturer":           map[string]any{"name": "ACME"},
		"sustainability_metrics": list,
	})
	return parsePayload(string(body))
}

func byCategory(records []EmissionRecord) map[string]EmissionRecord {
	out := make(map[string]EmissionRecord, len(records))
	for _, r := range records {
		out[r.EmissionCategory] = r
	}
	return out
}

func TestBuild_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		inv       InvoiceContext
		data      *supplier.Data
		wantCO2E  float64
		wantCount int
	}{
		{
			name:      "per unit YES multiplies by quantity",
			inv:       invoiceCtx("YES", "2", ptr(10.0)),
			data:      metrics("Purchased Electricity", 5),
			wantCO2E:  10,
			wantCount: 1,
		},
		{
			name:      "per unit NO divides by units bought",
			inv:       invoiceCtx("NO", "2", ptr(10.0)),
			data:      metrics("Purchased Electricity", 5),
			wantCO2E:  1,
			wantCount: 1,
		},
		{
			name:      "unmapped metric is dropped",
			inv:       invoiceCtx("YES", "1", nil),
			data:      metrics("Unmapped Thing", 99),
			wantCount: 0,
		},
		{
			name:      "defaults apply when unit model is empty",
			inv:       invoiceCtx("", "", nil),
			data:      metrics("Business Travel", 4, "Mobile Combustion", 1.5),
			wantCO2E:  5.5,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Build(tt.inv, tt.data, fixedNow)
			require.Len(t, records, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			r := records[0]
			assert.Equal(t, CategoryCarbon, r.EmissionCategory)
			assert.InDelta(t, tt.wantCO2E, r.CO2E, 1e-9)
			assert.InDelta(t, tt.wantCO2E, r.Quantity, 1e-9)
			assert.Equal(t, "kg", r.QuantityUnit)
			assert.Equal(t, "kg", r.CO2EUnit)
		})
	}
}

func TestBuild_WaterMetricsSumIntoOneRecord(t *testing.T) {
	records := Build(invoiceCtx("YES", "1", nil), metrics("Water Quantities", 3, "Water Quality", 2), fixedNow)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, CategoryWater, r.EmissionCategory)
	assert.Equal(t, CategoryWater, r.EmissionSource)
	assert.Equal(t, SubCategoryWater, r.EmissionSubCategory)
	assert.InDelta(t, 5.0, r.Quantity, 1e-9)
	assert.Equal(t, "Cubic meters", r.QuantityUnit)
	assert.Zero(t, r.CO2E)
	assert.Nil(t, r.FuelType)
}

func TestBuild_AllThreeDomains(t *testing.T) {
	inv := invoiceCtx("YES", "2", nil)
	records := Build(inv, metrics(
		"Stationary Combustion", 1,
		"Purchased Electricity (Energy)", 4,
		"Water Quantities", 0.5,
	), fixedNow)
	require.Len(t, records, 3)

	got := byCategory(records)
	carbon := got[CategoryCarbon]
	assert.Equal(t, "Scope 2", carbon.EmissionSource)
	assert.Equal(t, "Purchased Electricity", carbon.EmissionSubCategory)
	require.NotNil(t, carbon.FuelType)
	assert.Equal(t, DefaultFuelType, *carbon.FuelType)
	assert.InDelta(t, 2.0, carbon.CO2E, 1e-9)

	energy := got[CategoryEnergy]
	assert.Equal(t, SubCategoryEnergy, energy.EmissionSubCategory)
	assert.Equal(t, "kWh", energy.QuantityUnit)
	assert.InDelta(t, 8.0, energy.Quantity, 1e-9)
	assert.Zero(t, energy.CO2E)
	require.NotNil(t, energy.EmissionFactor)
	assert.Equal(t, EnergyEmissionFactor, *energy.EmissionFactor)
	assert.Nil(t, energy.FuelType)

	assert.InDelta(t, 1.0, got[CategoryWater].Quantity, 1e-9)
}

func TestBuild_NonPositiveTotalsEmitNothing(t *testing.T) {
	tests := []struct {
		name string
		data *supplier.Data
	}{
		{"zero water", metrics("Water Quantities", 0)},
		{"negative carbon", metrics("Waste Disposal", -3)},
		{"cancelling metrics", metrics("Waste Disposal", 2, "Business Travel", -2)},
		{"no metrics list", parsePayload(`{"name":"x"}`)},
		{"nil data", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Build(invoiceCtx("YES", "1", nil), tt.data, fixedNow)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestBuild_BadUnitModelContributesZero(t *testing.T) {
	tests := []struct {
		name    string
		inv     InvoiceContext
		wantErr error
	}{
		{"units bought zero", invoiceCtx("NO", "2", ptr(0.0)), greenops.ErrDivisionByZero},
		{"non numeric quantity", invoiceCtx("YES", "two", nil), greenops.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, totals, err := build(tt.inv, metrics("Purchased Heat", 5), fixedNow)
			assert.Empty(t, records)
			assert.True(t, totals.IsZero())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuild_TemplateDefaults(t *testing.T) {
	records := Build(invoiceCtx("YES", "1", nil), metrics("Purchased Steam", 1), fixedNow)
	require.Len(t, records, 1)
	r := records[0]

	assert.Equal(t, "Supplier Item", r.Name)
	assert.Equal(t, "sku-9", r.OriginID)
	assert.Equal(t, "Oat Milk", r.ProductName)
	assert.Equal(t, "Dairy", r.OrganizationUnit)
	assert.Equal(t, "Plant A", r.Facility)
	require.NotNil(t, r.Provider)
	assert.Equal(t, "ACME", *r.Provider)
	assert.Zero(t, r.Cost)
	assert.Equal(t, "EUR", r.CostUnit)
	assert.Equal(t, fixedNowText, r.Timestamp)
	assert.Equal(t, fixedNowText, r.ConsumptionStartDate)
	assert.Equal(t, fixedNowText, r.ConsumptionEndDate)
	assert.Equal(t, fixedNowText, r.TransactionStartDate)
	assert.Equal(t, fixedNowText, r.TransactionEndDate)
	assert.Nil(t, r.EmissionFactor)
	assert.Nil(t, r.EmissionFactorLibrary)
	assert.Equal(t, "Consumption", r.WaterTransactionType)
	assert.Nil(t, r.IsRenewable)
	assert.Nil(t, r.DataQualityType)
}

func TestBuild_TemplateOverrides(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	inv := invoiceCtx("YES", "1", nil)
	inv.ProductName = ""
	inv.Invoice.TotalAmount = ptr(120.5)
	inv.Invoice.Currency = ptr("USD")
	inv.Invoice.TransactionStartDate = &start
	inv.Invoice.TransactionEndDate = &end
	inv.Invoice.FuelType = ptr("Natural Gas")
	inv.Invoice.EmissionFactor = ptr("0.233")
	inv.Invoice.WaterTransactionType = ptr("Withdrawal")

	data := parsePayload(`{
		"name": "Boiler Gas",
		"timestamp": "2024-04-01T00:00:00Z",
		"emission_factor": 0.5,
		"emission_factor_library": "DEFRA",
		"sustainability_metrics": [{"name": "Stationary Combustion", "value": 7}]
	}`)

	records := Build(inv, data, fixedNow)
	require.Len(t, records, 1)
	r := records[0]

	assert.Equal(t, "Boiler Gas", r.ProductName)
	assert.Nil(t, r.Provider)
	assert.InDelta(t, 120.5, r.Cost, 0)
	assert.Equal(t, "USD", r.CostUnit)
	assert.Equal(t, "2024-04-01T00:00:00Z", r.Timestamp)
	assert.Equal(t, "2024-03-01T00:00:00Z", r.TransactionStartDate)
	assert.Equal(t, "2024-03-31T00:00:00Z", r.ConsumptionEndDate)
	assert.Equal(t, "Natural Gas", *r.FuelType)
	assert.Equal(t, "0.233", *r.EmissionFactor)
	assert.Equal(t, "DEFRA", *r.EmissionFactorLibrary)
	assert.Equal(t, "Withdrawal", r.WaterTransactionType)
	assert.Equal(t, "Scope 2", r.EmissionSource)
}

func TestBuild_RecordsAreIndependent(t *testing.T) {
	data := parsePayload(`{
		"manufacturer": {"name": "ACME"},
		"emission_factor": "0.1",
		"sustainability_metrics": [
			{"name": "Process Emissions", "value": 1},
			{"name": "Water Quality", "value": 1},
			{"name": "Purchased Electricity (Energy)", "value": 1}
		]
	}`)
	records := Build(invoiceCtx("YES", "1", nil), data, fixedNow)
	require.Len(t, records, 3)

	*records[0].Provider = "changed"
	*records[0].EmissionFactor = "changed"
	records[0].Facility = "changed"

	for _, r := range records[1:] {
		assert.Equal(t, "ACME", *r.Provider)
		assert.Equal(t, "Plant A", r.Facility)
	}
	assert.Equal(t, "0.1", *byCategory(records)[CategoryWater].EmissionFactor)
	assert.Equal(t, "ACME", *data.ManufacturerName())
}

func TestEmissionRecord_JSONFieldNames(t *testing.T) {
	records := Build(invoiceCtx("YES", "1", nil), metrics("Purchased Cooling", 1), fixedNow)
	require.Len(t, records, 1)

	raw, err := json.Marshal(records[0])
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))

	want := []string{
		"name", "originId", "productName", "description", "organizationUnit", "facility",
		"provider", "quantity", "quantityUnit", "cost", "costUnit", "emissonSource",
		"emissonCategory", "emissonSubCategory", "CO2E", "CO2E_unit", "isRenewable",
		"timestamp", "consumptionStartDate", "consumptionEndDate", "transactionStartDate",
		"transactionEndDate", "emissionFactor", "emissionFactorLibrary",
		"waterTransactionType", "fuelType", "dataQualityType",
	}
	assert.Len(t, fields, len(want))
	for _, k := range want {
		assert.Contains(t, fields, k)
	}
	assert.Nil(t, fields["isRenewable"])
	assert.Nil(t, fields["dataQualityType"])
}

// parsePayload decodes a supplier body literal known to be valid.
func parsePayload(body string) *supplier.Data {
	d, err := supplier.Parse([]byte(body))
	if err != nil {
		panic(err)
	}
	return d
}
