package engine

import (
	"time"

	"github.com/rshade/carbonledger/internal/store"
)

// Record categories and fixed labels.
const (
	CategoryCarbon = "Carbon"
	CategoryWater  = "Water"
	CategoryEnergy = "Energy"

	SubCategoryWater  = "Water Quantities"
	SubCategoryEnergy = "Purchased Electricity (Energy)"

	DefaultCostUnit             = "EUR"
	DefaultWaterTransactionType = "Consumption"
	DefaultFuelType             = "Diesel Oil"
	EnergyEmissionFactor        = "Facility"
)

// EmissionRecord is one derived carbon, water or energy line. The JSON field
// names, including the "emisson" spelling, are the published contract.
type EmissionRecord struct {
	Name                  string   `json:"name"`
	OriginID              string   `json:"originId"`
	ProductName           string   `json:"productName"`
	Description           string   `json:"description"`
	OrganizationUnit      string   `json:"organizationUnit"`
	Facility              string   `json:"facility"`
	Provider              *string  `json:"provider"`
	Quantity              float64  `json:"quantity"`
	QuantityUnit          string   `json:"quantityUnit"`
	Cost                  float64  `json:"cost"`
	CostUnit              string   `json:"costUnit"`
	EmissionSource        string   `json:"emissonSource"`
	EmissionCategory      string   `json:"emissonCategory"`
	EmissionSubCategory   string   `json:"emissonSubCategory"`
	CO2E                  float64  `json:"CO2E"`
	CO2EUnit              string   `json:"CO2E_unit"`
	IsRenewable           *bool    `json:"isRenewable"`
	Timestamp             string   `json:"timestamp"`
	ConsumptionStartDate  string   `json:"consumptionStartDate"`
	ConsumptionEndDate    string   `json:"consumptionEndDate"`
	TransactionStartDate  string   `json:"transactionStartDate"`
	TransactionEndDate    string   `json:"transactionEndDate"`
	EmissionFactor        *string  `json:"emissionFactor"`
	EmissionFactorLibrary *string  `json:"emissionFactorLibrary"`
	WaterTransactionType  string   `json:"waterTransactionType"`
	FuelType              *string  `json:"fuelType"`
	DataQualityType       *string  `json:"dataQualityType"`
}

// Clone returns a deep copy; pointer fields are duplicated.
func (r EmissionRecord) Clone() EmissionRecord {
	out := r
	out.Provider = clonePtr(r.Provider)
	out.IsRenewable = clonePtr(r.IsRenewable)
	out.EmissionFactor = clonePtr(r.EmissionFactor)
	out.EmissionFactorLibrary = clonePtr(r.EmissionFactorLibrary)
	out.FuelType = clonePtr(r.FuelType)
	out.DataQualityType = clonePtr(r.DataQualityType)
	return out
}

// InvoiceContext is an invoice together with the owning product's name.
type InvoiceContext struct {
	Invoice     store.Invoice
	ProductID   string
	ProductName string
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func strPtr(s string) *string {
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// dateOr formats t, falling back to now when the invoice left it empty.
func dateOr(t *time.Time, now time.Time) string {
	if t == nil {
		return formatTime(now)
	}
	return formatTime(*t)
}

func firstNonNil(ps ...*string) *string {
	for _, p := range ps {
		if p != nil && *p != "" {
			return clonePtr(p)
		}
	}
	return nil
}
