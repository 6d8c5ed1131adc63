package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
)

// Product is a tracked product owned by a user.
type Product struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	UserID    string    `gorm:"size:36;not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName pins the table name.
func (Product) TableName() string { return "products" }

// Batch groups invoices registered against one product in the external ledger.
type Batch struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ProductID      string    `gorm:"size:36;not null;index" json:"product_id"`
	InformationURL string    `gorm:"size:2048;not null" json:"information_url"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

// TableName pins the table name.
func (Batch) TableName() string { return "batches" }

// Invoice is one supplier line of a batch. SupplierURL points at the live
// sustainability metrics for the purchased item.
type Invoice struct {
	ID                    string     `gorm:"primaryKey;size:36" json:"id"`
	BatchID               string     `gorm:"size:36;not null;index" json:"batch_id"`
	Facility              string     `gorm:"size:255;not null" json:"facility"`
	OrganizationalUnit    string     `gorm:"size:255;not null" json:"organizational_unit"`
	SupplierURL           string     `gorm:"size:2048;not null" json:"supplier_url"`
	SubCategory           string     `gorm:"size:255;not null" json:"sub_category"`
	InvoiceNumber         *string    `gorm:"size:255" json:"invoice_number,omitempty"`
	InvoiceDate           *time.Time `json:"invoice_date,omitempty"`
	EmissionsArePerUnit   *string    `gorm:"size:255" json:"emissions_are_per_unit,omitempty"`
	QuantityNeededPerUnit *string    `gorm:"size:255" json:"quantity_needed_per_unit,omitempty"`
	UnitsBought           *float64   `json:"units_bought,omitempty"`
	TotalAmount           *float64   `json:"total_amount,omitempty"`
	Currency              *string    `gorm:"size:50" json:"currency,omitempty"`
	TransactionStartDate  *time.Time `json:"transaction_start_date,omitempty"`
	TransactionEndDate    *time.Time `json:"transaction_end_date,omitempty"`
	CreatedAt             time.Time  `gorm:"not null" json:"created_at"`

	// Optional overrides for the derived record template.
	FuelType              *string `gorm:"size:255" json:"fuel_type,omitempty"`
	EmissionFactor        *string `gorm:"size:255" json:"emission_factor,omitempty"`
	EmissionFactorLibrary *string `gorm:"size:255" json:"emission_factor_library,omitempty"`
	WaterTransactionType  *string `gorm:"size:255" json:"water_transaction_type,omitempty"`
}

// TableName pins the table name.
func (Invoice) TableName() string { return "invoices" }

// HasSupplierURL reports whether the invoice points at a supplier data source.
func (i Invoice) HasSupplierURL() bool {
	return strings.TrimSpace(i.SupplierURL) != ""
}

// UnitModel returns the invoice's unit conversion context.
func (i Invoice) UnitModel() greenops.UnitModel {
	m := greenops.UnitModel{
		EmissionsArePerUnit:   deref(i.EmissionsArePerUnit),
		QuantityNeededPerUnit: deref(i.QuantityNeededPerUnit),
	}
	if i.UnitsBought != nil {
		m.UnitsBought = strconv.FormatFloat(*i.UnitsBought, 'g', -1, 64)
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
