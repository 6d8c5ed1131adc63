package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// ErrEmptyFixture is returned when a fixture declares no products.
var ErrEmptyFixture = errors.New("fixture contains no products")

// Fixture is the YAML document accepted by Seed.
//
//	products:
//	  - name: Oat Milk 1L
//	    user_id: 7d9f...
//	    batches:
//	      - information_url: https://ledger.example/batches/42
//	        invoices:
//	          - facility: Plant A
//	            organizational_unit: Dairy
//	            supplier_url: https://supplier.example/items/9
//	            sub_category: Purchased Electricity
//	            emissions_are_per_unit: "YES"
//	            quantity_needed_per_unit: "2"
//	            units_bought: 10
type Fixture struct {
	Products []FixtureProduct `yaml:"products"`
}

// FixtureProduct is a product with its batches.
type FixtureProduct struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	UserID  string         `yaml:"user_id"`
	Batches []FixtureBatch `yaml:"batches"`
}

// FixtureBatch is a batch with its invoices.
type FixtureBatch struct {
	ID             string           `yaml:"id"`
	InformationURL string           `yaml:"information_url"`
	Invoices       []FixtureInvoice `yaml:"invoices"`
}

// FixtureInvoice mirrors Invoice with YAML-friendly field types.
type FixtureInvoice struct {
	ID                    string   `yaml:"id"`
	Facility              string   `yaml:"facility"`
	OrganizationalUnit    string   `yaml:"organizational_unit"`
	SupplierURL           string   `yaml:"supplier_url"`
	SubCategory           string   `yaml:"sub_category"`
	InvoiceNumber         string   `yaml:"invoice_number"`
	InvoiceDate           string   `yaml:"invoice_date"`
	EmissionsArePerUnit   string   `yaml:"emissions_are_per_unit"`
	QuantityNeededPerUnit string   `yaml:"quantity_needed_per_unit"`
	UnitsBought           *float64 `yaml:"units_bought"`
	TotalAmount           *float64 `yaml:"total_amount"`
	Currency              string   `yaml:"currency"`
	TransactionStartDate  string   `yaml:"transaction_start_date"`
	TransactionEndDate    string   `yaml:"transaction_end_date"`
	FuelType              string   `yaml:"fuel_type"`
	EmissionFactor        string   `yaml:"emission_factor"`
	EmissionFactorLibrary string   `yaml:"emission_factor_library"`
	WaterTransactionType  string   `yaml:"water_transaction_type"`
}

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Products int `json:"products"`
	Batches  int `json:"batches"`
	Invoices int `json:"invoices"`
}

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f Fixture
	if unmarshalErr := yaml.Unmarshal(data, &f); unmarshalErr != nil {
		return nil, fmt.Errorf("parsing fixture: %w", unmarshalErr)
	}
	return &f, nil
}

// Seed inserts the fixture in a single transaction. Missing IDs are generated.
func (s *Store) Seed(ctx context.Context, f *Fixture) (SeedResult, error) {
	var result SeedResult
	if f == nil || len(f.Products) == 0 {
		return result, ErrEmptyFixture
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fp := range f.Products {
			product := Product{ID: idOrNew(fp.ID), Name: fp.Name, UserID: fp.UserID, CreatedAt: now}
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("inserting product %q: %w", fp.Name, err)
			}
			result.Products++

			for _, fb := range fp.Batches {
				b := Batch{ID: idOrNew(fb.ID), ProductID: product.ID, InformationURL: fb.InformationURL, CreatedAt: now}
				if err := tx.Create(&b).Error; err != nil {
					return fmt.Errorf("inserting batch for %q: %w", fp.Name, err)
				}
				result.Batches++

				for _, fi := range fb.Invoices {
					inv, err := fi.toInvoice(b.ID, now)
					if err != nil {
						return err
					}
					if createErr := tx.Create(&inv).Error; createErr != nil {
						return fmt.Errorf("inserting invoice %s: %w", inv.ID, createErr)
					}
					result.Invoices++
				}
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	s.log.Info().Int("products", result.Products).Int("batches", result.Batches).
		Int("invoices", result.Invoices).Msg("store seeded")
	return result, nil
}

func (fi FixtureInvoice) toInvoice(batchID string, now time.Time) (Invoice, error) {
	inv := Invoice{
		ID:                    idOrNew(fi.ID),
		BatchID:               batchID,
		Facility:              fi.Facility,
		OrganizationalUnit:    fi.OrganizationalUnit,
		SupplierURL:           fi.SupplierURL,
		SubCategory:           fi.SubCategory,
		InvoiceNumber:         optional(fi.InvoiceNumber),
		EmissionsArePerUnit:   optional(fi.EmissionsArePerUnit),
		QuantityNeededPerUnit: optional(fi.QuantityNeededPerUnit),
		UnitsBought:           fi.UnitsBought,
		TotalAmount:           fi.TotalAmount,
		Currency:              optional(fi.Currency),
		FuelType:              optional(fi.FuelType),
		EmissionFactor:        optional(fi.EmissionFactor),
		EmissionFactorLibrary: optional(fi.EmissionFactorLibrary),
		WaterTransactionType:  optional(fi.WaterTransactionType),
		CreatedAt:             now,
	}

	dates := []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"invoice_date", fi.InvoiceDate, &inv.InvoiceDate},
		{"transaction_start_date", fi.TransactionStartDate, &inv.TransactionStartDate},
		{"transaction_end_date", fi.TransactionEndDate, &inv.TransactionEndDate},
	}
	for _, d := range dates {
		parsed, err := parseDate(d.raw)
		if err != nil {
			return Invoice{}, fmt.Errorf("invoice %s %s: %w", inv.ID, d.name, err)
		}
		*d.dst = parsed
	}
	return inv, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339; empty yields nil.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", raw)
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
