// Package greenops classifies supplier sustainability metrics into emission
// domains and converts raw metric values into per-purchased-unit quantities.
//
// Both operations are pure: classification never fails, and normalization
// reports problems through sentinel errors so callers can treat a bad unit
// model as a zero contribution instead of aborting.
package greenops

import "fmt"

// Category is the emission domain a sustainability metric belongs to.
type Category int

const (
	// CategoryUnknown is returned for any metric name outside the fixed table.
	CategoryUnknown Category = iota

	// CategoryScope1 covers direct emissions (combustion, process emissions).
	CategoryScope1

	// CategoryScope2 covers indirect emissions from purchased energy.
	CategoryScope2

	// CategoryScope3 covers indirect supply-chain emissions.
	CategoryScope3

	// CategoryWater covers water quantity and quality metrics.
	CategoryWater

	// CategoryEnergy covers energy consumption metrics.
	CategoryEnergy
)

// String returns the display label of the category, e.g. "Scope 2".
func (c Category) String() string {
	switch c {
	case CategoryUnknown:
		return "Unknown"
	case CategoryScope1:
		return "Scope 1"
	case CategoryScope2:
		return "Scope 2"
	case CategoryScope3:
		return "Scope 3"
	case CategoryWater:
		return "Water"
	case CategoryEnergy:
		return "Energy"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// IsCarbon reports whether the category accumulates into the carbon total.
func (c Category) IsCarbon() bool {
	return c == CategoryScope1 || c == CategoryScope2 || c == CategoryScope3
}

// UnitModel is the per-invoice unit conversion context.
//
// All fields are kept as text because the store holds them as free-form
// columns; an empty field means "absent" and takes its documented default.
type UnitModel struct {
	// EmissionsArePerUnit is "YES" or "NO" (default "NO").
	EmissionsArePerUnit string `json:"emissions_are_per_unit"`

	// QuantityNeededPerUnit is how many supplier units one product needs (default 1).
	QuantityNeededPerUnit string `json:"quantity_needed_per_unit"`

	// UnitsBought is the number of supplier units on the invoice (default 1).
	UnitsBought string `json:"units_bought"`
}

// Totals accumulates normalized values per output domain.
type Totals struct {
	Carbon float64 `json:"carbon"`
	Water  float64 `json:"water"`
	Energy float64 `json:"energy"`
}

// Add accumulates value into the total that owns category.
// Unknown categories are dropped and Add reports false for them.
func (t *Totals) Add(category Category, value float64) bool {
	switch {
	case category.IsCarbon():
		t.Carbon += value
	case category == CategoryWater:
		t.Water += value
	case category == CategoryEnergy:
		t.Energy += value
	default:
		return false
	}
	return true
}

// Merge adds other into t.
func (t *Totals) Merge(other Totals) {
	t.Carbon += other.Carbon
	t.Water += other.Water
	t.Energy += other.Energy
}

// IsZero reports whether no domain has a positive total.
func (t Totals) IsZero() bool {
	return t.Carbon <= 0 && t.Water <= 0 && t.Energy <= 0
}
