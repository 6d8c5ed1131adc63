package pagination

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/rshade/carbonledger/internal/engine"
)

// Sorter sorts items of one type by a named field.
type Sorter[T any] struct {
	fields map[string]func(a, b T) int
}

// Sort returns a sorted copy of items. The original is never modified.
func (s Sorter[T]) Sort(items []T, field, order string) ([]T, error) {
	compare, ok := s.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %v)", ErrInvalidSortField, field, s.ValidFields())
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if order == SortOrderDesc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return sorted, nil
}

// SortExpr parses expr and sorts items accordingly. An empty expr returns items unchanged.
func (s Sorter[T]) SortExpr(items []T, expr string) ([]T, error) {
	if expr == "" {
		return items, nil
	}
	field, order, err := ParseSort(expr)
	if err != nil {
		return nil, err
	}
	return s.Sort(items, field, order)
}

// IsValidField checks if the field is valid for sorting.
func (s Sorter[T]) IsValidField(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// ValidFields returns all valid sort fields in alphabetical order.
func (s Sorter[T]) ValidFields() []string {
	fields := make([]string, 0, len(s.fields))
	for f := range s.fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// NewRecordSorter sorts emission records.
func NewRecordSorter() Sorter[engine.EmissionRecord] {
	return Sorter[engine.EmissionRecord]{fields: map[string]func(a, b engine.EmissionRecord) int{
		"co2e":     func(a, b engine.EmissionRecord) int { return cmp.Compare(a.CO2E, b.CO2E) },
		"quantity": func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Quantity, b.Quantity) },
		"product":  func(a, b engine.EmissionRecord) int { return cmp.Compare(a.ProductName, b.ProductName) },
		"category": func(a, b engine.EmissionRecord) int { return cmp.Compare(a.EmissionCategory, b.EmissionCategory) },
		"facility": func(a, b engine.EmissionRecord) int { return cmp.Compare(a.Facility, b.Facility) },
		"date": func(a, b engine.EmissionRecord) int {
			return cmp.Compare(a.TransactionStartDate, b.TransactionStartDate)
		},
	}}
}

// NewProductSorter sorts product summaries by name or total.
func NewProductSorter() Sorter[engine.ProductSummary] {
	return Sorter[engine.ProductSummary]{fields: map[string]func(a, b engine.ProductSummary) int{
		"name": func(a, b engine.ProductSummary) int { return cmp.Compare(a.ProductName, b.ProductName) },
		"carbon": func(a, b engine.ProductSummary) int {
			return cmp.Compare(a.Totals.Carbon, b.Totals.Carbon)
		},
		"water": func(a, b engine.ProductSummary) int {
			return cmp.Compare(a.Totals.Water, b.Totals.Water)
		},
		"energy": func(a, b engine.ProductSummary) int {
			return cmp.Compare(a.Totals.Energy, b.Totals.Energy)
		},
		"batches": func(a, b engine.ProductSummary) int { return cmp.Compare(len(a.Batches), len(b.Batches)) },
	}}
}
