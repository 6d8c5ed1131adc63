package greenops

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseQuantity parses an optional numeric text field, returning def when empty.
func parseQuantity(field, raw string, def float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidQuantity, field, raw)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s=%q", ErrCalculationOverflow, field, raw)
	}
	return v, nil
}

// IsPerUnit reports whether the model's metrics are already expressed per unit.
// The flag is matched case-insensitively; anything other than "YES" is treated as "NO".
func (m UnitModel) IsPerUnit() bool {
	flag := strings.TrimSpace(m.EmissionsArePerUnit)
	if flag == "" {
		flag = DefaultEmissionsArePerUnit
	}
	return strings.EqualFold(flag, PerUnitYes)
}

// ConversionFactor returns the multiplier that turns a raw supplier metric into
// the quantity attributable to one purchased product:
//
//	YES: quantity_needed_per_unit
//	NO:  quantity_needed_per_unit / units_bought
//
// It returns ErrInvalidQuantity when a field is not numeric and ErrDivisionByZero
// when units bought is zero on a non per-unit model.
func ConversionFactor(m UnitModel) (float64, error) {
	quantity, err := parseQuantity("quantity_needed_per_unit", m.QuantityNeededPerUnit, DefaultQuantityNeededPerUnit)
	if err != nil {
		return 0, err
	}
	if m.IsPerUnit() {
		return quantity, nil
	}

	units, err := parseQuantity("units_bought", m.UnitsBought, DefaultUnitsBought)
	if err != nil {
		return 0, err
	}
	if units == 0 {
		return 0, ErrDivisionByZero
	}

	factor := quantity / units
	if math.IsInf(factor, 0) || math.IsNaN(factor) {
		return 0, ErrCalculationOverflow
	}
	return factor, nil
}

// Normalize converts a raw metric value into a per-purchased-unit quantity
// using the invoice's unit model.
func Normalize(raw float64, m UnitModel) (float64, error) {
	factor, err := ConversionFactor(m)
	if err != nil {
		return 0, err
	}
	return Scale(raw, factor)
}

// Scale multiplies raw by an already computed conversion factor, rejecting
// NaN or infinite operands and results.
func Scale(raw, factor float64) (float64, error) {
	if math.IsInf(raw, 0) || math.IsNaN(raw) {
		return 0, ErrCalculationOverflow
	}
	result := raw * factor
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, ErrCalculationOverflow
	}
	return result, nil
}
