package greenops

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by the unit normalizer. Compare with errors.Is.
var (
	// ErrInvalidQuantity indicates a unit model field that is not a number.
	ErrInvalidQuantity = constError("invalid unit quantity")

	// ErrDivisionByZero indicates units bought of zero on a non per-unit invoice.
	ErrDivisionByZero = constError("units bought is zero")

	// ErrCalculationOverflow indicates a NaN or infinite input or result.
	ErrCalculationOverflow = constError("calculation overflow")
)
