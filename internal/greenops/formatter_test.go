package greenops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		999:        "999",
		1000:       "1,000",
		-42000:     "-42,000",
		7500000:    "7,500,000",
		3000000000: "3,000,000,000",
	}
	for n, want := range cases {
		assert.Equal(t, want, FormatNumber(n), n)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name      string
		in        float64
		precision int
		want      string
	}{
		{"whole kilograms", 2500.4, 0, "2,500"},
		{"cubic meters to one decimal", 12.25, 1, "12.3"},
		{"kWh to two decimals", 98765.4321, 2, "98,765.43"},
		{"carry into thousands", 9999.996, 2, "10,000.00"},
		{"sub-unit value", 0.075, 3, "0.075"},
		{"negative correction", -310.5, 1, "-310.5"},
		{"negative precision clamps to zero", 14.6, -3, "15"},
		{"NaN passes through", math.NaN(), 2, "NaN"},
		{"infinity passes through", math.Inf(1), 2, "+Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.in, tt.precision))
		})
	}
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "1,250.50 kg", FormatQuantity(1250.5, UnitKg, 2))
	assert.Equal(t, "5.0 Cubic meters", FormatQuantity(5, UnitCubicMeters, 1))
	assert.Equal(t, "40,000 kWh", FormatQuantity(40000, UnitKWh, 0))
	assert.Equal(t, "12", FormatQuantity(12.2, "", 0))
}

func BenchmarkFormatQuantity(b *testing.B) {
	for b.Loop() {
		FormatQuantity(1234.5678, UnitKg, 2)
	}
}
