package tax

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dueDates(e Estimate) []string {
	var out []string
	for _, p := range e.QuarterlyPayments {
		out = append(out, p.DueDate)
	}
	return out
}

func TestCompute(t *testing.T) {
	e, err := Compute(2025, 100000, 40000, DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, 2025, e.Year)
	assert.Equal(t, 60000.0, e.TaxableIncome)
	assert.Equal(t, 20.0, e.TaxRate)
	assert.Equal(t, 12000.0, e.EstimatedTax)
	assert.Equal(t, 48000.0, e.NetProfit)
	assert.Equal(t, []QuarterlyPayment{
		{Quarter: 1, DueDate: "2025-02-15", Amount: 3000},
		{Quarter: 2, DueDate: "2025-05-15", Amount: 3000},
		{Quarter: 3, DueDate: "2025-08-15", Amount: 3000},
		{Quarter: 4, DueDate: "2025-11-15", Amount: 3000},
	}, e.QuarterlyPayments)
	assert.Len(t, e.OptimizationTips, 2)
}

func TestCompute_LossIsTaxedAsZero(t *testing.T) {
	e, err := Compute(2025, 100, 500, Settings{Rate: 30})
	require.NoError(t, err)

	assert.Zero(t, e.TaxableIncome)
	assert.Zero(t, e.EstimatedTax)
	assert.Zero(t, e.NetProfit)
	for _, p := range e.QuarterlyPayments {
		assert.Zero(t, p.Amount)
	}
	assert.Contains(t, e.OptimizationTips, "High expense ratio detected. Review recurring costs and identify areas to cut.")
	assert.Contains(t, e.OptimizationTips, "Your tax rate is 30.0%. Check whether your business qualifies for a simplified tax regime.")
}

func TestCompute_QuarterlyRemainder(t *testing.T) {
	e, err := Compute(2025, 500.05, 0, DefaultSettings())
	require.NoError(t, err)
	require.Equal(t, 100.01, e.EstimatedTax)

	var amounts []float64
	for _, p := range e.QuarterlyPayments {
		amounts = append(amounts, p.Amount)
	}
	assert.Equal(t, []float64{25, 25, 25, 25.01}, amounts)
}

func TestCompute_FiscalYearWraps(t *testing.T) {
	e, err := Compute(2025, 1000, 0, Settings{Rate: 20, QuarterlyStartMonth: 11})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-15", "2026-03-15", "2026-06-15", "2026-09-15"}, dueDates(e))

	e, err = Compute(2025, 1000, 0, Settings{Rate: 20, QuarterlyStartMonth: 12})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", e.QuarterlyPayments[0].DueDate)
}

func TestCompute_Tips(t *testing.T) {
	low, err := Compute(2025, 1000, 100, DefaultSettings())
	require.NoError(t, err)
	assert.Len(t, low.OptimizationTips, 3)
	assert.Contains(t, low.OptimizationTips[0], "expense ratio is low")
}

func TestCompute_InvalidYear(t *testing.T) {
	for _, year := range []int{0, -1, 10000} {
		_, err := Compute(year, 1, 0, DefaultSettings())
		assert.ErrorIs(t, err, ErrInvalidYear, "year %d", year)
	}
}

func TestSettings_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{"zero value", Settings{}, DefaultSettings()},
		{"rate above 100", Settings{Rate: 150, BusinessType: "retail", QuarterlyStartMonth: 4}, Settings{Rate: 20, BusinessType: "retail", QuarterlyStartMonth: 4}},
		{"NaN rate", Settings{Rate: math.NaN(), BusinessType: "x", QuarterlyStartMonth: 2}, Settings{Rate: 20, BusinessType: "x", QuarterlyStartMonth: 2}},
		{"month 13", Settings{Rate: 35, BusinessType: " freelance ", QuarterlyStartMonth: 13}, Settings{Rate: 35, BusinessType: "freelance", QuarterlyStartMonth: 1}},
		{"full rate", Settings{Rate: 100, BusinessType: "x", QuarterlyStartMonth: 12}, Settings{Rate: 100, BusinessType: "x", QuarterlyStartMonth: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}
