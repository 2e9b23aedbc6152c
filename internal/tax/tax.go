// Package tax estimates the yearly tax owed on ledger profit and spreads it
// over a quarterly payment schedule.
package tax

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultRate         = 20.0
	DefaultBusinessType = "general"
	DefaultStartMonth   = 1
)

var ErrInvalidYear = errors.New("year must be between 1 and 9999")

type (
	// Settings parameterize an estimate. Rate is a percentage.
	Settings struct {
		Rate                float64 `json:"tax_rate"`
		BusinessType        string  `json:"business_type"`
		QuarterlyStartMonth int     `json:"quarterly_start_month"`
	}

	QuarterlyPayment struct {
		Quarter int     `json:"quarter"`
		DueDate string  `json:"due_date"`
		Amount  float64 `json:"amount"`
	}

	Estimate struct {
		Year              int                `json:"year"`
		TaxableIncome     float64            `json:"taxable_income"`
		TaxRate           float64            `json:"tax_rate"`
		EstimatedTax      float64            `json:"estimated_tax"`
		NetProfit         float64            `json:"net_profit"`
		QuarterlyPayments []QuarterlyPayment `json:"quarterly_payments"`
		OptimizationTips  []string           `json:"optimization_tips"`
	}
)

func DefaultSettings() Settings {
	return Settings{Rate: DefaultRate, BusinessType: DefaultBusinessType, QuarterlyStartMonth: DefaultStartMonth}
}

// Normalize replaces out-of-range fields with their defaults. A rate must lie
// in (0, 100] and the start month in 1..12.
func (s Settings) Normalize() Settings {
	if !(s.Rate > 0 && s.Rate <= 100) {
		s.Rate = DefaultRate
	}
	if s.QuarterlyStartMonth < 1 || s.QuarterlyStartMonth > 12 {
		s.QuarterlyStartMonth = DefaultStartMonth
	}
	s.BusinessType = strings.TrimSpace(s.BusinessType)
	if s.BusinessType == "" {
		s.BusinessType = DefaultBusinessType
	}
	return s
}

// Compute estimates the tax owed for year on the given income and expense.
// A loss is taxed as zero. The four quarterly payments add up to the
// estimated tax exactly; the last quarter absorbs the rounding remainder.
func Compute(year int, income, expense float64, s Settings) (Estimate, error) {
	if year < 1 || year > 9999 {
		return Estimate{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	s = s.Normalize()

	in := decimal.NewFromFloat(income)
	out := decimal.NewFromFloat(expense)
	taxable := decimal.Max(in.Sub(out), decimal.Zero).Round(2)
	owed := taxable.Mul(decimal.NewFromFloat(s.Rate)).Div(decimal.NewFromInt(100)).Round(2)

	return Estimate{
		Year:              year,
		TaxableIncome:     taxable.InexactFloat64(),
		TaxRate:           s.Rate,
		EstimatedTax:      owed.InexactFloat64(),
		NetProfit:         taxable.Sub(owed).InexactFloat64(),
		QuarterlyPayments: schedule(owed, year, s.QuarterlyStartMonth),
		OptimizationTips:  tips(income, expense, s),
	}, nil
}

// schedule spreads total over four payments. Quarter i closes in month
// startMonth+3i (wrapping into the next year) and is due on the 15th of the
// following month.
func schedule(total decimal.Decimal, year, startMonth int) []QuarterlyPayment {
	per := total.Div(decimal.NewFromInt(4)).Round(2)
	payments := make([]QuarterlyPayment, 4)
	for i := range payments {
		month := (startMonth-1+i*3)%12 + 1
		payYear := year
		if month < startMonth {
			payYear++
		}
		amount := per
		if i == len(payments)-1 {
			amount = total.Sub(per.Mul(decimal.NewFromInt(3)))
		}
		payments[i] = QuarterlyPayment{
			Quarter: i + 1,
			DueDate: time.Date(payYear, time.Month(month+1), 15, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
			Amount:  amount.InexactFloat64(),
		}
	}
	return payments
}

func tips(income, expense float64, s Settings) []string {
	var ratio float64
	if income > 0 {
		ratio = expense / income * 100
	}

	var out []string
	if ratio < 30 {
		out = append(out, "Your expense ratio is low. Consider reinvesting profits in equipment or marketing to reduce taxable income.")
	}
	if ratio > 80 {
		out = append(out, "High expense ratio detected. Review recurring costs and identify areas to cut.")
	}
	if s.Rate > 25 {
		out = append(out, fmt.Sprintf("Your tax rate is %.1f%%. Check whether your business qualifies for a simplified tax regime.", s.Rate))
	}
	return append(out,
		"Keep all receipts and invoices to maximize deductible business expenses.",
		"Consider a retirement or pension fund contribution; these are typically tax-deductible.",
	)
}
