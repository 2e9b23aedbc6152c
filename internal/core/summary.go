package core

import (
	"fmt"
	"strings"
)

// Totals aggregates a history into overall income and expense.
type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Net returns income minus expense.
func (t Totals) Net() float64 {
	return t.Income - t.Expense
}

// SumRecords adds up income and expense over records.
func SumRecords(records []MonthlyRecord) Totals {
	var t Totals
	for _, r := range records {
		t.Income += r.Income
		t.Expense += r.Expense
	}
	return t
}

// FormatSummary renders a human-readable cash-flow summary: one line per
// record in the given order, followed by a totals line.
//
//	2025-01: Income=1000.00, Expenses=800.00, Profit=200.00
//	Total: Income=1000.00, Expenses=800.00, Net=200.00
//
// An empty history yields an empty string.
func FormatSummary(records []MonthlyRecord) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s: Income=%.2f, Expenses=%.2f, Profit=%.2f\n", r.Month, r.Income, r.Expense, r.Profit())
	}
	t := SumRecords(records)
	fmt.Fprintf(&b, "Total: Income=%.2f, Expenses=%.2f, Net=%.2f", t.Income, t.Expense, t.Net())
	return b.String()
}
