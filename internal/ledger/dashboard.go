package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"finsight/internal/core"
)

// Uncategorized labels transactions stored without a category.
const Uncategorized = "Uncategorized"

type Granularity string

const (
	Daily   Granularity = "day"
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
)

var ErrInvalidGranularity = errors.New("granularity must be day, week or month")

type (
	// PeriodTotals sums a date range.
	PeriodTotals struct {
		TotalIncome   float64 `json:"total_income"`
		TotalExpenses float64 `json:"total_expenses"`
		Profit        float64 `json:"profit"`
		Period        string  `json:"period"`
	}

	// CategoryTotal is one slice of a category breakdown. Percent is the
	// share of the breakdown's total amount.
	CategoryTotal struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Count    int     `json:"count"`
		Percent  float64 `json:"percent"`
	}

	// CashFlowPoint is one bucket of a cash-flow series. Balance is the
	// running net since the first bucket.
	CashFlowPoint struct {
		Date    string  `json:"date"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}
)

// ParseGranularity accepts day, week or month. Empty means day.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// Start returns the first day of the bucket containing d. Weeks start on Monday.
func (g Granularity) Start(d core.Date) core.Date {
	switch g {
	case Weekly:
		offset := (int(d.Weekday()) + 6) % 7
		return core.Date{Time: d.AddDate(0, 0, -offset)}
	case Monthly:
		return core.Date{Time: d.MonthOf().Start()}
	default:
		return core.Date{Time: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)}
	}
}

// Between returns the transactions dated within [from, to], oldest first.
// Transactions on the same day keep their input order.
func Between(txs []core.Transaction, from, to core.Date) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Date.Before(from.Time) || tx.Date.After(to.Time) {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// CheckRange rejects a range that starts after it ends.
func CheckRange(from, to core.Date) error {
	if from.After(to.Time) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, from, to)
	}
	return nil
}

// Totals sums income and expense over txs and labels the range from-to.
func Totals(txs []core.Transaction, from, to core.Date) PeriodTotals {
	var income, expense int64
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income += tx.Amount.Cents
		case core.Expense:
			expense += tx.Amount.Cents
		}
	}
	return PeriodTotals{
		TotalIncome:   core.Money{Cents: income}.Units(),
		TotalExpenses: core.Money{Cents: expense}.Units(),
		Profit:        core.Money{Cents: income - expense}.Units(),
		Period:        from.String() + " / " + to.String(),
	}
}

// Breakdown groups the transactions of type typ by category, largest amount
// first. Ties are ordered by category name.
func Breakdown(txs []core.Transaction, typ core.TransactionType) []CategoryTotal {
	type bucket struct {
		cents int64
		count int
	}
	byCategory := make(map[string]*bucket)
	var total int64
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		name := tx.Category
		if name == "" {
			name = Uncategorized
		}
		b, ok := byCategory[name]
		if !ok {
			b = &bucket{}
			byCategory[name] = b
		}
		b.cents += tx.Amount.Cents
		b.count++
		total += tx.Amount.Cents
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for name, b := range byCategory {
		var pct float64
		if total > 0 {
			pct = core.RoundCents(float64(b.cents) / float64(total) * 100)
		}
		out = append(out, CategoryTotal{
			Category: name,
			Amount:   core.Money{Cents: b.cents}.Units(),
			Count:    b.count,
			Percent:  pct,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CashFlow buckets txs by g and carries a running balance across buckets.
// Buckets without activity are omitted.
func CashFlow(txs []core.Transaction, g Granularity) []CashFlowPoint {
	type totals struct{ income, expense int64 }

	byStart := make(map[string]*totals)
	var keys []string
	for _, tx := range txs {
		key := g.Start(tx.Date).String()
		t, ok := byStart[key]
		if !ok {
			t = &totals{}
			byStart[key] = t
			keys = append(keys, key)
		}
		switch tx.Type {
		case core.Income:
			t.income += tx.Amount.Cents
		case core.Expense:
			t.expense += tx.Amount.Cents
		}
	}
	// ISO dates sort lexically.
	sort.Strings(keys)

	points := make([]CashFlowPoint, 0, len(keys))
	var balance int64
	for _, k := range keys {
		t := byStart[k]
		balance += t.income - t.expense
		points = append(points, CashFlowPoint{
			Date:    k,
			Income:  core.Money{Cents: t.income}.Units(),
			Expense: core.Money{Cents: t.expense}.Units(),
			Balance: core.Money{Cents: balance}.Units(),
		})
	}
	return points
}
