package ledger

import (
	"sort"

	"finsight/internal/core"
)

// Aggregate folds transactions into per-month totals and keeps the last
// months entries in ascending month order.
func Aggregate(txs []core.Transaction, months int) []core.MonthlyRecord {
	type totals struct{ income, expense int64 }

	byMonth := make(map[core.Month]*totals)
	for _, tx := range txs {
		key := tx.Date.MonthOf()
		t, ok := byMonth[key]
		if !ok {
			t = &totals{}
			byMonth[key] = t
		}
		switch tx.Type {
		case core.Income:
			t.income += tx.Amount.Cents
		case core.Expense:
			t.expense += tx.Amount.Cents
		}
	}

	keys := make([]core.Month, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Index() < keys[j].Index() })

	records := make([]core.MonthlyRecord, 0, len(keys))
	for _, k := range keys {
		t := byMonth[k]
		records = append(records, core.MonthlyRecord{
			Month:   k.String(),
			Income:  core.Money{Cents: t.income}.Units(),
			Expense: core.Money{Cents: t.expense}.Units(),
		})
	}
	return Window(records, months)
}

// Window returns the trailing months entries of an ascending history.
func Window(records []core.MonthlyRecord, months int) []core.MonthlyRecord {
	if months > 0 && len(records) > months {
		records = records[len(records)-months:]
	}
	return records
}

// SortRecords orders records by month token, oldest first. Tokens that do not
// parse sort after valid ones in their original order.
func SortRecords(records []core.MonthlyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, errA := core.ParseMonth(records[i].Month)
		b, errB := core.ParseMonth(records[j].Month)
		switch {
		case errA != nil:
			return false
		case errB != nil:
			return true
		default:
			return a.Index() < b.Index()
		}
	})
}
