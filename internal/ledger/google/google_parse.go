package google

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"finsight/internal/core"
	"finsight/internal/ledger"
)

// parseMonthly converts Monthly sheet rows into ascending records. Blank rows
// are ignored; rows with a bad month or amount are counted as skipped.
func parseMonthly(values [][]any) ([]core.MonthlyRecord, int) {
	var (
		out     []core.MonthlyRecord
		skipped int
	)
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 || strings.TrimSpace(strings.Join(cols, "")) == "" {
			continue
		}
		month, err := core.ParseMonth(cols[0])
		if err != nil {
			skipped++
			continue
		}
		income, okIncome := parseAmount(safeGet(row, 1))
		expense, okExpense := parseAmount(safeGet(row, 2))
		if !okIncome || !okExpense {
			skipped++
			continue
		}
		out = append(out, core.MonthlyRecord{
			Month:   month.String(),
			Income:  income,
			Expense: expense,
		})
	}
	ledger.SortRecords(out)
	return out, skipped
}

// serialEpoch is day zero of spreadsheet date serial numbers.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseTransactions converts Transactions sheet rows laid out as
// ID | Date | Type | Amount | Description | Category. Blank rows are ignored;
// rows with a bad date, type or amount are counted as skipped.
func parseTransactions(values [][]any) ([]core.Transaction, int) {
	var (
		out     []core.Transaction
		skipped int
	)
	for _, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 || strings.TrimSpace(strings.Join(cols, "")) == "" {
			continue
		}
		date, okDate := parseDate(safeGet(row, 1))
		typ := core.TransactionType(strings.ToLower(strings.TrimSpace(fmt.Sprint(safeGet(row, 2)))))
		amount, okAmount := parseAmount(safeGet(row, 3))
		cents := int64(math.Round(amount * 100))
		if !okDate || typ.Validate() != nil || !okAmount || cents <= 0 {
			skipped++
			continue
		}
		out = append(out, core.Transaction{
			ID:          strings.TrimSpace(fmt.Sprint(safeGet(row, 0))),
			Date:        date,
			Type:        typ,
			Amount:      core.Money{Cents: cents},
			Description: stringCell(row, 4),
			Category:    stringCell(row, 5),
		})
	}
	return out, skipped
}

// parseDate accepts ISO dates and the serial numbers the API returns for
// cells the sheet recognized as dates.
func parseDate(v any) (core.Date, bool) {
	switch d := v.(type) {
	case float64:
		// 2958465 is 9999-12-31.
		if !(d >= 1 && d <= 2958465) {
			return core.Date{}, false
		}
		return core.Date{Time: serialEpoch.AddDate(0, 0, int(d))}, true
	case string:
		date, err := core.ParseDate(d)
		return date, err == nil
	default:
		return core.Date{}, false
	}
}

func stringCell(row []any, idx int) string {
	v := safeGet(row, idx)
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// parseAmount accepts numbers as rendered by the API and strings with either
// decimal separator. Empty cells count as zero.
func parseAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		return validAmount(n)
	case int:
		return validAmount(float64(n))
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return validAmount(f)
	default:
		return parseAmount(fmt.Sprint(v))
	}
}

func validAmount(f float64) (float64, bool) {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return core.RoundCents(f), true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []any, idx int) any {
	if idx < 0 || idx >= len(arr) {
		return nil
	}
	return arr[idx]
}
