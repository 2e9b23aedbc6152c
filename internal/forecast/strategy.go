// Package forecast projects monthly income and expense forward.
//
// Two strategies sit behind one contract: a fitted trend model used when
// there is enough history, and a flat moving-average baseline that always
// succeeds. The Coordinator picks one, supervises it, and falls back to the
// baseline for the whole request on any fault.
package forecast

import (
	"context"
	"fmt"
	"sync"

	"finsight/internal/core"
)

// Strategy projects a history forward by periods months.
type Strategy interface {
	Method() core.Method
	// Project returns exactly periods entries starting the month after the
	// last record in history.
	Project(ctx context.Context, history []core.MonthlyRecord, periods int) ([]core.ForecastPeriod, error)
}

// Registry maps forecast methods to their strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[core.Method]Strategy
}

// NewRegistry creates a registry holding the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[core.Method]Strategy, len(strategies))}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Register adds or replaces the strategy for its method.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Method()] = s
}

// Get returns the strategy registered for method.
func (r *Registry) Get(method core.Method) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return s, nil
}

// nextMonths returns periods contiguous months following the last record,
// or following anchor when history is empty.
func nextMonths(history []core.MonthlyRecord, periods int, anchor core.Month) ([]core.Month, error) {
	start := anchor
	if len(history) > 0 {
		m, err := core.ParseMonth(history[len(history)-1].Month)
		if err != nil {
			return nil, err
		}
		start = m
	}
	months := make([]core.Month, periods)
	for i := range months {
		months[i] = start.Add(i + 1)
	}
	return months, nil
}

// newPeriod assembles a period from already clipped and rounded components.
// Profit is derived here so it always equals income minus expense.
func newPeriod(month core.Month, income, expense Band) core.ForecastPeriod {
	profit := income.Point - expense.Point
	return core.ForecastPeriod{
		Month:                month.String(),
		PredictedIncome:      income.Point,
		PredictedExpense:     expense.Point,
		PredictedProfit:      profit,
		IncomeLower:          income.Lower,
		IncomeUpper:          income.Upper,
		ExpenseLower:         expense.Lower,
		ExpenseUpper:         expense.Upper,
		NegativeCashFlowRisk: profit < 0,
	}
}
