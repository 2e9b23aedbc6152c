package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"finsight/internal/core"
	"finsight/internal/log"
)

// MinSeasonalHistory is the shortest history the fitted strategy is tried on.
const MinSeasonalHistory = 3

// MaxAmount is the largest monthly income or expense accepted. It keeps
// every derived bound finite.
const MaxAmount = 1e15

var (
	// ErrTooManyPeriods is returned when a horizon exceeds Options.MaxPeriods.
	ErrTooManyPeriods = errors.New("periods exceeds maximum horizon")
	// ErrHorizonOutOfRange is returned when a projection would run past
	// core.MaxMonth.
	ErrHorizonOutOfRange = errors.New("horizon runs past 9999-12")
)

// Options tunes a Coordinator.
type Options struct {
	// FitTimeout bounds the fitted strategy. A stalled fit counts as a fault.
	// Zero disables the limit.
	FitTimeout time.Duration
	// MaxPeriods caps the horizon. Zero means no cap.
	MaxPeriods int
	Logger     *log.Logger
}

// Coordinator routes a forecast request to a strategy and guarantees a
// well-formed result for any structurally valid input.
type Coordinator struct {
	registry   *Registry
	fitTimeout time.Duration
	maxPeriods int
	logger     *log.Logger
}

// DefaultRegistry registers the moving-average baseline and the fitted
// strategy backed by fitter.
func DefaultRegistry(fitter Fitter) *Registry {
	return NewRegistry(NewMovingAverage(), NewSeasonalTrend(fitter))
}

// NewCoordinator creates a coordinator over registry. The registry must hold
// a moving-average strategy; it is the terminal fallback.
func NewCoordinator(registry *Registry, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentForecast)
	}
	return &Coordinator{
		registry:   registry,
		fitTimeout: opts.FitTimeout,
		maxPeriods: opts.MaxPeriods,
		logger:     logger.WithComponent(log.ComponentForecast),
	}
}

// Forecast projects history forward by periods months. Only invalid input is
// returned as an error, as a *RequestError; model faults are absorbed by
// falling back to the moving average for the whole request.
func (c *Coordinator) Forecast(ctx context.Context, history []core.MonthlyRecord, periods int) (core.ForecastResult, error) {
	if err := c.validate(history, periods); err != nil {
		return core.ForecastResult{}, err
	}

	var (
		out    []core.ForecastPeriod
		method = core.MethodMovingAverage
		err    error
	)
	if len(history) >= MinSeasonalHistory {
		out, err = c.runSeasonal(ctx, history, periods)
		if err == nil {
			method = core.MethodSeasonalTrend
		} else {
			c.logger.WarnContext(ctx, "Seasonal forecast failed, falling back to moving average",
				log.FieldError, err.Error(),
				log.FieldHistoryMonths, len(history),
				log.FieldPeriods, periods)
		}
	}
	if method == core.MethodMovingAverage {
		out, err = c.runBaseline(ctx, history, periods)
		if err != nil {
			return core.ForecastResult{}, err
		}
	}

	c.logger.DebugContext(ctx, "Forecast produced", log.NewFields().WithForecast(string(method), len(history), periods).ToSlice()...)
	return core.ForecastResult{
		Method:        method,
		Forecast:      out,
		HistoryMonths: len(history),
	}, nil
}

func (c *Coordinator) validate(history []core.MonthlyRecord, periods int) error {
	if periods < 1 {
		return &RequestError{Field: "periods", Index: -1, Err: ErrInvalidPeriods}
	}
	if c.maxPeriods > 0 && periods > c.maxPeriods {
		return &RequestError{Field: "periods", Index: -1, Err: fmt.Errorf("%w (%d)", ErrTooManyPeriods, c.maxPeriods)}
	}
	last := DefaultAnchor
	for i, r := range history {
		m, err := core.ParseMonth(r.Month)
		if err != nil {
			return &RequestError{Field: "month", Index: i, Err: err}
		}
		last = m
		if !validAmount(r.Income) {
			return &RequestError{Field: "income", Index: i, Err: amountError(r.Income)}
		}
		if !validAmount(r.Expense) {
			return &RequestError{Field: "expense", Index: i, Err: amountError(r.Expense)}
		}
	}
	if periods > core.MaxMonth.Index()-last.Index() {
		return &RequestError{Field: "periods", Index: -1, Err: fmt.Errorf("%w: %d months after %s", ErrHorizonOutOfRange, periods, last)}
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && v <= MaxAmount && !math.IsNaN(v)
}

func amountError(v float64) error {
	return fmt.Errorf("%w: %v is outside [0, %g]", core.ErrInvalidAmount, v, MaxAmount)
}

// runSeasonal runs the fitted strategy under the fit timeout, converting
// panics and stalls into errors, and checks its output contract.
func (c *Coordinator) runSeasonal(ctx context.Context, history []core.MonthlyRecord, periods int) ([]core.ForecastPeriod, error) {
	strategy, err := c.registry.Get(core.MethodSeasonalTrend)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}

	fitCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.fitTimeout > 0 {
		fitCtx, cancel = context.WithTimeout(ctx, c.fitTimeout)
	}
	defer cancel()

	type result struct {
		out []core.ForecastPeriod
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", ErrModelFault, r)}
			}
		}()
		out, err := strategy.Project(fitCtx, history, periods)
		done <- result{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		if err := checkOutput(history, periods, res.out); err != nil {
			return nil, err
		}
		return res.out, nil
	case <-fitCtx.Done():
		return nil, fmt.Errorf("%w: fit did not finish: %v", ErrModelFault, fitCtx.Err())
	}
}

func (c *Coordinator) runBaseline(ctx context.Context, history []core.MonthlyRecord, periods int) ([]core.ForecastPeriod, error) {
	strategy, err := c.registry.Get(core.MethodMovingAverage)
	if err != nil {
		return nil, err
	}
	out, err := strategy.Project(ctx, history, periods)
	if err != nil {
		return nil, fmt.Errorf("moving average forecast: %w", err)
	}
	return out, nil
}

// checkOutput verifies length, calendar contiguity, non-negativity, bound
// ordering, profit consistency and the risk flag.
func checkOutput(history []core.MonthlyRecord, periods int, out []core.ForecastPeriod) error {
	if len(out) != periods {
		return fmt.Errorf("%w: got %d periods, want %d", ErrModelFault, len(out), periods)
	}
	months, err := nextMonths(history, periods, DefaultAnchor)
	if err != nil {
		return err
	}
	for i, p := range out {
		if p.Month != months[i].String() {
			return fmt.Errorf("%w: period %d is %s, want %s", ErrModelFault, i, p.Month, months[i])
		}
		for _, v := range []float64{p.PredictedIncome, p.PredictedExpense, p.PredictedProfit,
			p.IncomeLower, p.IncomeUpper, p.ExpenseLower, p.ExpenseUpper} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value in %s", ErrModelFault, p.Month)
			}
		}
		if p.PredictedIncome < 0 || p.PredictedExpense < 0 || p.IncomeLower < 0 || p.ExpenseLower < 0 {
			return fmt.Errorf("%w: negative projection in %s", ErrModelFault, p.Month)
		}
		if p.IncomeLower > p.PredictedIncome || p.PredictedIncome > p.IncomeUpper ||
			p.ExpenseLower > p.PredictedExpense || p.PredictedExpense > p.ExpenseUpper {
			return fmt.Errorf("%w: bounds out of order in %s", ErrModelFault, p.Month)
		}
		if p.PredictedProfit != p.PredictedIncome-p.PredictedExpense {
			return fmt.Errorf("%w: inconsistent profit in %s", ErrModelFault, p.Month)
		}
		if p.NegativeCashFlowRisk != (p.PredictedProfit < 0) {
			return fmt.Errorf("%w: inconsistent risk flag in %s", ErrModelFault, p.Month)
		}
	}
	return nil
}
