package forecast

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"finsight/internal/core"
)

// Series is one univariate monthly series. X holds month positions relative
// to the first record, so gaps in the history keep their real spacing.
type Series struct {
	X []float64
	Y []float64
}

// Band is a point estimate with its interval.
type Band struct {
	Point float64
	Lower float64
	Upper float64
}

// Fitter fits a single series and projects it at the future positions.
// Implementations must return one Band per future position and must be safe
// for concurrent use on independent series.
type Fitter interface {
	Fit(ctx context.Context, s Series, future []float64) ([]Band, error)
}

// SeasonalTrend fits income and expense independently and projects both
// forward. Seasonality is disabled; the fitter degrades to a trend with an
// uncertainty interval.
type SeasonalTrend struct {
	Fitter Fitter
}

// NewSeasonalTrend returns the fitted strategy using fitter.
func NewSeasonalTrend(fitter Fitter) SeasonalTrend {
	return SeasonalTrend{Fitter: fitter}
}

func (SeasonalTrend) Method() core.Method {
	return core.MethodSeasonalTrend
}

func (s SeasonalTrend) Project(ctx context.Context, history []core.MonthlyRecord, periods int) ([]core.ForecastPeriod, error) {
	if s.Fitter == nil {
		return nil, ErrDependencyUnavailable
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrModelFault)
	}

	income, expense, err := buildSeries(history)
	if err != nil {
		return nil, err
	}
	months, err := nextMonths(history, periods, DefaultAnchor)
	if err != nil {
		return nil, err
	}
	last := income.X[len(income.X)-1]
	future := make([]float64, periods)
	for i := range future {
		future[i] = last + float64(i+1)
	}

	var incBands, expBands []Band
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incBands, err = s.safeFit(gctx, "income", income, future)
		return err
	})
	g.Go(func() error {
		var err error
		expBands, err = s.safeFit(gctx, "expense", expense, future)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Both fits share the same future positions, so the two projections are
	// paired by index.
	if len(incBands) != periods || len(expBands) != periods {
		return nil, fmt.Errorf("%w: fitter returned %d/%d bands for %d periods",
			ErrModelFault, len(incBands), len(expBands), periods)
	}
	out := make([]core.ForecastPeriod, periods)
	for i, m := range months {
		inc, err := clipBand(incBands[i])
		if err != nil {
			return nil, fmt.Errorf("income %s: %w", m, err)
		}
		exp, err := clipBand(expBands[i])
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", m, err)
		}
		out[i] = newPeriod(m, inc, exp)
	}
	return out, nil
}

func (s SeasonalTrend) safeFit(ctx context.Context, name string, series Series, future []float64) (bands []Band, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s fit panicked: %v", ErrModelFault, name, r)
		}
	}()
	bands, err = s.Fitter.Fit(ctx, series, future)
	if err != nil {
		return nil, fmt.Errorf("%s fit: %w", name, err)
	}
	return bands, nil
}

func buildSeries(history []core.MonthlyRecord) (income, expense Series, err error) {
	first, err := core.ParseMonth(history[0].Month)
	if err != nil {
		return Series{}, Series{}, err
	}
	n := len(history)
	income = Series{X: make([]float64, n), Y: make([]float64, n)}
	expense = Series{X: make([]float64, n), Y: make([]float64, n)}
	for i, r := range history {
		m, err := core.ParseMonth(r.Month)
		if err != nil {
			return Series{}, Series{}, err
		}
		x := float64(m.Index() - first.Index())
		income.X[i], income.Y[i] = x, r.Income
		expense.X[i], expense.Y[i] = x, r.Expense
	}
	return income, expense, nil
}

// clipBand floors every value at zero and rounds to cents. Income and
// expense cannot be negative even when the trend crosses zero.
func clipBand(b Band) (Band, error) {
	for _, v := range []float64{b.Point, b.Lower, b.Upper} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Band{}, fmt.Errorf("%w: non-finite projection", ErrModelFault)
		}
	}
	return Band{
		Point: core.RoundCents(math.Max(0, b.Point)),
		Lower: core.RoundCents(math.Max(0, b.Lower)),
		Upper: core.RoundCents(math.Max(0, b.Upper)),
	}, nil
}
