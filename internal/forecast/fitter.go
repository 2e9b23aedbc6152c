package forecast

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultHalfLife      = 6.0
	DefaultIntervalWidth = 0.8
)

// WeightedTrendFitter fits a linear trend by weighted least squares, giving
// recent months exponentially more weight, and projects a closed-form
// prediction interval.
type WeightedTrendFitter struct {
	// HalfLife is the age in months at which an observation's weight halves.
	HalfLife float64
	// IntervalWidth is the coverage of the prediction interval, in (0, 1).
	IntervalWidth float64
}

// NewWeightedTrendFitter returns a fitter with the given half-life and
// interval width, falling back to defaults for out-of-range values.
func NewWeightedTrendFitter(halfLife, intervalWidth float64) WeightedTrendFitter {
	if halfLife <= 0 {
		halfLife = DefaultHalfLife
	}
	if intervalWidth <= 0 || intervalWidth >= 1 {
		intervalWidth = DefaultIntervalWidth
	}
	return WeightedTrendFitter{HalfLife: halfLife, IntervalWidth: intervalWidth}
}

func (f WeightedTrendFitter) Fit(ctx context.Context, s Series, future []float64) ([]Band, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(s.X)
	if n < 2 || len(s.Y) != n {
		return nil, fmt.Errorf("%w: need at least 2 aligned observations, got %d/%d", ErrModelFault, len(s.X), len(s.Y))
	}
	halfLife, width := f.HalfLife, f.IntervalWidth
	if halfLife <= 0 {
		halfLife = DefaultHalfLife
	}
	if width <= 0 || width >= 1 {
		width = DefaultIntervalWidth
	}

	newest := s.X[0]
	for _, x := range s.X {
		newest = math.Max(newest, x)
	}
	// Weights are rescaled to sum to n so the usual OLS variance formulas apply.
	w := make([]float64, n)
	var sumW float64
	for i, x := range s.X {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w[i] = math.Exp2(-(newest - x) / halfLife)
		sumW += w[i]
	}
	for i := range w {
		w[i] *= float64(n) / sumW
	}

	meanX := stat.Mean(s.X, w)
	var sxx float64
	for i, x := range s.X {
		sxx += w[i] * (x - meanX) * (x - meanX)
	}
	if sxx <= 0 {
		return nil, fmt.Errorf("%w: degenerate series, all observations in one month", ErrModelFault)
	}

	alpha, beta := stat.LinearRegression(s.X, s.Y, w, false)

	var sigma float64
	if n > 2 {
		var ss float64
		for i, x := range s.X {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r := s.Y[i] - (alpha + beta*x)
			ss += w[i] * r * r
		}
		sigma = math.Sqrt(ss / float64(n-2))
	}
	z := distuv.UnitNormal.Quantile(0.5 + width/2)

	bands := make([]Band, len(future))
	for i, x := range future {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		point := alpha + beta*x
		se := sigma * math.Sqrt(1+1/float64(n)+(x-meanX)*(x-meanX)/sxx)
		b := Band{Point: point, Lower: point - z*se, Upper: point + z*se}
		if math.IsNaN(b.Point) || math.IsNaN(b.Lower) || math.IsNaN(b.Upper) {
			return nil, fmt.Errorf("%w: fit produced NaN", ErrModelFault)
		}
		bands[i] = b
	}
	return bands, nil
}
