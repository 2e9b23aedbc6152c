package forecast

import (
	"context"

	"finsight/internal/core"
)

const (
	// movingAverageWindow is the number of trailing months averaged.
	movingAverageWindow = 3
	bandLowerFactor     = 0.8
	bandUpperFactor     = 1.2
)

// DefaultAnchor is the month projections continue from when there is no
// history at all.
var DefaultAnchor = core.Month{Year: 2025, Month: 1}

// MovingAverage projects the trailing average of the last three months flat
// forward with a fixed ±20% band. It never fails on well-formed input.
type MovingAverage struct {
	Anchor core.Month
}

// NewMovingAverage returns the baseline strategy anchored at DefaultAnchor.
func NewMovingAverage() MovingAverage {
	return MovingAverage{Anchor: DefaultAnchor}
}

func (MovingAverage) Method() core.Method {
	return core.MethodMovingAverage
}

func (s MovingAverage) Project(_ context.Context, history []core.MonthlyRecord, periods int) ([]core.ForecastPeriod, error) {
	anchor := s.Anchor
	if anchor == (core.Month{}) {
		anchor = DefaultAnchor
	}
	months, err := nextMonths(history, periods, anchor)
	if err != nil {
		return nil, err
	}

	recent := history
	if len(recent) > movingAverageWindow {
		recent = recent[len(recent)-movingAverageWindow:]
	}
	var avgIncome, avgExpense float64
	if n := len(recent); n > 0 {
		t := core.SumRecords(recent)
		avgIncome = t.Income / float64(n)
		avgExpense = t.Expense / float64(n)
	}

	income := flatBand(avgIncome)
	expense := flatBand(avgExpense)
	out := make([]core.ForecastPeriod, len(months))
	for i, m := range months {
		out[i] = newPeriod(m, income, expense)
	}
	return out, nil
}

func flatBand(avg float64) Band {
	return Band{
		Point: core.RoundCents(avg),
		Lower: core.RoundCents(avg * bandLowerFactor),
		Upper: core.RoundCents(avg * bandUpperFactor),
	}
}
