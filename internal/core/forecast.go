package core

// Method names the strategy that produced a forecast.
type Method string

const (
	MethodSeasonalTrend Method = "seasonal_trend"
	MethodMovingAverage Method = "moving_average"
)

// MonthlyRecord is one month of aggregated cash flow. The order of a history
// slice is owned by the caller; the forecasting engine never re-sorts it.
type MonthlyRecord struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Profit returns income minus expense.
func (r MonthlyRecord) Profit() float64 {
	return r.Income - r.Expense
}

// ForecastPeriod is the projection for a single future month.
type ForecastPeriod struct {
	Month                string  `json:"month"`
	PredictedIncome      float64 `json:"predicted_income"`
	PredictedExpense     float64 `json:"predicted_expense"`
	PredictedProfit      float64 `json:"predicted_profit"`
	IncomeLower          float64 `json:"income_lower"`
	IncomeUpper          float64 `json:"income_upper"`
	ExpenseLower         float64 `json:"expense_lower"`
	ExpenseUpper         float64 `json:"expense_upper"`
	NegativeCashFlowRisk bool    `json:"negative_cash_flow_risk"`
}

// ForecastResult is the outcome of a forecast request. Method reports which
// strategy actually ran, so a fallback is visible to the caller.
type ForecastResult struct {
	Method        Method           `json:"method"`
	Forecast      []ForecastPeriod `json:"forecast"`
	HistoryMonths int              `json:"history_months"`
}

// AtRisk returns the periods flagged with negative cash-flow risk.
func (r ForecastResult) AtRisk() []ForecastPeriod {
	var out []ForecastPeriod
	for _, p := range r.Forecast {
		if p.NegativeCashFlowRisk {
			out = append(out, p)
		}
	}
	return out
}
