package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/amqp"
	"finsight/internal/classifier"
	"finsight/internal/core"
	"finsight/internal/forecast"
	"finsight/internal/ledger"
	"finsight/internal/ledger/memory"
	"finsight/internal/log"
	"finsight/internal/tax"
)

type stubClassifier struct {
	category string
	err      error
	calls    int
}

func (s *stubClassifier) Classify(string) (classifier.Prediction, error) {
	s.calls++
	if s.err != nil {
		return classifier.Prediction{}, s.err
	}
	return classifier.Prediction{Category: s.category, Confidence: 0.9}, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *stubPublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type failingLedger struct{ err error }

func (f failingLedger) Record(context.Context, core.Transaction) (string, error) { return "", f.err }

func (f failingLedger) MonthlyHistory(context.Context, int) ([]core.MonthlyRecord, error) {
	return nil, f.err
}

func newCoordinator() *forecast.Coordinator {
	return forecast.NewCoordinator(
		forecast.DefaultRegistry(forecast.NewWeightedTrendFitter(6, 0.8)),
		forecast.Options{MaxPeriods: 24, Logger: log.Discard()},
	)
}

func expense(desc, category string) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2025, 2, 10),
		Type:        core.Expense,
		Amount:      core.Money{Cents: 4599},
		Description: desc,
		Category:    category,
	}
}

func TestLedgerService_RecordClassifiesAndPublishes(t *testing.T) {
	store := memory.New()
	cls := &stubClassifier{category: "Transport"}
	pub := &stubPublisher{}
	svc := NewLedgerService(store, cls, newCoordinator(), pub, log.Discard())

	res, err := svc.RecordTransaction(context.Background(), expense("  taxi to airport ", ""))
	require.NoError(t, err)

	assert.Equal(t, "mem:1", res.Ref)
	assert.Equal(t, "Transport", res.Category)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 1, cls.calls)

	stored := store.Transactions()
	require.Len(t, stored, 1)
	assert.Equal(t, "taxi to airport", stored[0].Description)
	assert.Equal(t, "Transport", stored[0].Category)
	assert.Equal(t, res.ID, stored[0].ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventTransactionRecorded, pub.events[0].Type)
	assert.Equal(t, "2025-02", pub.events[0].Month)
	assert.Equal(t, "mem:1", pub.events[0].Ref)
}

func TestLedgerService_KeepsProvidedCategory(t *testing.T) {
	cls := &stubClassifier{category: "Food"}
	svc := NewLedgerService(memory.New(), cls, newCoordinator(), nil, log.Discard())

	res, err := svc.RecordTransaction(context.Background(), expense("dinner with client", "Marketing"))
	require.NoError(t, err)
	assert.Equal(t, "Marketing", res.Category)
	assert.Zero(t, cls.calls)
}

func TestLedgerService_ClassifierFailureIsNotFatal(t *testing.T) {
	cls := &stubClassifier{err: errors.New("model unavailable")}
	svc := NewLedgerService(memory.New(), cls, newCoordinator(), nil, log.Discard())

	res, err := svc.RecordTransaction(context.Background(), expense("mystery", ""))
	require.NoError(t, err)
	assert.Empty(t, res.Category)
}

func TestLedgerService_PublishFailureIsNotFatal(t *testing.T) {
	pub := &stubPublisher{err: amqp.ErrCircuitOpen}
	svc := NewLedgerService(memory.New(), nil, newCoordinator(), pub, log.Discard())

	res, err := svc.RecordTransaction(context.Background(), expense("coffee", "Food"))
	require.NoError(t, err)
	assert.Equal(t, "mem:1", res.Ref)
	assert.Len(t, pub.events, 1)
}

func TestLedgerService_RecordErrors(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewLedgerService(memory.New(), nil, newCoordinator(), pub, log.Discard())

	_, err := svc.RecordTransaction(context.Background(), expense("   ", ""))
	assert.ErrorIs(t, err, ErrInvalidTransaction)
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	broken := NewLedgerService(failingLedger{err: errors.New("disk full")}, nil, newCoordinator(), pub, log.Discard())
	_, err = broken.RecordTransaction(context.Background(), expense("rent", "Rent"))
	assert.ErrorContains(t, err, "disk full")
	assert.NotErrorIs(t, err, ErrInvalidTransaction)

	assert.Empty(t, pub.events, "nothing is published when the write fails")
}

func TestLedgerService_ForecastAndSummary(t *testing.T) {
	store, err := memory.NewWithHistory([]core.MonthlyRecord{
		{Month: "2024-10", Income: 5000, Expense: 4000},
		{Month: "2024-11", Income: 5200, Expense: 4100},
		{Month: "2024-12", Income: 5400, Expense: 4200},
		{Month: "2025-01", Income: 5600, Expense: 4300},
	})
	require.NoError(t, err)
	svc := NewLedgerService(store, nil, newCoordinator(), nil, log.Discard())
	ctx := context.Background()

	result, err := svc.Forecast(ctx, 12, 2)
	require.NoError(t, err)
	assert.Equal(t, core.MethodSeasonalTrend, result.Method)
	assert.Equal(t, 4, result.HistoryMonths)
	require.Len(t, result.Forecast, 2)
	assert.Equal(t, "2025-02", result.Forecast[0].Month)
	assert.InDelta(t, 5800, result.Forecast[0].PredictedIncome, 0.01)
	assert.InDelta(t, 4400, result.Forecast[0].PredictedExpense, 0.01)

	short, err := svc.Forecast(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, core.MethodMovingAverage, short.Method)

	_, err = svc.Forecast(ctx, 12, 0)
	assert.True(t, forecast.IsInvalidRequest(err))

	text, history, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2025-01: Income=5600.00, Expenses=4300.00, Profit=1300.00\nTotal: Income=5600.00, Expenses=4300.00, Net=1300.00", text)

	assert.NoError(t, svc.Ready(ctx))
}

func TestLedgerService_HistoryError(t *testing.T) {
	svc := NewLedgerService(failingLedger{err: errors.New("sheet unavailable")}, nil, newCoordinator(), nil, log.Discard())
	_, err := svc.Forecast(context.Background(), 12, 3)
	assert.ErrorContains(t, err, "read monthly history")
	assert.False(t, forecast.IsInvalidRequest(err))
}

func TestLedgerService_Close(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, newCoordinator(), nil, log.Discard())
	assert.NoError(t, svc.Close())

	var order []string
	svc.OnClose(func() error { order = append(order, "storage"); return nil })
	svc.OnClose(func() error { order = append(order, "amqp"); return errors.New("already closed") })

	err := svc.Close()
	assert.ErrorContains(t, err, "already closed")
	assert.Equal(t, []string{"amqp", "storage"}, order)
}

func recordAll(t *testing.T, svc *LedgerService, txs ...core.Transaction) {
	t.Helper()
	for _, tx := range txs {
		_, err := svc.RecordTransaction(context.Background(), tx)
		require.NoError(t, err)
	}
}

func entry(y, m, d int, typ core.TransactionType, cents int64, category string) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(y, m, d),
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Description: "entry",
		Category:    category,
	}
}

func TestLedgerService_Dashboard(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, newCoordinator(), nil, log.Discard())
	recordAll(t, svc,
		entry(2025, 3, 3, core.Income, 500000, "Sales"),
		entry(2025, 3, 4, core.Expense, 120000, "Rent"),
		entry(2025, 3, 12, core.Expense, 30000, "Food"),
		entry(2025, 4, 2, core.Expense, 10000, "Food"),
	)
	ctx := context.Background()
	from, to := core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31)

	totals, err := svc.Totals(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodTotals{TotalIncome: 5000, TotalExpenses: 1500, Profit: 3500, Period: "2025-03-01 / 2025-03-31"}, totals)

	breakdown, err := svc.CategoryBreakdown(ctx, from, to, core.Expense)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "Rent", breakdown[0].Category)
	assert.Equal(t, 80.0, breakdown[0].Percent)

	flow, err := svc.CashFlow(ctx, from, core.NewDate(2025, 4, 30), "")
	require.NoError(t, err)
	require.Len(t, flow, 4)
	assert.Equal(t, 3400.0, flow[3].Balance)

	weekly, err := svc.CashFlow(ctx, from, to, ledger.Weekly)
	require.NoError(t, err)
	assert.Len(t, weekly, 2)
}

func TestLedgerService_DashboardInvalidQuery(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, newCoordinator(), nil, log.Discard())
	ctx := context.Background()
	from, to := core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31)

	_, err := svc.Totals(ctx, to, from)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.ErrorIs(t, err, ledger.ErrInvalidRange)

	_, err = svc.CategoryBreakdown(ctx, from, to, "refund")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.CashFlow(ctx, from, to, "hour")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.TaxEstimate(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestLedgerService_RangeUnsupported(t *testing.T) {
	svc := NewLedgerService(failingLedger{}, nil, newCoordinator(), nil, log.Discard())
	_, err := svc.Totals(context.Background(), core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	assert.ErrorIs(t, err, ErrRangeUnsupported)

	_, err = svc.TaxEstimate(context.Background(), 2025)
	assert.ErrorIs(t, err, ErrRangeUnsupported)
}

func TestLedgerService_TaxEstimate(t *testing.T) {
	svc := NewLedgerService(memory.New(), nil, newCoordinator(), nil, log.Discard())
	recordAll(t, svc,
		entry(2024, 12, 31, core.Income, 999900, "Sales"),
		entry(2025, 1, 10, core.Income, 6000000, "Sales"),
		entry(2025, 6, 30, core.Expense, 2000000, "Rent"),
		entry(2025, 12, 31, core.Income, 4000000, "Sales"),
		entry(2026, 1, 1, core.Expense, 100, "Food"),
	)
	ctx := context.Background()

	e, err := svc.TaxEstimate(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 80000.0, e.TaxableIncome)
	assert.Equal(t, 16000.0, e.EstimatedTax)
	assert.Equal(t, "2025-02-15", e.QuarterlyPayments[0].DueDate)

	svc.SetTaxSettings(tax.Settings{Rate: 30, QuarterlyStartMonth: 4})
	e, err = svc.TaxEstimate(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 30.0, e.TaxRate)
	assert.Equal(t, 24000.0, e.EstimatedTax)
	assert.Equal(t, "2025-05-15", e.QuarterlyPayments[0].DueDate)

	empty, err := svc.TaxEstimate(ctx, 2023)
	require.NoError(t, err)
	assert.Zero(t, empty.EstimatedTax)
}
