package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"finsight/internal/amqp"
	"finsight/internal/core"
	"finsight/internal/log"
)

type (
	// HistoryReader supplies the ledger history a scan forecasts from.
	HistoryReader interface {
		History(ctx context.Context, months int) ([]core.MonthlyRecord, error)
	}

	Forecaster interface {
		Forecast(ctx context.Context, history []core.MonthlyRecord, periods int) (core.ForecastResult, error)
	}

	// Consumer delivers ledger events until ctx is cancelled.
	Consumer interface {
		ConsumeLedgerEvents(ctx context.Context, handler amqp.Handler) error
	}
)

// Options configures a RiskWorker.
type Options struct {
	Months   int
	Periods  int
	Schedule string
	Logger   *log.Logger
}

// Report is the outcome of one scan.
type Report struct {
	Trigger string
	Result  core.ForecastResult
	AtRisk  []core.ForecastPeriod
	Summary string
}

// RiskWorker forecasts the stored ledger and warns about months projected to
// close with a negative profit. Scans run on ledger events and on a cron
// schedule; they never overlap and nothing is persisted.
type RiskWorker struct {
	history    HistoryReader
	forecaster Forecaster
	months     int
	periods    int
	schedule   string
	logger     *log.Logger

	mu sync.Mutex
}

func NewRiskWorker(history HistoryReader, forecaster Forecaster, opts Options) *RiskWorker {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	if opts.Months < 1 {
		opts.Months = 12
	}
	if opts.Periods < 1 {
		opts.Periods = 3
	}
	if opts.Schedule == "" {
		opts.Schedule = "@every 6h"
	}
	return &RiskWorker{
		history:    history,
		forecaster: forecaster,
		months:     opts.Months,
		periods:    opts.Periods,
		schedule:   opts.Schedule,
		logger:     logger,
	}
}

// Scan runs one risk assessment. An empty ledger yields an empty report.
func (w *RiskWorker) Scan(ctx context.Context, trigger string) (Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	report := Report{Trigger: trigger}

	history, err := w.history.History(ctx, w.months)
	if err != nil {
		return report, fmt.Errorf("read history: %w", err)
	}
	if len(history) == 0 {
		w.logger.InfoContext(ctx, "No ledger history, skipping risk scan", "trigger", trigger)
		return report, nil
	}

	result, err := w.forecaster.Forecast(ctx, history, w.periods)
	if err != nil {
		return report, fmt.Errorf("forecast: %w", err)
	}
	report.Result = result
	report.AtRisk = result.AtRisk()
	report.Summary = core.FormatSummary(history)

	for _, p := range report.AtRisk {
		w.logger.WarnContext(ctx, "Negative cash flow risk",
			"month", p.Month,
			"predicted_profit", p.PredictedProfit,
			"predicted_income", p.PredictedIncome,
			"predicted_expense", p.PredictedExpense,
			log.FieldForecastMethod, string(result.Method),
			"trigger", trigger,
			"summary", report.Summary)
	}

	w.logger.InfoContext(ctx, "Risk scan completed",
		"trigger", trigger,
		log.FieldForecastMethod, string(result.Method),
		log.FieldHistoryMonths, result.HistoryMonths,
		log.FieldPeriods, len(result.Forecast),
		"at_risk", len(report.AtRisk))
	return report, nil
}

// HandleEvent implements amqp.Handler. A failed scan requeues the event.
func (w *RiskWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	_, err := w.Scan(ctx, "event:"+event.ID)
	return err
}

// Run starts the scheduled scans and, when consumer is non-nil, the event
// consumer. It blocks until ctx is cancelled or the consumer fails.
func (w *RiskWorker) Run(ctx context.Context, consumer Consumer) error {
	sched := cron.New(cron.WithChain(cron.Recover(cronLogger{w.logger})))
	if _, err := sched.AddFunc(w.schedule, func() {
		if _, err := w.Scan(ctx, "schedule"); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled risk scan failed", log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("invalid risk scan schedule %q: %w", w.schedule, err)
	}

	sched.Start()
	w.logger.InfoContext(ctx, "Risk scan scheduled", "schedule", w.schedule)

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeLedgerEvents(gctx, w.HandleEvent)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		<-sched.Stop().Done()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// cronLogger routes cron's internal logging through the worker logger.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, log.FieldError, err)...)
}
