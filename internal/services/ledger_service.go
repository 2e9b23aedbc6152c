package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"finsight/internal/amqp"
	"finsight/internal/classifier"
	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
	"finsight/internal/tax"
)

var (
	// ErrInvalidTransaction wraps validation failures of a recorded transaction.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidQuery wraps bad dashboard and tax parameters.
	ErrInvalidQuery = errors.New("invalid ledger query")
	// ErrRangeUnsupported is returned when the backend cannot list
	// transactions by date.
	ErrRangeUnsupported = errors.New("ledger backend cannot list transactions by date")
)

type (
	Classifier interface {
		Classify(text string) (classifier.Prediction, error)
	}

	Forecaster interface {
		Forecast(ctx context.Context, history []core.MonthlyRecord, periods int) (core.ForecastResult, error)
	}

	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
	}
)

// RecordResult describes a stored transaction.
type RecordResult struct {
	ID       string `json:"id"`
	Ref      string `json:"ref"`
	Category string `json:"category"`
}

// LedgerService orchestrates ledger writes, categorization, event
// publication and forecasts over stored history.
type LedgerService struct {
	ledger     ledger.Ledger
	classifier Classifier
	forecaster Forecaster
	publisher  EventPublisher
	tax        tax.Settings
	logger     *log.Logger
	events     *log.StructuredLogger
	closers    []func() error
}

// NewLedgerService wires the service. classifier and publisher may be nil.
func NewLedgerService(l ledger.Ledger, c Classifier, f Forecaster, p EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &LedgerService{
		ledger:     l,
		classifier: c,
		forecaster: f,
		publisher:  p,
		tax:        tax.DefaultSettings(),
		logger:     logger,
		events:     log.NewStructuredLogger(logger),
	}
}

// SetTaxSettings replaces the settings used by TaxEstimate. Out-of-range
// fields fall back to their defaults.
func (s *LedgerService) SetTaxSettings(settings tax.Settings) {
	s.tax = settings.Normalize()
}

// OnClose registers a resource released by Close, in reverse order.
func (s *LedgerService) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// RecordTransaction stores tx, filling in an ID and, when empty, a category
// predicted from the description. A failed event publication is logged and
// does not fail the call.
func (s *LedgerService) RecordTransaction(ctx context.Context, tx core.Transaction) (RecordResult, error) {
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Category = strings.TrimSpace(tx.Category)
	if err := tx.Validate(); err != nil {
		return RecordResult{}, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Category == "" {
		tx.Category = s.categorize(ctx, tx.Description)
	}

	ref, err := s.ledger.Record(ctx, tx)
	if err != nil {
		return RecordResult{}, fmt.Errorf("save transaction: %w", err)
	}

	month := tx.Date.MonthOf().String()
	s.events.LogTransactionRecorded(ctx, string(tx.Type), month, tx.Amount.Cents, tx.Category, ref)

	if s.publisher != nil {
		event := amqp.NewLedgerEvent(ref, month, string(tx.Type), tx.Category)
		if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish ledger event",
				log.FieldError, err,
				log.FieldLedgerRef, ref,
				log.FieldEventID, event.ID)
		}
	}

	return RecordResult{ID: tx.ID, Ref: ref, Category: tx.Category}, nil
}

func (s *LedgerService) categorize(ctx context.Context, description string) string {
	if s.classifier == nil {
		return ""
	}
	p, err := s.classifier.Classify(description)
	if err != nil {
		s.logger.WarnContext(ctx, "Classifier unavailable, storing transaction uncategorized",
			log.FieldError, err)
		return ""
	}
	s.logger.DebugContext(ctx, "Transaction categorized",
		log.FieldCategory, p.Category,
		log.FieldConfidence, p.Confidence)
	return p.Category
}

// History returns the last months months with activity, oldest first.
func (s *LedgerService) History(ctx context.Context, months int) ([]core.MonthlyRecord, error) {
	history, err := s.ledger.MonthlyHistory(ctx, months)
	if err != nil {
		return nil, fmt.Errorf("read monthly history: %w", err)
	}
	return history, nil
}

// Forecast projects the stored history of the last months months.
func (s *LedgerService) Forecast(ctx context.Context, months, periods int) (core.ForecastResult, error) {
	history, err := s.History(ctx, months)
	if err != nil {
		return core.ForecastResult{}, err
	}
	return s.forecaster.Forecast(ctx, history, periods)
}

// Summary renders the stored history of the last months months as text.
func (s *LedgerService) Summary(ctx context.Context, months int) (string, []core.MonthlyRecord, error) {
	history, err := s.History(ctx, months)
	if err != nil {
		return "", nil, err
	}
	return core.FormatSummary(history), history, nil
}

func (s *LedgerService) transactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	r, ok := s.ledger.(ledger.RangeReader)
	if !ok {
		return nil, ErrRangeUnsupported
	}
	if err := ledger.CheckRange(from, to); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	txs, err := r.TransactionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Totals sums income and expense dated within [from, to].
func (s *LedgerService) Totals(ctx context.Context, from, to core.Date) (ledger.PeriodTotals, error) {
	txs, err := s.transactionsBetween(ctx, from, to)
	if err != nil {
		return ledger.PeriodTotals{}, err
	}
	return ledger.Totals(txs, from, to), nil
}

// CategoryBreakdown groups the transactions of type typ dated within
// [from, to] by category.
func (s *LedgerService) CategoryBreakdown(ctx context.Context, from, to core.Date, typ core.TransactionType) ([]ledger.CategoryTotal, error) {
	if err := typ.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	txs, err := s.transactionsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return ledger.Breakdown(txs, typ), nil
}

// CashFlow buckets the transactions dated within [from, to] by g.
func (s *LedgerService) CashFlow(ctx context.Context, from, to core.Date, g ledger.Granularity) ([]ledger.CashFlowPoint, error) {
	g, err := ledger.ParseGranularity(string(g))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	txs, err := s.transactionsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return ledger.CashFlow(txs, g), nil
}

// TaxEstimate estimates the tax owed on the profit recorded in year.
func (s *LedgerService) TaxEstimate(ctx context.Context, year int) (tax.Estimate, error) {
	if year < 1 || year > 9999 {
		return tax.Estimate{}, fmt.Errorf("%w: %w", ErrInvalidQuery, tax.ErrInvalidYear)
	}
	from, to := core.NewDate(year, 1, 1), core.NewDate(year, 12, 31)
	totals, err := s.Totals(ctx, from, to)
	if err != nil {
		return tax.Estimate{}, err
	}
	estimate, err := tax.Compute(year, totals.TotalIncome, totals.TotalExpenses, s.tax)
	if err != nil {
		return tax.Estimate{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	s.logger.DebugContext(ctx, "Tax estimated",
		"year", year,
		"taxable_income", estimate.TaxableIncome,
		"estimated_tax", estimate.EstimatedTax)
	return estimate, nil
}

// Ready reports whether the ledger backend is reachable.
func (s *LedgerService) Ready(ctx context.Context) error {
	return ledger.Ping(ctx, s.ledger)
}

func (s *LedgerService) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
