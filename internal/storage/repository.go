package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
)

// ErrNotFound is returned when a transaction does not exist.
var ErrNotFound = errors.New("transaction not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

var (
	_ ledger.Ledger      = (*SQLiteRepository)(nil)
	_ ledger.Pinger      = (*SQLiteRepository)(nil)
	_ ledger.RangeReader = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository opens the database at dbPath, creating its directory
// if needed, and applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("Ledger schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Record implements ledger.TransactionWriter. The returned reference is the row ID.
func (r *SQLiteRepository) Record(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	if tx.ID == "" {
		return "", errors.New("transaction ID is required")
	}

	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ExternalID:  tx.ID,
		Date:        tx.Date.String(),
		Type:        string(tx.Type),
		AmountCents: tx.Amount.Cents,
		Description: tx.Description,
		Category:    tx.Category,
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		log.FieldTxType, row.Type,
		"amount_cents", row.AmountCents,
		"date", row.Date)

	return strconv.FormatInt(row.ID, 10), nil
}

// MonthlyHistory implements ledger.HistoryReader.
func (r *SQLiteRepository) MonthlyHistory(ctx context.Context, months int) ([]core.MonthlyRecord, error) {
	if months < 1 {
		return nil, ledger.ErrInvalidWindow
	}
	rows, err := r.queries.GetMonthlyTotals(ctx, int64(months))
	if err != nil {
		return nil, fmt.Errorf("get monthly totals: %w", err)
	}

	out := make([]core.MonthlyRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.MonthlyRecord{
			Month:   row.Month,
			Income:  core.Money{Cents: row.IncomeCents}.Units(),
			Expense: core.Money{Cents: row.ExpenseCents}.Units(),
		})
	}
	return out, nil
}

// GetTransaction loads a transaction by row ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return toTransaction(row)
}

// TransactionsBetween implements ledger.RangeReader.
func (r *SQLiteRepository) TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	if err := ledger.CheckRange(from, to); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListTransactionsBetween(ctx, ListTransactionsBetweenParams{
		FromDate: from.String(),
		ToDate:   to.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func toTransaction(row TransactionRow) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", row.Date, err)
	}
	return core.Transaction{
		ID:          row.ExternalID,
		Date:        date,
		Type:        core.TransactionType(row.Type),
		Amount:      core.Money{Cents: row.AmountCents},
		Description: row.Description,
		Category:    row.Category,
	}, nil
}

// Ping implements ledger.Pinger.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
