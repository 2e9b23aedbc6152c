package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	ID          int64
	ExternalID  string
	Date        string
	Type        string
	AmountCents int64
	Description string
	Category    string
	CreatedAt   string
}

type CreateTransactionParams struct {
	ExternalID  string
	Date        string
	Type        string
	AmountCents int64
	Description string
	Category    string
}

const createTransaction = `
INSERT INTO transactions (external_id, date, type, amount_cents, description, category)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, external_id, date, type, amount_cents, description, category, created_at
`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.ExternalID,
		arg.Date,
		arg.Type,
		arg.AmountCents,
		arg.Description,
		arg.Category,
	)
	var i TransactionRow
	err := row.Scan(
		&i.ID,
		&i.ExternalID,
		&i.Date,
		&i.Type,
		&i.AmountCents,
		&i.Description,
		&i.Category,
		&i.CreatedAt,
	)
	return i, err
}

const getTransaction = `
SELECT id, external_id, date, type, amount_cents, description, category, created_at
FROM transactions
WHERE id = ?
`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := row.Scan(
		&i.ID,
		&i.ExternalID,
		&i.Date,
		&i.Type,
		&i.AmountCents,
		&i.Description,
		&i.Category,
		&i.CreatedAt,
	)
	return i, err
}

type ListTransactionsBetweenParams struct {
	FromDate string
	ToDate   string
}

const listTransactionsBetween = `
SELECT id, external_id, date, type, amount_cents, description, category, created_at
FROM transactions
WHERE date BETWEEN ? AND ?
ORDER BY date ASC, id ASC
`

func (q *Queries) ListTransactionsBetween(ctx context.Context, arg ListTransactionsBetweenParams) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsBetween, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.ID,
			&i.ExternalID,
			&i.Date,
			&i.Type,
			&i.AmountCents,
			&i.Description,
			&i.Category,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type MonthlyTotalsRow struct {
	Month        string
	IncomeCents  int64
	ExpenseCents int64
}

// The inner query picks the most recent months; the outer one restores
// ascending order.
const getMonthlyTotals = `
SELECT month, income_cents, expense_cents FROM (
    SELECT substr(date, 1, 7) AS month,
           CAST(COALESCE(SUM(CASE WHEN type = 'income'  THEN amount_cents END), 0) AS INTEGER) AS income_cents,
           CAST(COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents END), 0) AS INTEGER) AS expense_cents
    FROM transactions
    GROUP BY month
    ORDER BY month DESC
    LIMIT ?
)
ORDER BY month ASC
`

func (q *Queries) GetMonthlyTotals(ctx context.Context, limit int64) ([]MonthlyTotalsRow, error) {
	rows, err := q.db.QueryContext(ctx, getMonthlyTotals, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyTotalsRow
	for rows.Next() {
		var i MonthlyTotalsRow
		if err := rows.Scan(&i.Month, &i.IncomeCents, &i.ExpenseCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTransactions = `SELECT COUNT(*) FROM transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}
