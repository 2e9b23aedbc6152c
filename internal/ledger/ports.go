package ledger

import (
	"context"
	"errors"

	"finsight/internal/core"
)

// ErrInvalidWindow is returned when a history window is not a positive
// number of months.
var ErrInvalidWindow = errors.New("history window must be at least one month")

// ErrInvalidRange is returned when a date range starts after it ends.
var ErrInvalidRange = errors.New("range start is after its end")

// Ports for outbound adapters.
type (
	// TransactionWriter persists a validated transaction and returns a
	// backend-specific reference to it.
	TransactionWriter interface {
		Record(ctx context.Context, tx core.Transaction) (ref string, err error)
	}

	// HistoryReader returns the most recent months with activity, oldest first.
	HistoryReader interface {
		MonthlyHistory(ctx context.Context, months int) ([]core.MonthlyRecord, error)
	}

	// RangeReader returns the transactions dated within [from, to], both
	// inclusive, oldest first.
	RangeReader interface {
		TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
	}

	// Pinger is implemented by backends that can report reachability.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	Ledger interface {
		TransactionWriter
		HistoryReader
	}
)

// Ping reports whether l is reachable. Backends without a Pinger are always
// considered reachable.
func Ping(ctx context.Context, l Ledger) error {
	if p, ok := l.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
