package memory

import (
	"context"
	"fmt"
	"math"
	"sync"

	"finsight/internal/core"
	"finsight/internal/ledger"
)

// Store keeps transactions in process memory. Its contents are lost on restart.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

var (
	_ ledger.Ledger      = (*Store)(nil)
	_ ledger.RangeReader = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// NewWithHistory seeds the store with one income and one expense transaction
// per record, dated on the first day of the month.
func NewWithHistory(records []core.MonthlyRecord) (*Store, error) {
	s := New()
	for _, r := range records {
		m, err := core.ParseMonth(r.Month)
		if err != nil {
			return nil, err
		}
		date := core.Date{Time: m.Start()}
		for _, entry := range []struct {
			typ    core.TransactionType
			amount float64
		}{{core.Income, r.Income}, {core.Expense, r.Expense}} {
			cents := int64(math.Round(entry.amount * 100))
			if cents <= 0 {
				continue
			}
			s.items = append(s.items, core.Transaction{
				ID:          fmt.Sprintf("seed-%s-%s", r.Month, entry.typ),
				Date:        date,
				Type:        entry.typ,
				Amount:      core.Money{Cents: cents},
				Description: "Opening balance",
			})
		}
	}
	return s, nil
}

// Record stores the transaction and returns a synthetic row reference.
func (s *Store) Record(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, tx)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) MonthlyHistory(_ context.Context, months int) ([]core.MonthlyRecord, error) {
	if months < 1 {
		return nil, ledger.ErrInvalidWindow
	}
	s.mu.Lock()
	items := append([]core.Transaction(nil), s.items...)
	s.mu.Unlock()
	return ledger.Aggregate(items, months), nil
}

// Transactions returns a copy of everything recorded so far.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}

func (s *Store) TransactionsBetween(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	if err := ledger.CheckRange(from, to); err != nil {
		return nil, err
	}
	return ledger.Between(s.Transactions(), from, to), nil
}
