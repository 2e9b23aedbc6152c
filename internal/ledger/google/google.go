package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finsight/internal/cache"
	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
)

const monthlyCacheKey = "monthly"

// Options configures the Sheets-backed ledger.
type Options struct {
	SpreadsheetID     string
	MonthlySheet      string
	TransactionsSheet string
	CredentialsFile   string
	CredentialsJSON   string
	CacheTTL          time.Duration
	Logger            *log.Logger
}

// Client stores transactions as rows of a Transactions sheet and reads the
// monthly history from a Monthly sheet laid out as Month | Income | Expense.
// The Monthly sheet is expected to aggregate the Transactions sheet with
// formulas, so every write invalidates the cached history.
type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	monthlySheet      string
	transactionsSheet string
	history           *cache.LRUCache[[]core.MonthlyRecord]
	logger            *log.Logger
}

var (
	_ ledger.Ledger      = (*Client)(nil)
	_ ledger.Pinger      = (*Client)(nil)
	_ ledger.RangeReader = (*Client)(nil)
)

// New authenticates with service account credentials and builds a client.
// Extra client options are appended after the credentials.
func New(ctx context.Context, opts Options, extra ...goption.ClientOption) (*Client, error) {
	creds, err := credentialsJSON(opts)
	if err != nil {
		return nil, err
	}
	clientOpts := append([]goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, extra...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts)
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, opts Options) (*Client, error) {
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if opts.MonthlySheet == "" {
		opts.MonthlySheet = "Monthly"
	}
	if opts.TransactionsSheet == "" {
		opts.TransactionsSheet = "Transactions"
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	return &Client{
		svc:               svc,
		spreadsheetID:     opts.SpreadsheetID,
		monthlySheet:      opts.MonthlySheet,
		transactionsSheet: opts.TransactionsSheet,
		history:           cache.NewLRUCache[[]core.MonthlyRecord](1, opts.CacheTTL),
		logger:            logger,
	}, nil
}

func credentialsJSON(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case opts.CredentialsFile != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// Cache exposes the history cache so it can be registered for periodic cleanup.
func (c *Client) Cache() *cache.LRUCache[[]core.MonthlyRecord] {
	return c.history
}

// Record appends the transaction as a new row and returns the updated range.
func (c *Client) Record(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	rng := fmt.Sprintf("%s!A:F", c.transactionsSheet)
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.transactionsSheet, err)
	}

	c.history.Purge()

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Transaction appended to sheet",
		log.FieldLedgerRef, ref,
		log.FieldTxType, string(tx.Type),
		log.FieldCategory, tx.Category)
	return ref, nil
}

// MonthlyHistory reads the Monthly sheet, serving repeated reads from cache.
func (c *Client) MonthlyHistory(ctx context.Context, months int) ([]core.MonthlyRecord, error) {
	if months < 1 {
		return nil, ledger.ErrInvalidWindow
	}

	all, ok := c.history.Get(monthlyCacheKey)
	if !ok {
		rng := fmt.Sprintf("%s!A2:C", c.monthlySheet)
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
			ValueRenderOption("UNFORMATTED_VALUE").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rng, err)
		}
		var skipped int
		all, skipped = parseMonthly(resp.Values)
		if skipped > 0 {
			c.logger.WarnContext(ctx, "Skipped malformed monthly rows",
				"sheet", c.monthlySheet,
				"count", skipped)
		}
		c.history.Set(monthlyCacheKey, all)
	}

	window := ledger.Window(all, months)
	return append([]core.MonthlyRecord(nil), window...), nil
}

// TransactionsBetween reads the whole Transactions sheet and keeps the rows
// dated within [from, to].
func (c *Client) TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	if err := ledger.CheckRange(from, to); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A2:F", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	txs, skipped := parseTransactions(resp.Values)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Skipped malformed transaction rows",
			"sheet", c.transactionsSheet,
			"count", skipped)
	}
	return ledger.Between(txs, from, to), nil
}

// Ping checks that the spreadsheet is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}

func transactionRow(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.Date.String(),
		string(tx.Type),
		tx.Amount.Units(),
		tx.Description,
		tx.Category,
	}
}
