package backend

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/cache"
	"finsight/internal/ledger/google"
	"finsight/internal/ledger/memory"
	"finsight/internal/log"
	"finsight/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger.WithComponent(log.ComponentStorage))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Ledger:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, google.Options{
		SpreadsheetID:     config.GoogleSpreadsheetID,
		MonthlySheet:      config.GoogleMonthlySheet,
		TransactionsSheet: config.GoogleTransactionsSheet,
		CredentialsFile:   config.GoogleCredentialsFile,
		CredentialsJSON:   config.GoogleCredentialsJSON,
		CacheTTL:          config.SheetsCacheTTL,
		Logger:            f.logger.WithComponent(log.ComponentSheets),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	manager := cache.NewManager(f.logger.WithComponent(log.ComponentCache))
	manager.Register(cli.Cache())
	manager.StartCleanup(time.Minute)

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"cache_ttl", config.SheetsCacheTTL)

	return &BackendResult{
		Ledger: cli,
		Cleanup: func() error {
			manager.Stop()
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Ledger:  memory.New(),
		Cleanup: nil,
	}, nil
}
