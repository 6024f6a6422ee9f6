package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"salarydash/internal/amqp"
	applog "salarydash/internal/log"
	"salarydash/internal/storage"
	"salarydash/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With(applog.FieldComponent, applog.ComponentBackend)}
}

// CreateBackend ensures the schema, opens the store and, when configured,
// connects to the AMQP broker. A broker that cannot be reached is logged and
// skipped: records are still stored, only the ledger sync is lost.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLBackend(ctx, storage.SQLite, config.SQLiteDBPath, config)
	case PostgresBackend:
		result, err = f.createSQLBackend(ctx, storage.Postgres, config.DatabaseURL, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Events = client
		}
	}

	storeCleanup := result.Cleanup
	events := result.Events
	result.Cleanup = func() error {
		var errs []error
		if events != nil {
			if err := events.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			}
		}
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createSQLBackend(ctx context.Context, dialect storage.Dialect, source string, config Config) (*BackendResult, error) {
	if err := storage.EnsureSchema(ctx, dialect, source); err != nil {
		return nil, fmt.Errorf("ensure %s schema: %w", dialect, err)
	}
	repo, err := storage.Open(ctx, dialect, source, storage.Options{
		MaxOpenConns:    config.MaxOpenConns,
		ConnMaxIdleTime: config.ConnMaxIdle,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s repository: %w", dialect, err)
	}

	f.logger.Info("Initialized SQL backend", "dialect", string(dialect))
	return &BackendResult{Store: repo, DB: repo.DB(), Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	categories, err := storage.DefaultCategories()
	if err != nil {
		return nil, fmt.Errorf("load default categories: %w", err)
	}
	store := memory.New(categories)

	f.logger.Info("Initialized memory backend", "categories", len(categories))
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}
