package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// Stats are cleared on every write; the TTL only bounds memory held by
// windows nobody asks for anymore.
const (
	statsCacheSize = 16
	statsCacheTTL  = 5 * time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	dial   func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend. Every backend is wrapped in
// a LedgerService so mutations are announced when AMQP is configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	accounts := core.Accounts(config.SavingAccounts)

	var (
		store ports.TransactionStore
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.NewSQLiteRepository(config.SQLiteDBPath, accounts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = memory.New(accounts)
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	stats := cache.NewLRUCache[[]core.MonthlyTotal](statsCacheSize, statsCacheTTL)
	caches := cache.NewManager()
	caches.Register(stats)
	caches.StartCleanup(statsCacheTTL)

	svc := services.NewLedgerService(store, f.publisher(ctx, config)).WithStatsCache(stats)

	return &BackendResult{
		Backend: svc,
		Cleanup: func() error {
			caches.Stop()
			return svc.Close()
		},
	}, nil
}

// publisher connects to AMQP when configured. A broker that cannot be reached
// at startup disables publishing rather than failing the server.
func (f *DefaultFactory) publisher(ctx context.Context, config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}

	client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
