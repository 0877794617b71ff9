package ports

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the ledger store and its outbound adapters.
type (
	TransactionReader interface {
		// List returns every transaction dated on or after since, newest first.
		List(ctx context.Context, since core.Date) ([]core.Transaction, error)
		Get(ctx context.Context, id string) (core.Transaction, error)
	}

	TransactionWriter interface {
		Create(ctx context.Context, d core.Draft) (core.Transaction, error)
		// Update replaces every mutable field; it never creates a record.
		Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error)
		Delete(ctx context.Context, id string) error
	}

	// StatsReader provides the grouped monthly sums behind the time-series chart.
	StatsReader interface {
		AggregateMonthly(ctx context.Context, since core.Date) ([]core.MonthlyTotal, error)
	}

	TransactionStore interface {
		TransactionReader
		TransactionWriter
		StatsReader
	}

	// Pinger is implemented by stores that can report their availability.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// LedgerMirror keeps an external copy of the ledger, one row per transaction.
	LedgerMirror interface {
		Upsert(ctx context.Context, t core.Transaction) error
		Remove(ctx context.Context, id string) error
		// Rows returns the mirrored transactions as currently stored.
		Rows(ctx context.Context) ([]core.Transaction, error)
	}
)
