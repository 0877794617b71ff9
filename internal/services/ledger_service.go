package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// EventPublisher announces ledger mutations to other processes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id string, action amqp.Action) error
}

// LedgerService wraps a transaction store and publishes an event after every
// successful mutation. Publishing is best effort: a failed publish is logged
// and never fails the mutation, which is already persisted.
type LedgerService struct {
	store     ports.TransactionStore
	publisher EventPublisher
	stats     cache.Cache[[]core.MonthlyTotal]
}

var _ ports.TransactionStore = (*LedgerService)(nil)

func NewLedgerService(store ports.TransactionStore, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// WithStatsCache keeps monthly totals in c until the next mutation.
func (s *LedgerService) WithStatsCache(c cache.Cache[[]core.MonthlyTotal]) *LedgerService {
	s.stats = c
	return s
}

func (s *LedgerService) List(ctx context.Context, since core.Date) ([]core.Transaction, error) {
	txs, err := s.store.List(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) Get(ctx context.Context, id string) (core.Transaction, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (s *LedgerService) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	t, err := s.store.Create(ctx, d)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.invalidate()
	s.publish(ctx, t.ID, amqp.ActionCreated)
	return t, nil
}

func (s *LedgerService) Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	t, err := s.store.Update(ctx, id, d)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	s.invalidate()
	s.publish(ctx, t.ID, amqp.ActionUpdated)
	return t, nil
}

func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.invalidate()
	s.publish(ctx, id, amqp.ActionDeleted)
	return nil
}

func (s *LedgerService) AggregateMonthly(ctx context.Context, since core.Date) ([]core.MonthlyTotal, error) {
	key := since.String()
	if s.stats != nil {
		if totals, ok := s.stats.Get(key); ok {
			return slices.Clone(totals), nil
		}
	}

	totals, err := s.store.AggregateMonthly(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly totals: %w", err)
	}
	if s.stats != nil {
		s.stats.Set(key, slices.Clone(totals))
	}
	return totals, nil
}

func (s *LedgerService) invalidate() {
	if s.stats != nil {
		s.stats.Clear()
	}
}

// Ping forwards to the store when it can report availability.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, id string, action amqp.Action) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "id", id, "action", action)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id,
			"action", action,
			"error", err)
	}
}

// Close closes the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
