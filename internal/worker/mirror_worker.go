// Package worker keeps the external ledger mirror in step with the store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// MirrorWorker applies transaction events to a LedgerMirror and periodically
// reconciles the mirror against the store in case events were lost.
type MirrorWorker struct {
	store        ports.TransactionReader
	mirror       ports.LedgerMirror
	windowMonths int
	now          func() time.Time
}

func NewMirrorWorker(store ports.TransactionReader, mirror ports.LedgerMirror, windowMonths int) *MirrorWorker {
	return &MirrorWorker{
		store:        store,
		mirror:       mirror,
		windowMonths: windowMonths,
		now:          time.Now,
	}
}

// HandleEvent processes a single transaction event from AMQP. The store is
// the source of truth: a created or updated record that has since vanished is
// removed from the mirror.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"id", msg.ID,
		"action", msg.Action)

	if msg.Action == amqp.ActionDeleted {
		if err := w.mirror.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove mirrored transaction %s: %w", msg.ID, err)
		}
		return nil
	}

	t, err := w.store.Get(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction no longer exists, removing from mirror", "id", msg.ID)
		if err := w.mirror.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove mirrored transaction %s: %w", msg.ID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.mirror.Upsert(ctx, t); err != nil {
		return fmt.Errorf("mirror transaction %s: %w", t.ID, err)
	}
	return nil
}

// Resync upserts every stored transaction in the listing window whose mirror
// row is missing or stale, and removes mirror rows in the window that no
// longer exist in the store. Rows older than the window are left alone.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	since := core.WindowStart(w.now(), w.windowMonths)

	txs, err := w.store.List(ctx, since)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	rows, err := w.mirror.Rows(ctx)
	if err != nil {
		return fmt.Errorf("read mirror: %w", err)
	}

	mirrored := make(map[string]core.Transaction, len(rows))
	for _, r := range rows {
		mirrored[r.ID] = r
	}

	var upserted, removed, failed int
	stored := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		stored[t.ID] = struct{}{}
		if m, ok := mirrored[t.ID]; ok && sameRow(m, t) {
			continue
		}
		if err := w.mirror.Upsert(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror transaction during resync", "id", t.ID, "error", err)
			failed++
			continue
		}
		upserted++
	}

	for _, r := range rows {
		if _, ok := stored[r.ID]; ok || r.Date.Before(since.Time) {
			continue
		}
		if err := w.mirror.Remove(ctx, r.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to remove orphan mirror row", "id", r.ID, "error", err)
			failed++
			continue
		}
		removed++
	}

	slog.InfoContext(ctx, "Mirror resync completed",
		"since", since.String(),
		"stored", len(txs),
		"upserted", upserted,
		"removed", removed,
		"errors", failed)

	if failed > 0 {
		return fmt.Errorf("mirror resync: %d operations failed", failed)
	}
	return nil
}

// RunResync resyncs once immediately and then every interval until ctx is done.
func (w *MirrorWorker) RunResync(ctx context.Context, interval time.Duration) error {
	if err := w.Resync(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup resync failed", "error", err)
	}
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
			}
		}
	}
}

func sameRow(a, b core.Transaction) bool {
	return a.Amount == b.Amount &&
		a.Date.String() == b.Date.String() &&
		a.Kind() == b.Kind() &&
		a.Category() == b.Category() &&
		a.Operation() == b.Operation() &&
		a.Description == b.Description
}
