// Package memory is an in-process ledger store for development and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

type record struct {
	tx  core.Transaction
	seq uint64
}

type Store struct {
	mu       sync.Mutex
	accounts core.Accounts
	items    []record
	seq      uint64
	now      func() time.Time
}

func New(accounts core.Accounts) *Store {
	if len(accounts) == 0 {
		accounts = core.DefaultAccounts
	}
	return &Store{accounts: accounts, now: time.Now}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) List(_ context.Context, since core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	matched := make([]record, 0, len(s.items))
	for _, r := range s.items {
		if !r.tx.Date.Before(since.Time) {
			matched = append(matched, r)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(matched, func(a, b record) int {
		if c := b.tx.Date.Compare(a.tx.Date.Time); c != 0 {
			return c
		}
		if c := a.tx.CreatedAt.Compare(b.tx.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]core.Transaction, len(matched))
	for i, r := range matched {
		out[i] = r.tx
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].tx, nil
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) Create(_ context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(s.accounts); err != nil {
		return core.Transaction{}, err
	}
	now := s.now().UTC()
	t := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      d.Amount,
		Date:        d.Date,
		Description: d.Description,
		Entry:       d.Entry,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.items = append(s.items, record{tx: t, seq: s.seq})
	return t, nil
}

func (s *Store) Update(_ context.Context, id string, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(s.accounts); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	t := &s.items[i].tx
	t.Amount = d.Amount
	t.Date = d.Date
	t.Description = d.Description
	t.Entry = d.Entry
	t.UpdatedAt = s.now().UTC()
	return *t, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

type groupKey struct {
	kind        core.Kind
	category    string
	year, month int
}

// AggregateMonthly groups transactions dated on or after since by type,
// category and calendar month, ordered by year, month, type and category.
func (s *Store) AggregateMonthly(_ context.Context, since core.Date) ([]core.MonthlyTotal, error) {
	s.mu.Lock()
	totals := make(map[groupKey]int64)
	for _, r := range s.items {
		t := r.tx
		if t.Date.Before(since.Time) {
			continue
		}
		k := groupKey{kind: t.Kind(), category: t.Category(), year: t.Date.Year(), month: t.Date.Month()}
		totals[k] += t.Amount.Cents
	}
	s.mu.Unlock()

	out := make([]core.MonthlyTotal, 0, len(totals))
	for k, cents := range totals {
		out = append(out, core.MonthlyTotal{
			Kind:     k.kind,
			Category: k.category,
			Month:    k.month,
			Year:     k.year,
			Total:    core.Money{Cents: cents},
		})
	}
	slices.SortFunc(out, func(a, b core.MonthlyTotal) int {
		return cmp.Or(
			cmp.Compare(a.Year, b.Year),
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Category, b.Category),
		)
	})
	return out, nil
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.items {
		if r.tx.ID == id {
			return i
		}
	}
	return -1
}
