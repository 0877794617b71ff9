package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timestampLayout is fixed width so timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, amount_cents, category, date, description, type, operation, created_at, updated_at FROM transactions`

type SQLiteRepository struct {
	db       *sql.DB
	accounts core.Accounts
	now      func() time.Time
}

func NewSQLiteRepository(dbPath string, accounts core.Accounts) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if len(accounts) == 0 {
		accounts = core.DefaultAccounts
	}

	return &SQLiteRepository{db: db, accounts: accounts, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) List(ctx context.Context, since core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		selectColumns+` WHERE date >= ? ORDER BY date DESC, created_at ASC, rowid ASC`,
		since.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(r.accounts); err != nil {
		return core.Transaction{}, err
	}

	now := r.now().UTC()
	t := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      d.Amount,
		Date:        d.Date,
		Description: d.Description,
		Entry:       d.Entry,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount_cents, category, date, description, type, operation, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount.Cents, t.Category(), t.Date.String(), t.Description,
		string(t.Kind()), nullOperation(t), now.Format(timestampLayout), now.Format(timestampLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	fields := log.NewFields().
		WithComponent(log.ComponentStorage).
		WithOperation(log.OpCreate).
		WithTransaction(t.ID, string(t.Kind()), t.Category(), t.Amount.Cents)
	slog.InfoContext(ctx, "Transaction saved to SQLite", append(fields.ToSlice(), "date", t.Date.String())...)

	return t, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	if err := d.Validate(r.accounts); err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{ID: id, Amount: d.Amount, Date: d.Date, Description: d.Description, Entry: d.Entry}
	now := r.now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, category = ?, date = ?, description = ?, type = ?, operation = ?, updated_at = ?
		 WHERE id = ?`,
		t.Amount.Cents, t.Category(), t.Date.String(), t.Description,
		string(t.Kind()), nullOperation(t), now.Format(timestampLayout), id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated in SQLite", "id", id, "amount_cents", t.Amount.Cents)

	return r.Get(ctx, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

// AggregateMonthly sums amounts per (type, category, month, year) for
// transactions dated on or after since. Saving adds and deducts share a group.
func (r *SQLiteRepository) AggregateMonthly(ctx context.Context, since core.Date) ([]core.MonthlyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type, category,
		       CAST(strftime('%m', date) AS INTEGER) AS month,
		       CAST(strftime('%Y', date) AS INTEGER) AS year,
		       SUM(amount_cents) AS total
		FROM transactions
		WHERE date >= ?
		GROUP BY type, category, year, month
		ORDER BY year, month, type, category`, since.String())
	if err != nil {
		return nil, fmt.Errorf("aggregate transactions: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyTotal
	for rows.Next() {
		var (
			kind, category string
			month, year    int
			total          int64
		)
		if err := rows.Scan(&kind, &category, &month, &year, &total); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		out = append(out, core.MonthlyTotal{
			Kind:     core.Kind(kind),
			Category: category,
			Month:    month,
			Year:     year,
			Total:    core.Money{Cents: total},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly totals: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                    core.Transaction
		cents                int64
		category, date, kind string
		operation            sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&t.ID, &cents, &category, &date, &t.Description, &kind, &operation, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}

	entry, err := core.NewEntry(core.Kind(kind), category, core.Operation(operation.String))
	if err != nil {
		return t, fmt.Errorf("decode transaction %s: %w", t.ID, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return t, fmt.Errorf("decode transaction %s date %q: %w", t.ID, date, err)
	}

	t.Amount = core.Money{Cents: cents}
	t.Date = d
	t.Entry = entry
	t.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	t.UpdatedAt, _ = time.Parse(timestampLayout, updatedAt)
	return t, nil
}

func nullOperation(t core.Transaction) sql.NullString {
	op := t.Operation()
	return sql.NullString{String: string(op), Valid: op != ""}
}
