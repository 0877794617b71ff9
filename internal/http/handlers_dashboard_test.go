package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/storage/memory"
)

func TestDashboardRenders(t *testing.T) {
	store := memory.New(nil)
	srv := newTestServer(t, store)
	seed(t, store, 50000, core.NewDate(2025, 6, 1), core.IncomeEntry{Source: "salary"})
	seed(t, store, 1234, core.NewDate(2025, 6, 2), core.ExpenseEntry{Category: "food"})
	if _, err := store.Create(context.Background(), core.Draft{
		Amount: core.Money{Cents: 999}, Date: core.NewDate(2025, 5, 2),
		Description: "second-hand novel", Entry: core.ExpenseEntry{Category: "books"},
	}); err != nil {
		t.Fatal(err)
	}

	rec := do(t, srv, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"June 2025", "€500,00", "€12,34", "KSFE", "2025-05", "second-hand novel"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	rec = do(t, srv, http.MethodGet, "/?type=expense&category=food", "")
	body = rec.Body.String()
	if !strings.Contains(body, "€12,34") || strings.Contains(body, "second-hand novel") {
		t.Errorf("filter not applied")
	}
}

func TestDashboardShowsLoadErrors(t *testing.T) {
	srv := newTestServer(t, failingStore{err: errors.New("boom")})
	rec := do(t, srv, http.MethodGet, "/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Could not load your transactions") {
		t.Fatal("expected inline error message")
	}
}

func TestFormCreate(t *testing.T) {
	store := memory.New(nil)
	srv := newTestServer(t, store)
	seed(t, store, 10000, core.NewDate(2025, 6, 1), core.IncomeEntry{Source: "salary"})

	form := url.Values{
		"type": {"expense"}, "amount": {"40,50"}, "date": {"2025-06-10"},
		"category": {"food"}, "description": {"market"},
	}
	rec := postForm(t, srv, "/ui/transactions", form)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/?notice=saved" {
		t.Fatalf("status=%d location=%q body=%s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	form.Set("amount", "60")
	rec = postForm(t, srv, "/ui/transactions", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("over budget status=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Over budget") || !strings.Contains(body, `value="market"`) {
		t.Fatalf("expected inline error with the form echoed back: %s", body)
	}

	deduct := url.Values{
		"type": {"saving"}, "amount": {"500"}, "date": {"2025-06-10"},
		"category": {"KSFE"}, "operation": {"deduct"},
	}
	if rec := postForm(t, srv, "/ui/transactions", deduct); rec.Code != http.StatusSeeOther {
		t.Fatalf("deduct must bypass the budget check: %d", rec.Code)
	}

	invalid := url.Values{"type": {"expense"}, "amount": {"abc"}, "date": {"2025-06-10"}, "category": {"food"}}
	if rec := postForm(t, srv, "/ui/transactions", invalid); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid amount: %d", rec.Code)
	}

	txs, _ := store.List(context.Background(), core.NewDate(2025, 1, 1))
	if len(txs) != 3 {
		t.Fatalf("expected 3 stored transactions, got %d", len(txs))
	}
}

func TestFormDelete(t *testing.T) {
	store := memory.New(nil)
	srv := newTestServer(t, store)
	tx := seed(t, store, 100, core.NewDate(2025, 6, 1), core.ExpenseEntry{Category: "food"})

	rec := postForm(t, srv, "/ui/transactions/"+tx.ID+"/delete", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status=%d", rec.Code)
	}
	rec = postForm(t, srv, "/ui/transactions/"+tx.ID+"/delete", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Expense not found") {
		t.Fatalf("second delete: %d", rec.Code)
	}
}

func TestDistributionRows(t *testing.T) {
	rows := distributionRows([]ledger.Bucket{
		{Label: "rent", Amount: core.Money{Cents: 100000}},
		{Label: "coffee", Amount: core.Money{Cents: 100}},
		{Label: "food", Amount: core.Money{Cents: 50000}},
	})
	if rows[0].Width != 100 || rows[1].Width != 2 || rows[2].Width != 50 {
		t.Fatalf("unexpected widths %+v", rows)
	}
}

func TestMonthRows(t *testing.T) {
	rows := monthRows([]core.MonthlyTotal{
		{Kind: core.KindExpense, Category: "food", Month: 6, Year: 2025, Total: core.Money{Cents: 100}},
		{Kind: core.KindExpense, Category: "rent", Month: 6, Year: 2025, Total: core.Money{Cents: 200}},
		{Kind: core.KindIncome, Category: "salary", Month: 5, Year: 2025, Total: core.Money{Cents: 900}},
	})
	if len(rows) != 2 || rows[0].Label != "2025-05" || rows[1].Expense.Cents != 300 || rows[0].Income.Cents != 900 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
