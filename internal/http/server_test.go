package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/storage/memory"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, store ports.TransactionStore) *Server {
	t.Helper()
	srv, err := NewServer(Options{Logger: log.New(log.Config{Output: io.Discard})}, store)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, srv *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func seed(t *testing.T, store ports.TransactionStore, cents int64, date core.Date, entry core.Entry) core.Transaction {
	t.Helper()
	tx, err := store.Create(context.Background(), core.Draft{Amount: core.Money{Cents: cents}, Date: date, Entry: entry})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tx
}

// failingStore fails every call with a storage error.
type failingStore struct{ err error }

func (f failingStore) List(context.Context, core.Date) ([]core.Transaction, error) { return nil, f.err }
func (f failingStore) Get(context.Context, string) (core.Transaction, error) {
	return core.Transaction{}, f.err
}
func (f failingStore) Create(context.Context, core.Draft) (core.Transaction, error) {
	return core.Transaction{}, f.err
}
func (f failingStore) Update(context.Context, string, core.Draft) (core.Transaction, error) {
	return core.Transaction{}, f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }
func (f failingStore) AggregateMonthly(context.Context, core.Date) ([]core.MonthlyTotal, error) {
	return nil, f.err
}
func (f failingStore) Ping(context.Context) error { return f.err }

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
	}

	down := newTestServer(t, failingStore{err: errors.New("disk gone")})
	rec := do(t, down, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing store: %d", rec.Code)
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := newTestServer(t, memory.New(nil))

	rec := do(t, srv, http.MethodGet, "/api/expenses", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header on API response: %v", rec.Header())
	}

	rec = do(t, srv, http.MethodGet, "/", "")
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP on dashboard")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("dashboard must not send CORS headers")
	}

	rec = do(t, srv, http.MethodPatch, "/api/expenses", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/static/app.css", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Cache-Control"), "max-age=3600") {
		t.Errorf("static asset: %d %v", rec.Code, rec.Header())
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv, err := NewServer(Options{
		Logger:             log.New(log.Config{Output: io.Discard}),
		RateLimitPerMinute: 1,
	}, memory.New(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	body := `{"amount":1,"category":"food","date":"2025-06-01","type":"expense"}`
	if rec := do(t, srv, http.MethodPost, "/api/expenses", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/api/expenses", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second create: %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/api/expenses", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads are not limited: %d", rec.Code)
	}
}
