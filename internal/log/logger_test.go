package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentStorage, Output: &buf})
	l.Debug("hello", FieldTransactionID, "abc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentStorage || rec[FieldTransactionID] != "abc" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if l.Component() != ComponentStorage {
		t.Fatalf("Component() = %q", l.Component())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: ParseLevel("warn"), Output: &buf})
	l.Info("dropped")
	l.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := New(DefaultConfig()).WithComponent(ComponentHTTP)
	ctx := WithContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Fatal("expected the stored logger back")
	}
	if got := FromContext(context.Background()); got == nil || got.Component() != "unknown" {
		t.Fatalf("expected default fallback, got %+v", got)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentLedger).
		WithOperation(OpCreate).
		WithTransaction("id-1", "saving", "SIB", 500).
		WithError(errors.New("boom")).
		WithError(nil)

	if len(f) != 7 {
		t.Fatalf("expected 7 fields, got %d: %v", len(f), f)
	}
	if f[FieldError] != "boom" || f[FieldAmountCents] != int64(500) {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 14 {
		t.Fatalf("ToSlice should flatten key/value pairs")
	}
}
