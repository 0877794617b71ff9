package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestNewClient_MissingSpreadsheetID(t *testing.T) {
	_, err := NewClient(context.Background(), "  ", "", Credentials{JSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	got, err := loadCredentials(Credentials{JSON: ` {"type":"service_account"} `, File: "/does/not/exist"})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline JSON should win: %q err=%v", got, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = loadCredentials(Credentials{File: path})
	if err != nil || string(got) != `{"from":"file"}` {
		t.Fatalf("file credentials: %q err=%v", got, err)
	}

	if _, err := loadCredentials(Credentials{File: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatal("expected error for unreadable file")
	}

	_, err = loadCredentials(Credentials{})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestLoadCredentials_ApplicationDefaultPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adc.json")
	if err := os.WriteFile(path, []byte(`{"adc":true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)

	got, err := loadCredentials(Credentials{})
	if err != nil || string(got) != `{"adc":true}` {
		t.Fatalf("expected GOOGLE_APPLICATION_CREDENTIALS fallback, got %q err=%v", got, err)
	}
}

func TestClient_UninitializedService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: DefaultSheetName}
	ctx := context.Background()

	if err := c.Upsert(ctx, core.Transaction{ID: "x"}); err == nil {
		t.Error("Upsert should fail without a service")
	}
	if err := c.Remove(ctx, "x"); err == nil {
		t.Error("Remove should fail without a service")
	}
	if _, err := c.Rows(ctx); err == nil {
		t.Error("Rows should fail without a service")
	}
}
