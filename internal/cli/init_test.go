package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/config"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON warn record, got %s", out)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("FINTRACK_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINTRACK_TEST_VALUE", "")
	os.Unsetenv("FINTRACK_TEST_VALUE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("FINTRACK_TEST_VALUE"); got != "from-file" {
		t.Errorf("FINTRACK_TEST_VALUE = %q", got)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "not-a-port")
	bad, err := LoadAndValidateConfig(nil)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if bad == nil || bad.Port != "not-a-port" {
		t.Fatalf("loaded config should accompany the error, got %+v", bad)
	}

	t.Setenv("PORT", "8081")
	cfg, err := LoadAndValidateConfig((*config.Config).Validate)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q", cfg.Port)
	}
}

func TestLoadAndValidateConfigForWorker(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "8081")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	if _, err := LoadAndValidateConfig((*config.Config).Validate); err != nil {
		t.Fatalf("server validation should pass without AMQP: %v", err)
	}
	_, err := LoadAndValidateConfig((*config.Config).ValidateWorker)
	if err == nil || !strings.Contains(err.Error(), "AMQP_URL is required by the worker") {
		t.Fatalf("worker validation error = %v", err)
	}
}
