package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yokitheyo/formupload/internal/model"
)

const sample = `
upload:
  action: http://localhost:5001/upload
  timeout_ms: 60000
  fields:
    - name: mode
      value: excel
  files:
    - field: pdf_file
      path: ./exam.pdf
    - field: excel_file
      path: ./students.xlsx
ui:
  locale: zh
  messages:
    failed: "try again later"
log:
  level: debug
  format: json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timeout() != time.Minute {
		t.Errorf("timeout = %v", cfg.Timeout())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}

	f := cfg.Form()
	if f == nil {
		t.Fatal("expected form")
	}
	if f.Action != "http://localhost:5001/upload" {
		t.Errorf("action = %q", f.Action)
	}
	if len(f.Fields) != 1 || f.Fields[0].Name != "mode" || f.Fields[0].Value != "excel" {
		t.Errorf("fields = %+v", f.Fields)
	}
	if len(f.Files) != 2 || f.Files[1].Name != "excel_file" || f.Files[1].Path != "./students.xlsx" {
		t.Errorf("files = %+v", f.Files)
	}

	m, err := cfg.Messages()
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if m.Failed != "try again later" {
		t.Errorf("failed = %q", m.Failed)
	}
	if m.Timeout != "上传超时，请尝试分割PDF后再上传" {
		t.Errorf("timeout = %q", m.Timeout)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timeout() != model.DefaultTimeout {
		t.Errorf("timeout = %v, want %v", cfg.Timeout(), model.DefaultTimeout)
	}
	if cfg.UI.Locale != "en" || cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Form() != nil {
		t.Error("no action must yield no form")
	}
	m, err := cfg.Messages()
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if m.Error != "upload error, please retry" {
		t.Errorf("error message = %q", m.Error)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "upload: [")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestMessagesInvalid(t *testing.T) {
	cfg, _ := LoadConfig(writeConfig(t, "ui:\n  locale: klingon\n"))
	if _, err := cfg.Messages(); err == nil {
		t.Error("expected error for unknown locale")
	}
	cfg, _ = LoadConfig(writeConfig(t, "ui:\n  messages:\n    progress: \"done\"\n"))
	if _, err := cfg.Messages(); err == nil {
		t.Error("expected error for progress text without a percent verb")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("UPLOAD_ACTION", "https://split.example.com/upload")
	t.Setenv("UPLOAD_TIMEOUT_MS", "1500")
	t.Setenv("UPLOAD_LOCALE", "zh")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, _ := LoadConfig(writeConfig(t, sample))
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Upload.Action != "https://split.example.com/upload" {
		t.Errorf("action = %q", cfg.Upload.Action)
	}
	if cfg.Timeout() != 1500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Timeout())
	}
	if cfg.UI.Locale != "zh" || cfg.Log.Level != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("UPLOAD_TIMEOUT_MS", "soon")
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("UPLOAD_LOCALE=zh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UPLOAD_LOCALE", "")
	os.Unsetenv("UPLOAD_LOCALE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("UPLOAD_LOCALE"); got != "zh" {
		t.Errorf("UPLOAD_LOCALE = %q", got)
	}
}
