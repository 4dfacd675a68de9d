package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Render.Retention != 7*24*time.Hour {
		t.Errorf("retention = %v", cfg.Render.Retention)
	}
}

func TestParse_OverridesAndSections(t *testing.T) {
	doc := `
server:
  addr: ":9090"
logging:
  level: debug
  format: text
database:
  dsn: postgres://localhost/syndicate
oauth:
  youtube:
    client_id: cid
    client_secret: secret
    token_url: https://oauth2.googleapis.com/token
render:
  budget_dollars: 25
upload:
  s3_enabled: true
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.OAuth["youtube"].ClientID != "cid" {
		t.Errorf("oauth = %+v", cfg.OAuth)
	}
	if cfg.Render.BudgetDollars != 25 {
		t.Errorf("budget = %v", cfg.Render.BudgetDollars)
	}
	if !cfg.Upload.S3Enabled {
		t.Error("s3_enabled not set")
	}
	// Unset sections keep their defaults.
	if cfg.Render.Retention != 7*24*time.Hour {
		t.Errorf("retention = %v", cfg.Render.Retention)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("serverr:\n  addr: ':1'\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestParse_ValidatesOAuthClients(t *testing.T) {
	doc := `
oauth:
  youtube:
    client_secret: secret
`
	if _, err := Parse([]byte(doc)); err == nil || !strings.Contains(err.Error(), "oauth.youtube") {
		t.Errorf("err = %v", err)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_YT_SECRET", "from-env")
	doc := `
oauth:
  youtube:
    client_id: cid
    client_secret: ${TEST_YT_SECRET}
    token_url: https://oauth2.googleapis.com/token
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OAuth["youtube"].ClientSecret != "from-env" {
		t.Errorf("secret = %q", cfg.OAuth["youtube"].ClientSecret)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
