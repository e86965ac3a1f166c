package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validConfig = `
debug: false
server:
  address: 127.0.0.1
  port: 8080
  public_url: https://example.org
  limits:
    max_payload_size: 5242880
    max_file_size: 52428800
micropub:
  me_url: https://example.org/
  token_endpoint: https://tokens.indieauth.com/token
content:
  strategy: sql
  sql:
    driver: postgres
    dsn: postgres://inkwell@localhost/inkwell
media:
  strategy: none
mirror:
  strategy: none
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validConfig))
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Fatalf("unexpected port %d", cfg.Server.Port)
		}
		if cfg.Content.Sql == nil || cfg.Content.Sql.Driver != "postgres" {
			t.Fatalf("unexpected content config %+v", cfg.Content)
		}
	})

	t.Run("missing token endpoint fails validation", func(t *testing.T) {
		bad := `
server:
  address: 127.0.0.1
  port: 8080
  public_url: https://example.org
  limits:
    max_payload_size: 1024
    max_file_size: 1024
micropub:
  me_url: https://example.org/
content:
  strategy: sql
  sql:
    driver: mysql
    dsn: user@/db
media:
  strategy: none
mirror:
  strategy: none
`
		if _, err := LoadConfig(writeConfig(t, bad)); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("sql strategy requires sql block", func(t *testing.T) {
		bad := `
server:
  address: 127.0.0.1
  port: 8080
  public_url: https://example.org
  limits:
    max_payload_size: 1024
    max_file_size: 1024
micropub:
  me_url: https://example.org/
  token_endpoint: https://tokens.indieauth.com/token
content:
  strategy: sql
media:
  strategy: none
mirror:
  strategy: none
`
		if _, err := LoadConfig(writeConfig(t, bad)); err == nil {
			t.Fatal("expected validation error for missing sql block")
		}
	})

	t.Run("nonexistent file errors", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
			t.Fatal("expected read error")
		}
	})
}
