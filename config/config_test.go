package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbenforce.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvDSN, EnvTransport, EnvLogLevel, EnvHistoryDSN, EnvPassword} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDSN, "root@tcp(127.0.0.1:3306)/")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transport != TransportSQL {
		t.Errorf("expected sql transport, got %q", cfg.Transport)
	}
	if cfg.PasswordColumn != "Password" {
		t.Errorf("expected Password column, got %q", cfg.PasswordColumn)
	}
	if cfg.History.Type != "none" {
		t.Errorf("expected no history, got %q", cfg.History.Type)
	}
	if cfg.DSN != "root@tcp(127.0.0.1:3306)/" {
		t.Errorf("dsn not taken from environment: %q", cfg.DSN)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
transport = "cli"
password_column = "authentication_string"
statements_per_second = 5

[cli]
host = "db.internal"
port = 3307
user = "admin"

[log]
level = "debug"

[history]
type = "sqlite"
dsn = "history.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Transport != TransportCLI || cfg.CLI.Host != "db.internal" || cfg.CLI.Port != 3307 {
		t.Errorf("unexpected cli config: %+v", cfg.CLI)
	}
	if cfg.CLI.Binary != "mysql" {
		t.Errorf("binary default lost: %q", cfg.CLI.Binary)
	}
	if cfg.PasswordColumn != "authentication_string" || cfg.StatementsPerSecond != 5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.History.Type != "sqlite" {
		t.Errorf("unexpected log/history: %+v %+v", cfg.Log, cfg.History)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
dsn = "file@tcp(a:3306)/"
[log]
level = "warn"
`)
	t.Setenv(EnvDSN, "env@tcp(b:3306)/")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DSN != "env@tcp(b:3306)/" || cfg.Log.Level != "error" {
		t.Errorf("environment did not win: dsn=%q level=%q", cfg.DSN, cfg.Log.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "dsn = \"x\"\nbogus = 1\n", "unknown config keys: bogus"},
		{"bad transport", "transport = \"ssh\"\n", "transport must be one of"},
		{"missing dsn", "transport = \"sql\"\n", "dsn is required"},
		{"negative rate", "dsn = \"x\"\nstatements_per_second = -1\n", "statements_per_second"},
		{"bad history", "dsn = \"x\"\n[history]\ntype = \"redis\"\n", "history.type must be one of"},
		{"history dsn", "dsn = \"x\"\n[history]\ntype = \"postgres\"\n", "history.dsn is required"},
		{"kafka brokers", "dsn = \"x\"\n[history]\ntype = \"kafka\"\n", "history.brokers is required"},
		{"syntax", "dsn = \n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadSkipsValidation(t *testing.T) {
	clearEnv(t)
	cfg, err := Read(writeConfig(t, "manifest = \"db.toml\"\n"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if cfg.Manifest != "db.toml" {
		t.Errorf("manifest = %q", cfg.Manifest)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to require a dsn")
	}
	cfg.DSN = "root@tcp(127.0.0.1:3306)/"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed after setting dsn: %v", err)
	}
}
