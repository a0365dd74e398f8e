package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.General.Name != "lexana" {
		t.Errorf("General.Name = %v, want lexana", cfg.General.Name)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("General.LogLevel = %v, want info", cfg.General.LogLevel)
	}
	if cfg.Lexer.MaxInputLength != 4096 {
		t.Errorf("Lexer.MaxInputLength = %v, want 4096", cfg.Lexer.MaxInputLength)
	}
	if cfg.Lexer.MatchTimeout.Duration != 100*time.Millisecond {
		t.Errorf("Lexer.MatchTimeout = %v, want 100ms", cfg.Lexer.MatchTimeout.Duration)
	}
	if cfg.Parser.AllowTrailing {
		t.Error("Parser.AllowTrailing should default to false")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled should default to true")
	}
	if cfg.History.Path != filepath.Join("./data", "history.db") {
		t.Errorf("History.Path = %v", cfg.History.Path)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxItems != 1024 || cfg.Cache.TTL.Duration != 10*time.Minute {
		t.Errorf("Cache = %+v, want enabled, 1024 items, 10m", cfg.Cache)
	}
	if cfg.HTTPAddress() != "0.0.0.0:8480" {
		t.Errorf("HTTPAddress() = %v, want 0.0.0.0:8480", cfg.HTTPAddress())
	}
	if cfg.GRPCAddress() != "0.0.0.0:9480" {
		t.Errorf("GRPCAddress() = %v, want 0.0.0.0:9480", cfg.GRPCAddress())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Fatal("Load() expected error for non-existent file")
	}
	if !mdwerror.HasCode(err, mdwerror.CodeConfigError) {
		t.Errorf("code = %v, want CONFIG_ERROR", mdwerror.GetCode(err))
	}
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `
[general]
data_dir = "/var/lib/lexana"
log_level = "debug"

[lexer]
normalize_nfc = true
match_timeout = "250ms"

[parser]
allow_trailing = true

[history]
enabled = false

[server]
http_port = 9999
`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
general:
  data_dir: /var/lib/lexana
  log_level: debug
lexer:
  normalize_nfc: true
  match_timeout: 250ms
parser:
  allow_trailing: true
history:
  enabled: false
server:
  http_port: 9999
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if cfg.General.LogLevel != "debug" {
				t.Errorf("General.LogLevel = %v, want debug", cfg.General.LogLevel)
			}
			if !cfg.Lexer.NormalizeNFC {
				t.Error("Lexer.NormalizeNFC = false, want true")
			}
			if cfg.Lexer.MatchTimeout.Duration != 250*time.Millisecond {
				t.Errorf("Lexer.MatchTimeout = %v, want 250ms", cfg.Lexer.MatchTimeout.Duration)
			}
			if !cfg.Parser.AllowTrailing {
				t.Error("Parser.AllowTrailing = false, want true")
			}
			if cfg.History.Enabled {
				t.Error("History.Enabled = true, want false")
			}
			if cfg.History.Path != filepath.Join("/var/lib/lexana", "history.db") {
				t.Errorf("History.Path = %v, want it under data_dir", cfg.History.Path)
			}
			if cfg.Server.HTTPPort != 9999 {
				t.Errorf("Server.HTTPPort = %v, want 9999", cfg.Server.HTTPPort)
			}
			// defaults for missing values
			if cfg.Server.GRPCPort != 9480 {
				t.Errorf("Server.GRPCPort = %v, want 9480 (default)", cfg.Server.GRPCPort)
			}
			if !cfg.Server.EnableReflection {
				t.Error("Server.EnableReflection = false, want true (default)")
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad toml", "config.toml", "[general\nname = 1"},
		{"bad level", "config.toml", "[general]\nlog_level = \"loud\""},
		{"bad port", "config.yaml", "server:\n  grpc_port: 70000\n"},
		{"bad duration", "config.toml", "[lexer]\nmatch_timeout = \"soon\""},
		{"unknown extension", "config.ini", "name=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !mdwerror.HasCode(err, mdwerror.CodeInvalidConfig) {
				t.Errorf("code = %v, want INVALID_CONFIG", mdwerror.GetCode(err))
			}
		})
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("LEXANA_TEST_DIR", "/srv/lexana")

	cfg := &Config{History: HistoryConfig{Path: "$LEXANA_TEST_DIR/h.db"}}
	cfg.expandEnvVars()

	if cfg.History.Path != "/srv/lexana/h.db" {
		t.Errorf("History.Path = %v, want /srv/lexana/h.db", cfg.History.Path)
	}
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[general]\nname = \"from-env\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.General.Name != "from-env" {
		t.Errorf("General.Name = %v, want from-env", cfg.General.Name)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("HOME", t.TempDir())

	originalWd, _ := os.Getwd()
	os.Chdir(t.TempDir())
	defer os.Chdir(originalWd)

	_, err := LoadFromEnv()
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("LoadFromEnv() error = %v, want ErrNoConfig", err)
	}
}
