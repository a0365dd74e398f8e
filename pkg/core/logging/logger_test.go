package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	mdwlog "github.com/msto63/lexana/foundation/core/log"
)

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("my-service")

	if cfg.ServiceName != "my-service" {
		t.Errorf("ServiceName = %v, want my-service", cfg.ServiceName)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
}

func TestSetDefaults(t *testing.T) {
	original := DefaultLoggerConfig("")
	defer SetDefaults(original)

	SetDefaults(LoggerConfig{ServiceName: "ignored", Level: "debug", Format: "text"})
	cfg := DefaultLoggerConfig("svc")

	if cfg.ServiceName != "svc" || cfg.Level != "debug" || cfg.Format != "text" {
		t.Errorf("DefaultLoggerConfig() = %+v", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel mdwlog.Level
	}{
		{"debug", "debug", mdwlog.LevelDebug},
		{"trace", "trace", mdwlog.LevelTrace},
		{"warning alias", "warning", mdwlog.LevelWarn},
		{"invalid defaults to info", "invalid", mdwlog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(LoggerConfig{ServiceName: "test", Level: tt.level, Output: &bytes.Buffer{}})
			if logger.GetLevel() != tt.wantLevel {
				t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestNewLogger_AdditionalOutputs(t *testing.T) {
	var primary, extra bytes.Buffer
	logger := NewLogger(LoggerConfig{
		ServiceName:       "test",
		Level:             "info",
		Format:            "logfmt",
		Output:            &primary,
		AdditionalOutputs: []io.Writer{&extra},
	})

	logger.Info("analysis accepted")

	for name, buf := range map[string]*bytes.Buffer{"primary": &primary, "extra": &extra} {
		if !strings.Contains(buf.String(), `message="analysis accepted"`) {
			t.Errorf("%s output = %q", name, buf.String())
		}
	}
}

func TestLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := Wrap("test", NewLogger(LoggerConfig{ServiceName: "test", Level: "debug", Output: &buf}))

	logger.With("component", "handler").Info("request", "status", 200, "orphan")

	var data map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &data); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if data["component"] != "handler" {
		t.Errorf("component = %v, want handler", data["component"])
	}
	if data["status"] != float64(200) {
		t.Errorf("status = %v, want 200", data["status"])
	}
	if _, ok := data["orphan"]; ok {
		t.Error("odd trailing key should be dropped")
	}
	if logger.Name() != "test" {
		t.Errorf("Name() = %v, want test", logger.Name())
	}
}

func TestLogger_WithLevel(t *testing.T) {
	logger := New("test")
	result := logger.WithLevel(mdwlog.LevelDebug)

	if result.Name() != "test" {
		t.Errorf("name should be preserved: got %v", result.Name())
	}
	if result.GetLevel() != mdwlog.LevelDebug {
		t.Errorf("GetLevel() = %v, want debug", result.GetLevel())
	}
}

func TestToFields(t *testing.T) {
	if fields := toFields(); fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	fields := toFields("key1", "value1", "key2", 42)
	if fields["key1"] != "value1" {
		t.Errorf("fields[key1] = %v, want value1", fields["key1"])
	}
	if fields["key2"] != 42 {
		t.Errorf("fields[key2] = %v, want 42", fields["key2"])
	}

	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("Non-string key should be skipped, got %v fields", len(fields))
	}
}
