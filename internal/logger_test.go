package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func createTestLogger() *Logger {
	return newLogger(io.Discard, LogLevelDebug, "test")
}

func decodeLogEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output should be valid JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestLogger_NewLogger(t *testing.T) {
	cfg := &Config{
		LogLevel: "debug",
		AppEnv:   "test",
	}

	logger := NewLogger(cfg)

	if logger.level != LogLevelDebug {
		t.Errorf("expected level debug, got %s", logger.level)
	}
	if logger.service != "rankbot" {
		t.Errorf("expected service rankbot, got %s", logger.service)
	}
	if logger.environment != "test" {
		t.Errorf("expected environment test, got %s", logger.environment)
	}
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := newLogger(io.Discard, LogLevel("verbose"), "test")
	if logger.level != LogLevelInfo {
		t.Errorf("expected level info, got %s", logger.level)
	}
}

func TestLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		loggerLevel  LogLevel
		messageLevel LogLevel
		shouldLog    bool
	}{
		{LogLevelDebug, LogLevelDebug, true},
		{LogLevelDebug, LogLevelError, true},
		{LogLevelInfo, LogLevelDebug, false},
		{LogLevelInfo, LogLevelInfo, true},
		{LogLevelInfo, LogLevelWarn, true},
		{LogLevelWarn, LogLevelInfo, false},
		{LogLevelWarn, LogLevelWarn, true},
		{LogLevelError, LogLevelWarn, false},
		{LogLevelError, LogLevelError, true},
	}

	for _, tt := range tests {
		logger := &Logger{level: tt.loggerLevel}
		result := logger.shouldLog(tt.messageLevel)
		if result != tt.shouldLog {
			t.Errorf("level %s should log %s: expected %v, got %v",
				tt.loggerLevel, tt.messageLevel, tt.shouldLog, result)
		}
	}
}

func TestLogger_LogOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelInfo, "test")

	logger.Info("test message").
		Component("test").
		Operation("test_op").
		Duration(100 * time.Millisecond).
		Log()

	entry := decodeLogEntry(t, &buf)

	if entry["message"] != "test message" {
		t.Errorf("expected message 'test message', got %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected level info, got %v", entry["level"])
	}
	if entry["service"] != "rankbot" {
		t.Errorf("expected service rankbot, got %v", entry["service"])
	}
	if entry["component"] != "test" {
		t.Errorf("expected component 'test', got %v", entry["component"])
	}
	if entry["operation"] != "test_op" {
		t.Errorf("expected operation 'test_op', got %v", entry["operation"])
	}
	if entry["duration_ms"] != float64(100) {
		t.Errorf("expected duration 100, got %v", entry["duration_ms"])
	}
}

func TestLogger_DisabledLevelWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelWarn, "test")

	logger.Info("quiet").Component("test").Meta("k", "v").Log()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogger_NilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Error("ignored").Err(errors.New("boom")).Log()
}

func TestLogBuilder_HTTP(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelInfo, "test")

	logger.Info("http request").
		HTTP("GET", "/healthz", 200).
		Log()

	entry := decodeLogEntry(t, &buf)
	if entry["method"] != "GET" {
		t.Errorf("expected method GET, got %v", entry["method"])
	}
	if entry["path"] != "/healthz" {
		t.Errorf("expected path /healthz, got %v", entry["path"])
	}
	if entry["status_code"] != float64(200) {
		t.Errorf("expected status 200, got %v", entry["status_code"])
	}
}

func TestLogBuilder_Interaction(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelInfo, "test")

	logger.Info("interaction").
		Interaction("inv-1", "user-1", "").
		Log()

	entry := decodeLogEntry(t, &buf)
	if entry["invocation_id"] != "inv-1" {
		t.Errorf("expected invocation_id inv-1, got %v", entry["invocation_id"])
	}
	if entry["user_id"] != "user-1" {
		t.Errorf("expected user_id user-1, got %v", entry["user_id"])
	}
	if _, ok := entry["guild_id"]; ok {
		t.Error("empty guild id should be omitted")
	}
}

func TestLogBuilder_Game(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelInfo, "test")

	longPUUID := "abcdefghijklmnopqrstuvwxyz1234567890"
	logger.Info("game data").
		Game(longPUUID, "euw1", "GOLD").
		Log()

	entry := decodeLogEntry(t, &buf)
	puuid, _ := entry["puuid"].(string)
	if !strings.HasSuffix(puuid, "...") {
		t.Error("long PUUID should be truncated")
	}
	if entry["region"] != "euw1" {
		t.Errorf("expected region euw1, got %v", entry["region"])
	}
	if entry["tier"] != "GOLD" {
		t.Errorf("expected tier GOLD, got %v", entry["tier"])
	}
}

func TestLogBuilder_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelError, "test")

	logger.Error("error occurred").
		Err(NewAPIError("test error", 500)).
		ErrorCode("API_ERROR").
		Log()

	entry := decodeLogEntry(t, &buf)
	if entry["error"] != "test error" {
		t.Errorf("expected error 'test error', got %v", entry["error"])
	}
	if entry["error_code"] != "API_ERROR" {
		t.Errorf("expected error code 'API_ERROR', got %v", entry["error_code"])
	}
}

func TestLogBuilder_Meta(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogLevelInfo, "test")

	logger.Info("with metadata").
		Meta("key1", "value1").
		Meta("key2", 42).
		Log()

	entry := decodeLogEntry(t, &buf)
	if entry["key1"] != "value1" {
		t.Errorf("expected key1 'value1', got %v", entry["key1"])
	}
	if entry["key2"] != float64(42) {
		t.Errorf("expected key2 42, got %v", entry["key2"])
	}
}
