package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/klubi/adminctl/internal/config"
)

func TestNewHonoursLevel(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error must be enabled at warn level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud", Format: "console"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewFileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "adminctl.log")
	logger, err := NewFile(config.LogConfig{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("cache miss")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"cache miss"`) {
		t.Errorf("expected json entry, got %q", data)
	}
}
