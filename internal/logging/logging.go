// Package logging builds the zap logger used across adminctl.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/klubi/adminctl/internal/config"
)

// New builds a logger writing to stderr. Console format uses the
// development encoder; json uses the production one.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return build(cfg, []string{"stderr"})
}

// NewFile builds a logger writing only to cfg.File. The terminal UI owns
// the screen, so it must never log to stdout or stderr.
func NewFile(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return build(cfg, []string{cfg.File})
}

func build(cfg config.LogConfig, outputs []string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = outputs
	zc.ErrorOutputPaths = outputs

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
