// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging assembles the run logger: a console stream plus an
// appended log file, both receiving the same timestamped, leveled lines.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/gpc-harvester/pkg/types"
)

// New builds a logger from cfg. The returned close function flushes and
// closes the file sink; call it at process exit. Repeated runs append to
// the same file.
func New(cfg types.LogConfig) (*zap.Logger, func() error, error) {
	level := parseLevel(cfg.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
	}
	closeFn := func() error { return nil }

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(f), level))
		closeFn = f.Close
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() error {
		logger.Sync()
		return closeFn()
	}, nil
}

// parseLevel converts a level name to a zap level, defaulting to info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
