// Package utils provides utility functions for the phosphene CLI.
//
// This file implements the zap logger. The interactive view owns the terminal, so
// it logs to ~/.phosphene/debug.log; headless commands log to stderr.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// InitLogger initializes the debug file logger
func InitLogger(level string) error {
	logDir := filepath.Join(os.Getenv("HOME"), ".phosphene")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logFile := filepath.Join(logDir, "debug.log")

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))
	config.OutputPaths = []string{logFile}
	config.ErrorOutputPaths = []string{logFile}

	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger = l
	logger.Info("=== Phosphene CLI Started ===")
	return nil
}

// InitConsoleLogger initializes a stderr logger for headless commands
func InitConsoleLogger(level string, verbose bool) error {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger = l
	return nil
}

// Logger returns the process logger. It is a no-op until initialized
func Logger() *zap.Logger {
	return logger
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(format, args...)
}

// Sync flushes buffered log entries
func Sync() {
	_ = logger.Sync()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
