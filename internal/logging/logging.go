// Package logging builds the server's zap logger.
//
// Stdout belongs to the MCP stdio transport, so all diagnostics go to
// stderr. The quiet flag keeps only errors, for hosts that surface a
// server's stderr to the end user.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing human-readable lines to stderr.
func New(quiet bool) *zap.Logger {
	level := zap.InfoLevel
	if quiet {
		level = zap.ErrorLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	return zap.New(core)
}
