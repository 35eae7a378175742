// Package logging builds the zap loggers used across zagent. Interactive
// sessions log to a file under the config directory so the REPL stays clean;
// one-shot commands log to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options control logger construction.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool

	// ConfigDir, when set, routes output to ConfigDir/logs/<date>.log
	// instead of stderr.
	ConfigDir string
}

// New builds a logger per opts. The caller owns Sync.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if opts.ConfigDir != "" {
		logsDir := filepath.Join(opts.ConfigDir, "logs")
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("create logs directory: %w", err)
		}
		name := time.Now().Format("2006-01-02") + ".log"
		cfg.OutputPaths = []string{filepath.Join(logsDir, name)}
		cfg.ErrorOutputPaths = cfg.OutputPaths
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// NewNop returns a disabled logger for callers that do not want output.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
