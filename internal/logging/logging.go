// Package logging builds the zap logger. The interactive view owns the
// terminal, so output always goes to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Settings selects the log file and minimum level
type Settings struct {
	File    string
	Level   string
	Verbose bool // forces debug level
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return lvl, nil
}

// New builds a JSON production logger writing to s.File. An empty file
// discards all output.
func New(s Settings) (*zap.Logger, error) {
	if s.File == "" {
		return zap.NewNop(), nil
	}

	lvl, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	if s.Verbose {
		lvl = zapcore.DebugLevel
	}

	if dir := filepath.Dir(s.File); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{s.File}
	config.ErrorOutputPaths = []string{s.File}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.With(zap.Int("pid", os.Getpid())), nil
}
