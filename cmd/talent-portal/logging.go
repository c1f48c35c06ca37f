package main

import (
	"fmt"

	"go.uber.org/zap"
)

// newLogger builds the production JSON logger at level and installs it as
// the global zap logger. The returned func flushes and restores the previous
// global.
func newLogger(level string) (*zap.Logger, func(), error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid TALENT_LOG_LEVEL: %w", err)
	}
	config := zap.NewProductionConfig()
	config.Level = lvl
	logger, err := config.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	restore := zap.ReplaceGlobals(logger)
	return logger, func() {
		_ = logger.Sync()
		restore()
	}, nil
}
