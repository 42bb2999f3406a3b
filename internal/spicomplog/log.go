// Package spicomplog provides the structured logger used by the command-line
// tools (cmd/headless, cmd/viewer), replacing the original's raw debug prints
// with zap-backed leveled logging. The simulation core itself does not log.
package spicomplog

import "go.uber.org/zap"

// Logger is the sugared zap logger the command-line tools log through.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a Logger. verbose raises the level to debug; otherwise info.
func New(verbose bool) *Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "" // ticks are the meaningful clock here, not wall time
	logger, err := cfg.Build()
	if err != nil {
		// zap's own production config never fails to build; fall back to a
		// no-op logger rather than letting a logging failure take the sim down.
		logger = zap.NewNop()
	}
	return &Logger{SugaredLogger: logger.Sugar()}
}

// Nop returns a Logger that discards everything, for use in tests that don't
// want log noise.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
