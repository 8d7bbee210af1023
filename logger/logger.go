// Package logger provides the process-wide structured logger for clap-rci.
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	// Safe no-op default so packages can log before Initialize is ever called
	// (e.g. when the library is driven directly by a host process that never
	// touches the demo CLI).
	current.Store(zap.NewNop().Sugar())
}

// Initialize installs the process-wide logger. jsonOutput selects
// machine-readable structured output over the human-readable console
// encoder; the host's embedding process decides which it wants.
func Initialize(jsonOutput bool) error {
	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		zapLogger, err = cfg.Build()
	} else {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapLogger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stdout),
			zap.InfoLevel,
		))
	}
	if err != nil {
		return err
	}

	current.Store(zapLogger.Sugar())
	return nil
}

// L returns the current process-wide logger.
func L() *zap.SugaredLogger {
	return current.Load()
}

// With returns a child logger carrying the given structured fields,
// for components (reactor, coreplugin) that want a stable per-instance
// or per-session prefix on every subsequent line.
func With(args ...interface{}) *zap.SugaredLogger {
	return L().With(args...)
}
