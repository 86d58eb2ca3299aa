// Package logger provides the structured logging facade for the syncpoint
// server, backed by zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = newZapLogger(zapcore.InfoLevel)
)

func newZapLogger(level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Logs go to stderr so stdout stays clean for commands that output
	// data, e.g. version --format json.
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// The production config cannot fail to build; keep the facade
		// usable regardless.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Initialize reconfigures the package logger at the given level. Unknown
// level strings fall back to info.
func Initialize(level string) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	mu.Lock()
	defer mu.Unlock()
	log = newZapLogger(parsed)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs at debug level.
func Debug(args ...any) { current().Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { current().Debugf(format, args...) }

// Info logs at info level.
func Info(args ...any) { current().Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { current().Infof(format, args...) }

// Warn logs at warn level.
func Warn(args ...any) { current().Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { current().Warnf(format, args...) }

// Error logs at error level.
func Error(args ...any) { current().Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { current().Errorf(format, args...) }

// Fatalf logs a formatted message and exits the process.
func Fatalf(format string, args ...any) { current().Fatalf(format, args...) }
