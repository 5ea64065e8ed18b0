package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is a printf-style front over zap.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a logger for level ("debug", "info", "warn", "error") and
// format ("json" or console).
func New(level, format string) *Logger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	return &Logger{s: l.Sugar()}
}

// Nop discards everything.
func Nop() *Logger { return &Logger{s: zap.NewNop().Sugar()} }

// ForTest writes through t.Log.
func ForTest(t testing.TB) *Logger { return &Logger{s: zaptest.NewLogger(t).Sugar()} }

// With returns a child logger carrying key/value pairs.
func (l *Logger) With(kv ...any) *Logger { return &Logger{s: l.s.With(kv...)} }

func (l *Logger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }

func (l *Logger) Infof(format string, args ...any) { l.s.Infof(format, args...) }

func (l *Logger) Warnf(format string, args ...any) { l.s.Warnf(format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() { _ = l.s.Sync() }
