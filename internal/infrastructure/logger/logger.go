package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is nil until Init runs.
var Log *zap.Logger

// helper is helperOf with one extra caller skip for the package-level functions.
var helper, helperOf *zap.Logger

// Init builds a JSON logger and installs it as Log and as zap's global.
// An unparsable level falls back to info. Fields are attached to every entry,
// which is how each binary tags its component.
func Init(env, level string, fields ...zap.Field) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: env == "development",
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{"env": env},
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	set(l.With(fields...))
	return nil
}

func set(l *zap.Logger) {
	Log = l
	helperOf = l
	if l == nil {
		helper = nil
		return
	}
	helper = l.WithOptions(zap.AddCallerSkip(1))
	zap.ReplaceGlobals(l)
}

// Named returns a child logger for one component, or a no-op logger before Init.
func Named(component string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.Named(component)
}

func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func Info(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Info(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Error(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Warn(msg, fields...)
	}
}

func Debug(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Debug(msg, fields...)
	}
}

// Fatal logs and exits with status 1. Before Init it writes to stderr.
func Fatal(msg string, fields ...zap.Field) {
	if l := current(); l != nil {
		l.Fatal(msg, fields...)
		return
	}
	fmt.Fprintln(os.Stderr, "fatal:", msg)
	os.Exit(1)
}

// current tolerates tests that swap Log directly.
func current() *zap.Logger {
	l := Log
	if l == nil {
		return nil
	}
	if helperOf == l {
		return helper
	}
	return l.WithOptions(zap.AddCallerSkip(1))
}
