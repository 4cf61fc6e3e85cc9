// Package logging contains the zap backed loggers used by the planners and their tools.
package logging

import (
	"io"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging interface handed to every planner.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a child logger whose name is appended to this logger's name. The child
	// shares this logger's level.
	Sublogger(subname string) Logger
	// WithFields returns a logger that attaches the given key/value pairs to every entry.
	WithFields(keysAndValues ...interface{}) Logger
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

// NewEncoderConfig returns the console encoder configuration shared by all loggers.
func NewEncoderConfig() zapcore.EncoderConfig {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func stdoutCore(enab zapcore.LevelEnabler) zapcore.Core {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(NewEncoderConfig()), zapcore.Lock(os.Stdout), enab)
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	return newImpl(name, INFO, stdoutCore)
}

// NewFileLogger returns a logger that writes Info+ logs to stdout and JSON encoded logs to a
// size rotated file at path. Close the returned closer when done logging.
func NewFileLogger(name, path string) (Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64,
		MaxBackups: 2,
		Compress:   true,
	}
	fileCore := func(enab zapcore.LevelEnabler) zapcore.Core {
		cfg := NewEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(rotator), enab)
	}
	return newImpl(name, INFO, stdoutCore, fileCore), rotator
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) Logger {
	return newImpl(name, DEBUG, stdoutCore)
}

// NewBlankLogger returns a new logger that outputs Debug+ logs, but without any outputs.
func NewBlankLogger(name string) Logger {
	return newImpl(name, DEBUG)
}

// NewTestLogger returns a new logger that outputs Debug+ logs to the test's log.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	var observedLogs *observer.ObservedLogs
	logger := newImpl("", DEBUG,
		func(enab zapcore.LevelEnabler) zapcore.Core {
			return zaptest.NewLogger(tb, zaptest.Level(enab)).Core()
		},
		func(enab zapcore.LevelEnabler) zapcore.Core {
			var observerCore zapcore.Core
			observerCore, observedLogs = observer.New(enab)
			return observerCore
		},
	)
	return logger, observedLogs
}
