/**
 * @description
 * Structured logger for the PolyDebate web front.
 * Info and warn messages go to stdout, errors to stderr, both as JSON lines.
 *
 * @dependencies
 * - go.uber.org/zap
 */

package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggers struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

var (
	current atomic.Pointer[loggers]
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	install(build(os.Stdout, os.Stderr))
}

func install(l *zap.Logger) {
	current.Store(&loggers{base: l, sugar: l.Sugar()})
}

func sugar() *zap.SugaredLogger {
	return current.Load().sugar
}

func build(out, errOut io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	belowError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l < zapcore.ErrorLevel
	})
	errorAndAbove := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(out), belowError),
		zapcore.NewCore(encoder, zapcore.AddSync(errOut), errorAndAbove),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// SetLevel changes the minimum level ("debug", "info", "warn", "error")
func SetLevel(name string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		l = zapcore.InfoLevel
	}
	level.SetLevel(l)
}

// SetOutput redirects both streams, used by tests and the CLI
func SetOutput(w io.Writer) {
	install(build(w, w))
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	sugar().Debugf(format, v...)
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	sugar().Infof(format, v...)
}

// Warn logs a warning to stdout
func Warn(format string, v ...interface{}) {
	sugar().Warnf(format, v...)
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	sugar().Errorf(format, v...)
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	sugar().Fatalf(format, v...)
}

// With returns a field-scoped logger for call sites that log repeatedly
func With(fields ...zap.Field) *zap.Logger {
	return current.Load().base.With(fields...)
}

// Sync flushes buffered entries
func Sync() {
	_ = current.Load().base.Sync()
}
