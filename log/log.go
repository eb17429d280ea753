package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var IsVerbose bool

var logger = New(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))

// New builds a console logger. Debug and info entries go to out, warnings
// and errors go to errOut.
func New(out, errOut zapcore.WriteSyncer) *zap.SugaredLogger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l < zapcore.WarnLevel })
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.WarnLevel })

	return zap.New(zapcore.NewTee(
		zapcore.NewCore(encoder, out, low),
		zapcore.NewCore(encoder, errOut, high),
	)).Sugar()
}

// SetLogger replaces the package logger and returns a func restoring the
// previous one.
func SetLogger(l *zap.SugaredLogger) func() {
	prev := logger
	logger = l
	return func() { logger = prev }
}

func Info(s string, args ...any) {
	logger.Infof(s, args...)
}

func Warn(s string, args ...any) {
	logger.Warnf(s, args...)
}

func Error(s string, args ...any) {
	logger.Errorf(s, args...)
}

func Verbose(s string, args ...any) {
	if IsVerbose {
		logger.Debugf(s, args...)
	}
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	_ = logger.Sync()
}
