package logutil

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB   = 10
	maxArchives = 3
)

type Options struct {
	// Level is a zap level name; empty means info.
	Level       string
	FileLogging bool
	File        string
	// Console disables the stderr core when false and FileLogging is set.
	Console bool
}

var global atomic.Pointer[zap.Logger]

// Setup builds the process logger. Console output always goes to stderr in
// human-readable form; with FileLogging a JSON core writes to a rotated file
// (10MB, at most 3 archives).
func Setup(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	var cores []zapcore.Core
	if opts.Console || !opts.FileLogging {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level))
	}
	if opts.FileLogging {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxArchives,
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	global.Store(logger)
	return logger, nil
}

// L returns the process logger, or a no-op logger before Setup.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Named is shorthand for L().Named(name).
func Named(name string) *zap.Logger { return L().Named(name) }

// Sync flushes buffered entries; errors from syncing a terminal are ignored.
func Sync() {
	_ = L().Sync()
}

// ResetForTest drops the process logger.
func ResetForTest() { global.Store(nil) }
