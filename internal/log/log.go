package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu         sync.RWMutex
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	minLevel   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger initializes the global logger to write console-encoded lines to stderr.
func initLogger() {
	loggerOnce.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), minLevel)
		mu.Lock()
		logger = zap.New(core).Sugar()
		mu.Unlock()
	})
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo, "":
		return LevelInfo, nil
	case LevelWarn, "WARNING":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("log: unknown level %q", s)
	}
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		minLevel.SetLevel(zapcore.DebugLevel)
	case LevelWarn:
		minLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		minLevel.SetLevel(zapcore.ErrorLevel)
	default:
		minLevel.SetLevel(zapcore.InfoLevel)
	}
}

// ReplaceCore swaps the underlying zap core and returns a func restoring the
// previous logger. Tests use it with zaptest/observer.
func ReplaceCore(core zapcore.Core) func() {
	initLogger()
	mu.Lock()
	prev := logger
	logger = zap.New(core).Sugar()
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Sync flushes buffered log entries. Call before exit.
func Sync() {
	initLogger()
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(LevelError, msg, extended...)
}

func logWithLevel(level Level, msg string, kv ...any) {
	initLogger()
	// Odd trailing keys are dropped rather than reported by zap as DPANIC.
	if len(kv)%2 == 1 {
		kv = kv[:len(kv)-1]
	}

	mu.RLock()
	l := logger
	mu.RUnlock()

	switch level {
	case LevelDebug:
		l.Debugw(msg, kv...)
	case LevelWarn:
		l.Warnw(msg, kv...)
	case LevelError:
		l.Errorw(msg, kv...)
	default:
		l.Infow(msg, kv...)
	}
}

// KVLogger exposes the package logger through the Error/Warn/Info/Debug
// key-value interface expected by HTTP client libraries such as
// go-retryablehttp's LeveledLogger.
type KVLogger struct{}

func (KVLogger) Error(msg string, kv ...interface{}) { logWithLevel(LevelError, msg, kv...) }
func (KVLogger) Warn(msg string, kv ...interface{})  { logWithLevel(LevelWarn, msg, kv...) }
func (KVLogger) Info(msg string, kv ...interface{})  { logWithLevel(LevelInfo, msg, kv...) }
func (KVLogger) Debug(msg string, kv ...interface{}) { logWithLevel(LevelDebug, msg, kv...) }
