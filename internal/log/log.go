package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu         sync.Mutex
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	level      = zap.NewAtomicLevelAt(zap.InfoLevel)
	fileSink   *lumberjack.Logger
)

// initLogger initializes the global logger to write to stderr with timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		logger = build(nil)
	})
}

func build(file *lumberjack.Logger) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), level),
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level))
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// SetLevel changes the minimum level. Unknown values leave the level unchanged.
func SetLevel(l Level) {
	initLogger()
	switch Level(strings.ToUpper(string(l))) {
	case LevelDebug:
		level.SetLevel(zap.DebugLevel)
	case LevelInfo:
		level.SetLevel(zap.InfoLevel)
	case LevelError:
		level.SetLevel(zap.ErrorLevel)
	}
}

// SetOutputFile tees log output into a size-rotated file. An empty path
// detaches any previously configured file.
func SetOutputFile(path string) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()

	if fileSink != nil {
		_ = fileSink.Close()
		fileSink = nil
	}
	if path != "" {
		fileSink = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    20, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		}
	}
	logger = build(fileSink)
}

// Sync flushes buffered entries.
func Sync() {
	initLogger()
	_ = current().Sync()
}

func Debug(msg string, kv ...any) {
	initLogger()
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	current().Infow(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}
