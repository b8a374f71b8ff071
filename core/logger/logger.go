package logger

import (
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the global logger. Call once during bootstrap; the package
// functions lazily initialize a development logger if Init was skipped
// (useful in tests).
func Init(env string) {
	once.Do(func() {
		var cfg zap.Config
		if env == "production" {
			cfg = zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		built, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
		sugar = built.Sugar()
	})
}

func get() *zap.SugaredLogger {
	if sugar == nil {
		Init(os.Getenv("APP_ENV"))
	}
	return sugar
}

// Info logs a message with alternating key/value pairs.
func Info(msg string, keysAndValues ...any) {
	get().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	get().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	get().Errorw(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	get().Fatalw(msg, keysAndValues...)
}

// Sync flushes buffered log entries. Safe to call on shutdown.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
