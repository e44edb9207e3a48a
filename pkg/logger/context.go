package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrLoggerNotFound возвращается, когда в контексте нет logger.
var ErrLoggerNotFound = fmt.Errorf("logger not found in context")

// Процессный logger и резервный logger на случай, когда ни контекст, ни
// SetGlobalLogger ничего не дали. Резервный пишет начиная с уровня Warn.
var (
	globalMu     sync.RWMutex
	globalLogger *Logger
	fallback     *Logger
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	zl, _ := cfg.Build()
	fallback = &Logger{l: zl.With(zap.String("logger", "fallback"))}
}

// NewContext привязывает logger к контексту.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext извлекает logger из контекста. ErrLoggerNotFound, если
// контекст не содержит logger; для пути с резервом используйте Log.
func FromContext(ctx context.Context) (*Logger, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context validation: %w", ErrLoggerNotFound)
	}
	logger, ok := ctx.Value(loggerKey).(*Logger)
	if !ok {
		return nil, fmt.Errorf("logger lookup: %w", ErrLoggerNotFound)
	}
	return logger, nil
}

// SetGlobalLogger устанавливает процессный logger, который Log использует
// для контекстов без собственного logger. Обычно вызывается один раз из main
// после загрузки конфигурации.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Log возвращает logger из контекста, затем процессный, затем резервный.
// Никогда не возвращает nil.
func Log(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}

	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return fallback
}
