package observability

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.SugaredLogger
	loggerMu sync.RWMutex
)

func init() {
	// Default logger so packages can log before InitLoggerFromEnv runs.
	l, _ := zap.NewProduction()
	logger = l.Sugar()
}

// InitLoggerFromEnv initializes the global zap logger from environment variables.
// LOG_LEVEL selects the minimum level (debug/info/warn/error, default info);
// LOG_FORMAT=console switches from JSON to console encoding.
func InitLoggerFromEnv() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	loggerMu.Lock()
	logger = l.Sugar()
	loggerMu.Unlock()
	return l, nil
}

func get() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

// Infof logs a formatted message at info level.
func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

// Fatalf logs a formatted message and exits.
func Fatalf(format string, args ...interface{}) {
	get().Fatalf(format, args...)
}

// LogEvent emits a structured event record at info level. Events are the
// machine-readable counterpart to the formatted logs and are consumed by
// external observability collaborators.
func LogEvent(event string, fields map[string]interface{}) {
	kv := make([]interface{}, 0, 2+2*len(fields))
	kv = append(kv, "event", event)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	get().Infow("event", kv...)
}
