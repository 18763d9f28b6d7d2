package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with the field conventions used across gamecat
type Logger struct {
	zap *zap.Logger
}

// Config holds logger configuration
type Config struct {
	Level       string
	Environment string // "development" or "production"
	ServiceName string
}

// New builds a Logger. Production uses JSON output, everything else the
// console encoder. Unknown levels fall back to info.
func New(cfg Config) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	z, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "gamecat"
	}
	return &Logger{zap: z.With(zap.String("service", serviceName))}, nil
}

// Wrap adopts an existing zap logger, e.g. one backed by an observer core
func Wrap(z *zap.Logger) *Logger {
	return &Logger{zap: z}
}

// Nop discards everything
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Error logs at ErrorLevel with err attached under the "error" key
func (l *Logger) Error(msg string, err error, fields ...zap.Field) {
	l.zap.Error(msg, append(fields, zap.Error(err))...)
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// With creates a child logger carrying the given fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...)}
}

// ForSource scopes a logger to one source branch
func (l *Logger) ForSource(key string) *Logger {
	return l.With(zap.String("source", key))
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Entity names the canonical table a log line refers to
func Entity(name string) zap.Field {
	return zap.String("entity", name)
}

// Rows reports a row count under a named key
func Rows(key string, n int) zap.Field {
	return zap.Int(key, n)
}

// ParseLevel parses the log level string, defaulting to info
func ParseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
