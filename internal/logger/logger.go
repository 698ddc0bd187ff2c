package logger

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apperrors "github.com/videotube/backend/internal/errors"
)

// Config controls level and encoding of the process logger.
type Config struct {
	Level  string
	Format string
}

// Logger provides structured logging on top of zap, keyed by request ID.
type Logger struct {
	zl        *zap.Logger
	component string
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewWithCore(zapcore.NewNopCore()))
}

// New builds a logger writing to stdout.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return &Logger{zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}, nil
}

// NewWithCore wraps an existing zap core.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

func Default() *Logger {
	return defaultLogger.Load()
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		zl:        l.zl.With(zap.String("component", component)),
		component: component,
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

func (l *Logger) fields(ctx context.Context, extra map[string]interface{}, err error) []zap.Field {
	out := make([]zap.Field, 0, len(extra)+4)
	if ctx != nil {
		if requestID := apperrors.GetRequestID(ctx); requestID != "" {
			out = append(out, zap.String("request_id", requestID))
		}
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, extra[k]))
	}

	if err != nil {
		out = append(out, zap.Error(err))
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			out = append(out,
				zap.String("error_code", appErr.Code),
				zap.String("error_category", string(appErr.Category)),
			)
		}
	}
	return out
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.zl.Debug(msg, l.fields(ctx, first(fields), nil)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.zl.Info(msg, l.fields(ctx, first(fields), nil)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.zl.Warn(msg, l.fields(ctx, first(fields), nil)...)
}

func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.zl.Error(msg, l.fields(ctx, first(fields), err)...)
}

// Package-level convenience functions

func Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	Default().Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	Default().Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	Default().Error(ctx, msg, err, fields...)
}
