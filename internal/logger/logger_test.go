package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/videotube/backend/internal/errors"
)

func newObserved(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewWithCore(core), logs
}

func TestLogger_RequestIDPropagation(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	ctx := apperrors.WithRequestID(context.Background(), "req-42")
	log.Info(ctx, "hello", map[string]interface{}{"key": "value"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hello", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "value", fields["key"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, logs := newObserved(zapcore.WarnLevel)

	log.Debug(context.Background(), "debug")
	log.Info(context.Background(), "info")
	log.Warn(context.Background(), "warn")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "warn", logs.All()[0].Message)
}

func TestLogger_ErrorIncludesAppErrorCode(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	err := apperrors.StorageError("upload failed").WithCause(errors.New("timeout"))
	log.WithComponent("media").Error(context.Background(), "upload", err)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, apperrors.CodeStorageError, fields["error_code"])
	assert.Equal(t, "server", fields["error_category"])
	assert.Equal(t, "media", fields["component"])
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"page=2&limit=10", "page=2&limit=10"},
		{"token=abc&page=1", "token=[REDACTED]&page=1"},
		{"refreshToken=x", "refreshToken=[REDACTED]"},
		{"flag", "flag"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeQuery(tt.in))
	}
}

func TestRecovery_WritesInternalError(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	h := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.CodeInternalError)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestMiddleware_LogsStatus(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	h := Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/videos/x?token=t", nil))

	entries := logs.FilterMessage("request completed with client error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.Equal(t, "token=[REDACTED]", fields["query"])
}
