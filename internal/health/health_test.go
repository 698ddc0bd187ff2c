package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyDB(t *testing.T) *Checker {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	return NewChecker(CheckerConfig{
		DB:           conn,
		StorageCheck: func(ctx context.Context) error { return nil },
		Version:      "test",
		Timeout:      time.Second,
	})
}

func TestChecker_Live(t *testing.T) {
	report := NewChecker(CheckerConfig{Version: "1.0.0"}).Live()
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, "1.0.0", report.Version)
}

func TestChecker_ReadyWithoutCache(t *testing.T) {
	report := healthyDB(t).Ready(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, StatusHealthy, report.Components["database"].Status)
	assert.Equal(t, StatusDisabled, report.Components["redis"].Status)
	assert.Equal(t, StatusHealthy, report.Components["storage"].Status)
}

func TestChecker_ReadyStorageDown(t *testing.T) {
	checker := healthyDB(t)
	checker.storageCheck = func(ctx context.Context) error { return errors.New("bucket unreachable") }

	report := checker.Ready(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, "media storage check failed", report.Components["storage"].Message)
}

func TestChecker_ReadyCacheDownDegrades(t *testing.T) {
	checker := healthyDB(t)
	checker.redis = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { checker.redis.Close() })

	report := checker.Ready(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
}

func TestChecker_DBPingFails(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	result := NewChecker(CheckerConfig{DB: conn}).CheckDB(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
}

func TestHandler_Readiness(t *testing.T) {
	checker := NewChecker(CheckerConfig{})
	rec := httptest.NewRecorder()
	NewHandler(checker).Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusUnhealthy, report.Status)

	rec = httptest.NewRecorder()
	NewHandler(checker).Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
