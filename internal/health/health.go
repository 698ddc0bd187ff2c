// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/videotube/backend/internal/errors"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	// StatusDisabled marks an optional dependency that is not configured.
	StatusDisabled Status = "disabled"
)

type ComponentHealth struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type Report struct {
	Status     Status                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

type CheckerConfig struct {
	DB *sql.DB
	// Redis is optional; a nil client reports the cache as disabled.
	Redis        *redis.Client
	StorageCheck func(ctx context.Context) error
	Version      string
	Timeout      time.Duration
}

type Checker struct {
	db           *sql.DB
	redis        *redis.Client
	storageCheck func(ctx context.Context) error
	version      string
	timeout      time.Duration
}

func NewChecker(cfg CheckerConfig) *Checker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		db:           cfg.DB,
		redis:        cfg.Redis,
		storageCheck: cfg.StorageCheck,
		version:      cfg.Version,
		timeout:      timeout,
	}
}

// probe runs fn under the checker timeout. A failure reports failStatus.
func (c *Checker) probe(ctx context.Context, failStatus Status, failMsg string, fn func(context.Context) error) ComponentHealth {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		return ComponentHealth{Status: failStatus, Message: failMsg, Duration: time.Since(start).String()}
	}
	return ComponentHealth{Status: StatusHealthy, Duration: time.Since(start).String()}
}

// CheckDB pings Postgres, then runs SELECT 1.
func (c *Checker) CheckDB(ctx context.Context) ComponentHealth {
	if c.db == nil {
		return ComponentHealth{Status: StatusUnhealthy, Message: "database not configured"}
	}
	if h := c.probe(ctx, StatusUnhealthy, "database ping failed", c.db.PingContext); h.Status != StatusHealthy {
		return h
	}
	return c.probe(ctx, StatusDegraded, "database query failed", func(ctx context.Context) error {
		var one int
		return c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	})
}

// CheckRedis degrades rather than fails: Redis only backs the stats cache.
func (c *Checker) CheckRedis(ctx context.Context) ComponentHealth {
	if c.redis == nil {
		return ComponentHealth{Status: StatusDisabled, Message: "cache not configured"}
	}
	return c.probe(ctx, StatusDegraded, "redis ping failed", func(ctx context.Context) error {
		return c.redis.Ping(ctx).Err()
	})
}

func (c *Checker) CheckStorage(ctx context.Context) ComponentHealth {
	if c.storageCheck == nil {
		return ComponentHealth{Status: StatusUnhealthy, Message: "media storage not configured"}
	}
	return c.probe(ctx, StatusUnhealthy, "media storage check failed", c.storageCheck)
}

func (c *Checker) Live() *Report {
	return &Report{Status: StatusHealthy, Timestamp: now(), Version: c.version}
}

// Ready runs every dependency check concurrently. The overall status is the
// worst component status, with disabled components ignored.
func (c *Checker) Ready(ctx context.Context) *Report {
	checks := []struct {
		name string
		run  func(context.Context) ComponentHealth
	}{
		{"database", c.CheckDB},
		{"redis", c.CheckRedis},
		{"storage", c.CheckStorage},
	}

	results := make([]ComponentHealth, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = check.run(ctx)
		}()
	}
	wg.Wait()

	report := &Report{
		Status:     StatusHealthy,
		Timestamp:  now(),
		Version:    c.version,
		Components: make(map[string]ComponentHealth, len(checks)),
	}
	for i, check := range checks {
		report.Components[check.name] = results[i]
		if severity[results[i].Status] > severity[report.Status] {
			report.Status = results[i].Status
		}
	}
	return report
}

var severity = map[Status]int{
	StatusDisabled:  0,
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

type Handler struct {
	checker *Checker
}

func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// Liveness handles GET /health/live.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, h.checker.Live())
}

// Readiness handles GET /health/ready. Only an unhealthy dependency takes the
// instance out of rotation.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	report := h.checker.Ready(r.Context())

	status := http.StatusOK
	if report.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), status, report)
}
