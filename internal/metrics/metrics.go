// Package metrics exposes request, websocket and media upload metrics in the
// Prometheus text format.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/videotube/backend/internal/storage"
)

const namespace = "videotube"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	uploadBytes     *prometheus.CounterVec
}

// New builds a Metrics with its own registry, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"endpoint", "method"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint", "method"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total HTTP errors by status class",
		}, []string{"endpoint", "method", "status_class"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Media uploads by folder and result",
		}, []string{"prefix", "result"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_upload_bytes_total",
			Help:      "Bytes of media successfully uploaded",
		}, []string{"prefix"}),
	}

	start := time.Now()
	m.registry.MustRegister(
		m.requests, m.requestDuration, m.requestErrors, m.uploads, m.uploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since the server started",
		}, func() float64 { return time.Since(start).Seconds() }),
	)
	return m
}

// RegisterGaugeFunc exposes a gauge whose value is read at scrape time.
func (m *Metrics) RegisterGaugeFunc(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	endpoint := normalizeEndpoint(path)

	m.requests.WithLabelValues(endpoint, method).Inc()
	m.requestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())

	if statusCode >= 400 {
		class := strconv.Itoa(statusCode/100) + "xx"
		m.requestErrors.WithLabelValues(endpoint, method, class).Inc()
	}
}

func (m *Metrics) recordUpload(prefix string, size int64, err error) {
	if err != nil {
		m.uploads.WithLabelValues(prefix, "error").Inc()
		return
	}
	m.uploads.WithLabelValues(prefix, "ok").Inc()
	if size > 0 {
		m.uploadBytes.WithLabelValues(prefix).Add(float64(size))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// normalizeEndpoint replaces id segments so paths group by route.
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if len(part) == 36 && strings.Count(part, "-") == 4 {
			parts[i] = "{id}"
		} else if part != "" && isNumeric(part) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Middleware records count, latency and error class of every request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		m.RecordRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through.
func (w *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// InstrumentStore counts uploads going through s.
func (m *Metrics) InstrumentStore(s storage.Store) storage.Store {
	return &instrumentedStore{Store: s, metrics: m}
}

type instrumentedStore struct {
	storage.Store
	metrics *Metrics
}

func (s *instrumentedStore) Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (*storage.Object, error) {
	obj, err := s.Store.Upload(ctx, prefix, filename, r, size, contentType)
	s.metrics.recordUpload(prefix, size, err)
	return obj, err
}
