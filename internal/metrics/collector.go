// Package metrics exposes adapter operation metrics through Prometheus.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftstore/driftstore/pkg/types"
)

// Collector implements types.MetricsCollector on a private Prometheus
// registry and can serve it over HTTP.
type Collector struct {
	registry *prometheus.Registry

	operationCounter  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationBytes    *prometheus.CounterVec

	server *http.Server
}

var _ types.MetricsCollector = (*Collector)(nil)

// Config represents metrics configuration.
type Config struct {
	Namespace string
	Port      int
	Path      string
}

// NewCollector builds a collector with its own registry.
func NewCollector(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "driftstore"
	}
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		operationCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total storage operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Storage operation latency by operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		operationBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "storage",
			Name:      "operation_bytes_total",
			Help:      "Bytes moved by operation",
		}, []string{"operation"}),
	}

	registry.MustRegister(c.operationCounter, c.operationDuration, c.operationBytes)

	if cfg.Port > 0 {
		path := cfg.Path
		if path == "" {
			path = "/metrics"
		}
		mux := http.NewServeMux()
		mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		c.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return c
}

// RecordOperation counts one operation and observes its latency.
func (c *Collector) RecordOperation(op string, seconds float64, success bool) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	c.operationCounter.WithLabelValues(op, outcome).Inc()
	c.operationDuration.WithLabelValues(op).Observe(seconds)
}

// RecordBytes counts payload bytes moved by an operation.
func (c *Collector) RecordBytes(op string, n int) {
	c.operationBytes.WithLabelValues(op).Add(float64(n))
}

// Registry returns the collector's registry, for tests and embedding.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Start serves the metrics endpoint until Stop is called. No-op when no port
// was configured.
func (c *Collector) Start() error {
	if c.server == nil {
		return nil
	}
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics endpoint failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the metrics endpoint down.
func (c *Collector) Stop(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
