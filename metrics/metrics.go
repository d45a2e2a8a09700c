// Package metrics exposes Prometheus metrics for the key service.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the Prometheus /metrics endpoint on its own listener,
// separate from the API server.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	// WorkerKeyRequests counts worker key lookups by result.
	WorkerKeyRequests *prometheus.CounterVec

	// SealedSecretsStored counts sealed secrets accepted for storage.
	SealedSecretsStored prometheus.Counter
}

// New creates a metrics server for the given service name listening on addr.
// An empty addr disables serving; the counters still work.
func New(name, addr string) (*MetricsServer, error) {
	// Service names may contain dashes, metric names may not.
	name = strings.ReplaceAll(name, "-", "_")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	workerKeyRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: name,
		Name:      "worker_key_requests_total",
		Help:      "Worker key requests by result.",
	}, []string{"result"})
	registry.MustRegister(workerKeyRequests)

	sealedSecretsStored := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: name,
		Name:      "sealed_secrets_stored_total",
		Help:      "Sealed secrets accepted for storage.",
	})
	registry.MustRegister(sealedSecretsStored)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		registry: registry,
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		WorkerKeyRequests:   workerKeyRequests,
		SealedSecretsStored: sealedSecretsStored,
	}, nil
}

// ListenAndServe blocks serving the /metrics endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
