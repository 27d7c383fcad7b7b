// Package metrics publica contadores y latencias de las operaciones contra el documento remoto.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implementa inventory.MetricsRecorder con un registro Prometheus propio.
type Recorder struct {
	registry  *prometheus.Registry
	total     *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewRecorder crea el registro con las métricas de operación y las del proceso Go.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "boxtrack_remote_operations_total",
			Help: "Operaciones contra el documento remoto por resultado.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boxtrack_remote_operation_seconds",
			Help:    "Latencia de las operaciones contra el documento remoto.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	r.registry.MustRegister(
		r.total,
		r.durations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe registra una operación terminada.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	r.total.WithLabelValues(operation, result).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry expone el registro (tests y colectores adicionales).
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler sirve el formato de exposición de Prometheus.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
