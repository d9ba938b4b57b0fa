// Package metrics exposes prometheus counters for the request logger.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics groups the logger's collectors. All methods are safe on a nil
// receiver, which disables accounting.
type Metrics struct {
	LinesWritten    *prometheus.CounterVec
	LinesDropped    *prometheus.CounterVec
	SinkErrors      *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logify_lines_written_total",
				Help: "Total number of log lines written, by sink",
			},
			[]string{"sink"},
		),
		LinesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logify_lines_dropped_total",
				Help: "Total number of log lines dropped because a sink buffer was full",
			},
			[]string{"sink"},
		),
		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logify_sink_errors_total",
				Help: "Total number of failed sink writes",
			},
			[]string{"sink"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logify_request_duration_seconds",
				Help:    "Duration of logged HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
	}
	reg.MustRegister(m.LinesWritten, m.LinesDropped, m.SinkErrors, m.RequestDuration)
	return m
}

// LineWritten counts a line written by sink.
func (m *Metrics) LineWritten(sink string) {
	if m == nil {
		return
	}
	m.LinesWritten.WithLabelValues(sink).Inc()
}

// LineDropped counts a line sink dropped because its queue was full.
func (m *Metrics) LineDropped(sink string) {
	if m == nil {
		return
	}
	m.LinesDropped.WithLabelValues(sink).Inc()
}

// SinkError counts a failed write to sink.
func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}

// ObserveRequest records the duration of a logged request.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// StartServer serves the gatherer's metrics on addr under /metrics in the
// background. Serve errors are logged.
func StartServer(addr string, g prometheus.Gatherer, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return server
}
