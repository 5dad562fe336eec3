// Package metrics exposes Prometheus collectors for the HTTP surface, the
// event bus and the patient registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/eventbus"
)

const namespace = "dash"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	busMessagesTotal    *prometheus.CounterVec
	registryMutations   *prometheus.CounterVec
	storageFailures     prometheus.Counter
	patients            prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		busMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bus_messages_total",
				Help:      "Messages published on the event bus",
			},
			[]string{"topic"},
		),
		registryMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_mutations_total",
				Help:      "Patient registry mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		storageFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_storage_failures_total",
				Help:      "Times the registry fell back to memory-only mode",
			},
		),
		patients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registry_patients",
				Help:      "Number of patients in the registry",
			},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObserveBus counts every message published on bus by topic.
func (m *Metrics) ObserveBus(bus *eventbus.Bus) eventbus.Unsubscribe {
	return bus.Tap(func(topic string, _ eventbus.Message) {
		m.busMessagesTotal.WithLabelValues(topic).Inc()
	})
}

// ObserveClients exports fn as the connected websocket client gauge.
func (m *Metrics) ObserveClients(fn func() int) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		},
		func() float64 { return float64(fn()) },
	)
}

// RecordMutation implements registry.Recorder.
func (m *Metrics) RecordMutation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.registryMutations.WithLabelValues(op, result).Inc()
}

// RecordStorageFailure implements registry.Recorder.
func (m *Metrics) RecordStorageFailure() { m.storageFailures.Inc() }

// SetPatientCount implements registry.Recorder.
func (m *Metrics) SetPatientCount(n int) { m.patients.Set(float64(n)) }
