package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dosekeeper"

type Metrics struct {
	registry *prometheus.Registry

	storeOps      *prometheus.CounterVec
	alarmOps      *prometheus.CounterVec
	activeAlarms  prometheus.Gauge
	intakes       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	refreshes     prometheus.Counter
	dueDoses      prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Medicine collection reads and writes by operation and result.",
		}, []string{"op", "result"}),
		alarmOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_operations_total",
			Help:      "Alarm schedule and cancel calls by result.",
		}, []string{"op", "result"}),
		activeAlarms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alarms_active",
			Help:      "Alarms currently registered with the local alarm service.",
		}),
		intakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intakes_recorded_total",
			Help:      "Intake records written, split by taken or missed.",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Fired alarm notifications by sink and result.",
		}, []string{"sink", "result"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Periodic recomputations of the dose view.",
		}),
		dueDoses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "doses_due_today",
			Help:      "Medicines with a dose still due today at the last refresh.",
		}),
	}

	m.registry.MustRegister(
		m.storeOps,
		m.alarmOps,
		m.activeAlarms,
		m.intakes,
		m.notifications,
		m.refreshes,
		m.dueDoses,
		collectors.NewGoCollector(),
	)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) RecordStoreOp(op string, err error) {
	m.storeOps.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) RecordAlarmOp(op string, err error) {
	m.alarmOps.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) SetActiveAlarms(n int) {
	m.activeAlarms.Set(float64(n))
}

func (m *Metrics) RecordIntake(taken bool) {
	status := "missed"
	if taken {
		status = "taken"
	}
	m.intakes.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordNotification(sink string, err error) {
	m.notifications.WithLabelValues(sink, result(err)).Inc()
}

func (m *Metrics) RecordRefresh(due int) {
	m.refreshes.Inc()
	m.dueDoses.Set(float64(due))
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
