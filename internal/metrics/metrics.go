// Package metrics exposes Prometheus collectors for inventory mutations and
// the persistence write-through path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pantry"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	mutations           *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	areas               prometheus.Gauge
	items               prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Inventory mutations by operation and result",
		}, []string{"op", "result"}),

		persistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed write-through saves by collection",
		}, []string{"collection"}),

		areas: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_areas",
			Help:      "Number of storage areas",
		}),

		items: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Number of pantry item records",
		}),
	}
}

// ObserveMutation counts one mutation. result is "ok" or a short error class.
func (m *Metrics) ObserveMutation(op, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) PersistenceFailed(collection string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(collection).Inc()
}

// SetSizes records the current collection sizes.
func (m *Metrics) SetSizes(areas, items int) {
	if m == nil {
		return
	}
	m.areas.Set(float64(areas))
	m.items.Set(float64(items))
}

func (m *Metrics) Mutations() *prometheus.CounterVec { return m.mutations }

func (m *Metrics) PersistenceFailures() *prometheus.CounterVec { return m.persistenceFailures }
