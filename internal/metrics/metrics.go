package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/UltraSive/garage/internal/garage"
)

// Metrics holds all Prometheus metrics for a garage.
type Metrics struct {
	Events       *prometheus.CounterVec
	Sweeps       prometheus.Counter
	SweepErrors  prometheus.Counter
	Expired      prometheus.Counter
	TrackedItems prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_events_total",
		Help: "Tracked add and remove operations",
	}, []string{"event"})

	sweeps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "garage_expire_sweeps_total",
		Help: "Expiration sweeps run",
	})

	sweepErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "garage_expire_sweep_errors_total",
		Help: "Expiration sweeps that returned an error",
	})

	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "garage_expired_items_total",
		Help: "Entries removed by expiration sweeps",
	})

	tracked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "garage_tracked_items",
		Help: "Entries currently in the tracking index",
	})

	reg.MustRegister(events, sweeps, sweepErrors, expired, tracked)

	return &Metrics{
		Events:       events,
		Sweeps:       sweeps,
		SweepErrors:  sweepErrors,
		Expired:      expired,
		TrackedItems: tracked,
	}
}

// Observe subscribes m to g's events and returns the unsubscribe function.
func (m *Metrics) Observe(g *garage.Garage) func() {
	m.TrackedItems.Set(float64(g.Len()))
	return g.Subscribe(func(ev garage.Event) {
		m.Events.WithLabelValues(string(ev.Name)).Inc()
		m.TrackedItems.Set(float64(g.Len()))
	})
}

// ObserveSweep records the outcome of one expiration sweep.
func (m *Metrics) ObserveSweep(removed int, err error) {
	m.Sweeps.Inc()
	m.Expired.Add(float64(removed))
	if err != nil {
		m.SweepErrors.Inc()
	}
}
