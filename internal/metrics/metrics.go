package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects poll-cycle counters. A nil *Metrics is a no-op so the
// poller does not have to care whether the listener is enabled.
type Metrics struct {
	registry *prometheus.Registry

	cyclesTotal          *prometheus.CounterVec
	zonesDiscovered      prometheus.Counter
	subscriptionFailures prometheus.Counter
	panels               prometheus.Gauge
	zones                prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alula2mqtt_poll_cycles_total",
			Help: "Completed poll cycles by outcome.",
		}, []string{"outcome"}),
		zonesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alula2mqtt_zones_discovered_total",
			Help: "Zone indices newly accepted into the registry.",
		}),
		subscriptionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alula2mqtt_zone_subscription_failures_total",
			Help: "Failed zone subscription calls (retried on later cycles).",
		}),
		panels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alula2mqtt_panels",
			Help: "Panels seen in the latest snapshot.",
		}),
		zones: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alula2mqtt_zones",
			Help: "Zones in the latest snapshot across all panels.",
		}),
	}

	reg.MustRegister(m.cyclesTotal, m.zonesDiscovered, m.subscriptionFailures, m.panels, m.zones)
	return m
}

func (m *Metrics) ObserveCycle(outcome string) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddZonesDiscovered(n int) {
	if m == nil {
		return
	}
	m.zonesDiscovered.Add(float64(n))
}

func (m *Metrics) ObserveSubscriptionFailure() {
	if m == nil {
		return
	}
	m.subscriptionFailures.Inc()
}

func (m *Metrics) SetSnapshotSize(panels, zones int) {
	if m == nil {
		return
	}
	m.panels.Set(float64(panels))
	m.zones.Set(float64(zones))
}

// Handler returns the scrape handler for the metrics listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics listener. Blocks; run it in a goroutine.
func (m *Metrics) Serve(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(listen, mux)
}
