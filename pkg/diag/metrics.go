package diag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

// MetricsConfig configures the prometheus diagnostics sink.
type MetricsConfig struct {
	// Namespace prefixes every metric name (default "pitcrew").
	Namespace string
	// Subsystem is placed between namespace and name (default "decode").
	Subsystem string
	// Registry receives the collectors (default prometheus.DefaultRegisterer).
	Registry prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics counts decode outcomes per packet kind. It implements
// protocol.Diagnostics.
type Metrics struct {
	packets  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "pitcrew",
		Subsystem: "decode",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		packets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "packets_total",
			Help:      "Datagrams decoded into a telemetry record, by packet kind.",
		}, []string{"kind"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "failures_total",
			Help:      "Datagrams dropped by the dispatcher, by packet kind and reason.",
		}, []string{"kind", "reason"}),
	}
}

func (m *Metrics) Decoded(id protocol.PacketID) {
	m.packets.WithLabelValues(id.String()).Inc()
}

func (m *Metrics) Dropped(id protocol.PacketID, err error) {
	m.failures.WithLabelValues(id.String(), protocol.Reason(err)).Inc()
}
