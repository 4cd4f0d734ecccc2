package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

var (
	// Bridge duration buckets in seconds. Voice sessions run from a few
	// seconds to half an hour.
	durationBuckets = []float64{
		5, 15, 30,
		60, 120, 300,
		600, 1200, 1800,
	}

	SessionsStartedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "voicebridge_sessions_started_total",
			Help: "Total number of voice sessions started",
		},
	)

	SessionsStoppedTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebridge_sessions_stopped_total",
			Help: "Total number of voice sessions stopped",
		},
		[]string{"reason"},
	)

	ActiveBridges = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "voicebridge_active_bridges",
			Help: "Number of bridges currently relaying audio",
		},
	)

	RelayedFramesTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicebridge_relayed_frames_total",
			Help: "Total number of frames relayed across all bridges",
		},
		[]string{"direction"},
	)

	DroppedAudioFramesTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "voicebridge_dropped_audio_frames_total",
			Help: "Outbound audio frames dropped because the queue was full",
		},
	)

	BridgeDuration = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voicebridge_bridge_duration_seconds",
			Help:    "Wall time of a bridge from setup completion to teardown",
			Buckets: durationBuckets,
		},
	)

	QuotaDenialsTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "voicebridge_quota_denials_total",
			Help: "Bridge attempts denied by the quota precheck",
		},
	)

	HandshakeFailuresTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "voicebridge_upstream_handshake_failures_total",
			Help: "Upstream dials that did not reach setup completion",
		},
	)
)

type MetricsConfig struct {
	Enabled bool
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Enabled: true}
}

var Config MetricsConfig

// Registry returns the registry backing every metric in this package; the
// metrics endpoint serves it.
func Registry() *prometheus.Registry {
	return registry
}

func Initialize(cfg MetricsConfig) {
	Config = cfg
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}
