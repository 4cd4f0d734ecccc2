package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_CollectsVoiceMetrics(t *testing.T) {
	SessionsStartedTotal.Inc()
	SessionsStoppedTotal.WithLabelValues("client_stop").Inc()
	ActiveBridges.Set(1)
	RelayedFramesTotal.WithLabelValues(DirectionInbound).Inc()
	DroppedAudioFramesTotal.Inc()
	BridgeDuration.Observe(42)
	QuotaDenialsTotal.Inc()
	HandshakeFailuresTotal.Inc()

	families, err := Registry().Gather()
	assert.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}

	for _, name := range []string{
		"voicebridge_sessions_started_total",
		"voicebridge_sessions_stopped_total",
		"voicebridge_active_bridges",
		"voicebridge_relayed_frames_total",
		"voicebridge_dropped_audio_frames_total",
		"voicebridge_bridge_duration_seconds",
		"voicebridge_quota_denials_total",
		"voicebridge_upstream_handshake_failures_total",
	} {
		assert.True(t, names[name], "missing metric family %s", name)
	}
}

func TestDefaultMetricsConfig(t *testing.T) {
	assert.True(t, DefaultMetricsConfig().Enabled)
}
