package telemetry

import (
	"context"

	"github.com/studiumlabs/voicebridge/pkg/domain/telemetry"
)

const NoopExporterName = "noop"

// NoopExporter drops every event. It backs deployments without an event
// pipeline.
type NoopExporter struct{}

func NewNoopExporter() *NoopExporter {
	return &NoopExporter{}
}

func (p *NoopExporter) Name() string {
	return NoopExporterName
}

func (p *NoopExporter) ValidateConfig(settings map[string]interface{}) error {
	return nil
}

func (p *NoopExporter) WithSettings(settings map[string]interface{}) (telemetry.Exporter, error) {
	return p, nil
}

func (p *NoopExporter) Handle(ctx context.Context, evt telemetry.SessionEvent) error {
	return nil
}

func (p *NoopExporter) Close() {}
