package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/studiumlabs/voicebridge/pkg/domain/telemetry"
	"github.com/stretchr/testify/assert"
)

// mockExporter is a test mock for telemetry.Exporter
type mockExporter struct {
	name                 string
	validateErr          error
	withSettingsErr      error
	withSettingsExporter telemetry.Exporter
}

func newMockExporter(name string) *mockExporter {
	return &mockExporter{name: name}
}

func (m *mockExporter) Name() string {
	return m.name
}

func (m *mockExporter) ValidateConfig(settings map[string]interface{}) error {
	return m.validateErr
}

func (m *mockExporter) Handle(ctx context.Context, evt telemetry.SessionEvent) error {
	return nil
}

func (m *mockExporter) WithSettings(settings map[string]interface{}) (telemetry.Exporter, error) {
	if m.withSettingsErr != nil {
		return nil, m.withSettingsErr
	}
	if m.withSettingsExporter != nil {
		return m.withSettingsExporter, nil
	}
	return m, nil
}

func (m *mockExporter) Close() {}

func TestNewExporterLocator_NoOptions(t *testing.T) {
	locator := NewExporterLocator()

	assert.NotNil(t, locator)
	assert.NotNil(t, locator.exporters)
	assert.Empty(t, locator.exporters)
}

func TestNewExporterLocator_WithExporter(t *testing.T) {
	exporter1 := newMockExporter("exporter1")
	exporter2 := newMockExporter("exporter2")

	locator := NewExporterLocator(
		WithExporter("exporter1", exporter1),
		WithExporter("exporter2", exporter2),
	)

	assert.NotNil(t, locator)
	assert.Len(t, locator.exporters, 2)
	assert.Equal(t, exporter1, locator.exporters["exporter1"])
	assert.Equal(t, exporter2, locator.exporters["exporter2"])
}

func TestGetExporter_Success(t *testing.T) {
	configuredExporter := newMockExporter("kafka")
	baseExporter := newMockExporter("kafka")
	baseExporter.withSettingsExporter = configuredExporter

	locator := NewExporterLocator(
		WithExporter("kafka", baseExporter),
	)

	result, err := locator.GetExporter("kafka", map[string]interface{}{
		"host": "localhost",
		"port": "9092",
	})

	assert.NoError(t, err)
	assert.Equal(t, configuredExporter, result)
}

func TestGetExporter_UnknownExporter(t *testing.T) {
	locator := NewExporterLocator()

	result, err := locator.GetExporter("unknown", nil)

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter: unknown")
}

func TestGetExporter_ValidationError(t *testing.T) {
	exporter := newMockExporter("kafka")
	exporter.validateErr = errors.New("kafka host is required")

	locator := NewExporterLocator(
		WithExporter("kafka", exporter),
	)

	result, err := locator.GetExporter("kafka", map[string]interface{}{})

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "kafka host is required", err.Error())
}

func TestGetExporter_WithSettingsError(t *testing.T) {
	exporter := newMockExporter("kafka")
	exporter.withSettingsErr = errors.New("failed to create exporter with settings")

	locator := NewExporterLocator(
		WithExporter("kafka", exporter),
	)

	result, err := locator.GetExporter("kafka", map[string]interface{}{
		"host": "localhost",
	})

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Equal(t, "failed to create exporter with settings", err.Error())
}

func TestValidateExporter(t *testing.T) {
	exporter := newMockExporter("kafka")

	locator := NewExporterLocator(
		WithExporter("kafka", exporter),
	)

	assert.NoError(t, locator.ValidateExporter("kafka", map[string]interface{}{"host": "localhost"}))
	assert.Error(t, locator.ValidateExporter("unknown", nil))
}

func TestNoopExporter(t *testing.T) {
	exporter := NewNoopExporter()

	assert.Equal(t, "noop", exporter.Name())
	assert.NoError(t, exporter.ValidateConfig(nil))

	bound, err := exporter.WithSettings(nil)
	assert.NoError(t, err)
	assert.NoError(t, bound.Handle(context.Background(), telemetry.SessionEvent{Kind: telemetry.EventSessionStarted}))
	bound.Close()
}
