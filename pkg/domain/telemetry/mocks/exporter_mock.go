package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studiumlabs/voicebridge/pkg/domain/telemetry"
)

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockExporter) ValidateConfig(settings map[string]interface{}) error {
	args := m.Called(settings)
	return args.Error(0)
}

func (m *MockExporter) Handle(ctx context.Context, evt telemetry.SessionEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockExporter) WithSettings(settings map[string]interface{}) (telemetry.Exporter, error) {
	args := m.Called(settings)
	exp, _ := args.Get(0).(telemetry.Exporter)
	return exp, args.Error(1)
}

func (m *MockExporter) Close() {
	m.Called()
}
