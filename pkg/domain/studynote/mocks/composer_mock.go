package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studiumlabs/voicebridge/pkg/domain/studynote"
)

type MockComposer struct {
	mock.Mock
}

func (m *MockComposer) Compose(ctx context.Context, req studynote.ComposeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
