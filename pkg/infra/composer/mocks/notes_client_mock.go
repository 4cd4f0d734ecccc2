package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studiumlabs/voicebridge/pkg/infra/composer"
)

type MockNotesClient struct {
	mock.Mock
}

func (m *MockNotesClient) Exists(ctx context.Context, topicID string) (bool, error) {
	args := m.Called(ctx, topicID)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotesClient) CreateNote(ctx context.Context, note composer.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
