package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) List(ctx context.Context, userID string) ([]*conversation.Session, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]*conversation.Session)
	return sessions, args.Error(1)
}
