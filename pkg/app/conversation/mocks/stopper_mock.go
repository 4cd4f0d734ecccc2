package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

type MockStopper struct {
	mock.Mock
}

func (m *MockStopper) Stop(ctx context.Context, userID string, id uuid.UUID) (*conversation.Session, error) {
	args := m.Called(ctx, userID, id)
	sess, _ := args.Get(0).(*conversation.Session)
	return sess, args.Error(1)
}
