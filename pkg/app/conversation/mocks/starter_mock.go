package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

type MockStarter struct {
	mock.Mock
}

func (m *MockStarter) Start(ctx context.Context, userID string, attrs conversation.Attributes) (*conversation.Session, error) {
	args := m.Called(ctx, userID, attrs)
	sess, _ := args.Get(0).(*conversation.Session)
	return sess, args.Error(1)
}
