package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Create(ctx context.Context, userID string, attrs conversation.Attributes) (*conversation.Session, error) {
	args := m.Called(ctx, userID, attrs)
	sess, _ := args.Get(0).(*conversation.Session)
	return sess, args.Error(1)
}

func (m *MockRegistry) Get(ctx context.Context, id uuid.UUID) (*conversation.Session, bool) {
	args := m.Called(ctx, id)
	sess, _ := args.Get(0).(*conversation.Session)
	return sess, args.Bool(1)
}

func (m *MockRegistry) Delete(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}

func (m *MockRegistry) ListForUser(ctx context.Context, userID string) ([]*conversation.Session, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]*conversation.Session)
	return sessions, args.Error(1)
}

func (m *MockRegistry) Touch(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}
