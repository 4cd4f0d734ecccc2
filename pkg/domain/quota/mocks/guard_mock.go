package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Precheck(ctx context.Context, userID string, estimatedCost int64) (bool, error) {
	args := m.Called(ctx, userID, estimatedCost)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuard) Settle(ctx context.Context, userID string, cost int64, operation string) error {
	args := m.Called(ctx, userID, cost, operation)
	return args.Error(0)
}
