package conversation

import (
	"context"

	"github.com/google/uuid"
)

// Registry holds ephemeral session records shared across connections.
//
//go:generate mockery --name=Registry --dir=. --output=./mocks --filename=registry_mock.go --case=underscore --with-expecter
type Registry interface {
	Create(ctx context.Context, userID string, attrs Attributes) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, bool)
	Delete(ctx context.Context, id uuid.UUID)
	ListForUser(ctx context.Context, userID string) ([]*Session, error)
	Touch(ctx context.Context, id uuid.UUID)
}
