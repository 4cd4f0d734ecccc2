package conversation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/domain"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

//go:generate mockery --name=StatusFinder --dir=. --output=./mocks --filename=status_finder_mock.go --case=underscore --with-expecter
type StatusFinder interface {
	Find(ctx context.Context, userID string, id uuid.UUID) (*conversation.Session, error)
}

type statusFinder struct {
	logger   *logrus.Logger
	registry conversation.Registry
}

func NewStatusFinder(logger *logrus.Logger, registry conversation.Registry) StatusFinder {
	return &statusFinder{
		logger:   logger,
		registry: registry,
	}
}

func (f *statusFinder) Find(ctx context.Context, userID string, id uuid.UUID) (*conversation.Session, error) {
	sess, ok := f.registry.Get(ctx, id)
	if !ok {
		f.logger.WithField("session_id", id).Debug("status requested for unknown session")
		return nil, domain.NewNotFoundError("session", id)
	}
	if !sess.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}

	// An owner polling status counts as session activity.
	f.registry.Touch(ctx, id)

	return sess, nil
}
