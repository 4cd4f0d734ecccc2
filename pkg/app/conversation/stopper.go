package conversation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/domain"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/infra/metrics"
)

//go:generate mockery --name=Stopper --dir=. --output=./mocks --filename=stopper_mock.go --case=underscore --with-expecter
type Stopper interface {
	Stop(ctx context.Context, userID string, id uuid.UUID) (*conversation.Session, error)
}

type stopper struct {
	logger   *logrus.Logger
	registry conversation.Registry
}

func NewStopper(logger *logrus.Logger, registry conversation.Registry) Stopper {
	return &stopper{
		logger:   logger,
		registry: registry,
	}
}

// Stop removes the session record. A connection still bridging against it
// keeps running on its snapshot; only new starts are affected.
func (s *stopper) Stop(ctx context.Context, userID string, id uuid.UUID) (*conversation.Session, error) {
	sess, ok := s.registry.Get(ctx, id)
	if !ok {
		return nil, domain.NewNotFoundError("session", id)
	}
	if !sess.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}

	s.registry.Delete(ctx, id)
	metrics.SessionsStoppedTotal.WithLabelValues("rest_stop").Inc()

	s.logger.WithFields(logrus.Fields{
		"session_id": id,
		"user_id":    userID,
	}).Info("voice session stopped")

	sess.Status = conversation.StatusStopped
	return sess, nil
}
