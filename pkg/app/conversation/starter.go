package conversation

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/infra/metrics"
)

//go:generate mockery --name=Starter --dir=. --output=./mocks --filename=starter_mock.go --case=underscore --with-expecter
type Starter interface {
	Start(ctx context.Context, userID string, attrs conversation.Attributes) (*conversation.Session, error)
}

type starter struct {
	logger   *logrus.Logger
	registry conversation.Registry
}

func NewStarter(logger *logrus.Logger, registry conversation.Registry) Starter {
	return &starter{
		logger:   logger,
		registry: registry,
	}
}

func (s *starter) Start(
	ctx context.Context,
	userID string,
	attrs conversation.Attributes,
) (*conversation.Session, error) {
	sess, err := s.registry.Create(ctx, userID, attrs)
	if err != nil {
		s.logger.WithError(err).Error("failed to create voice session")
		return nil, err
	}

	metrics.SessionsStartedTotal.Inc()
	s.logger.WithFields(logrus.Fields{
		"session_id": sess.ID.String(),
		"user_id":    userID,
	}).Debug("voice session created")

	return sess, nil
}
