package conversation

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

//go:generate mockery --name=Lister --dir=. --output=./mocks --filename=lister_mock.go --case=underscore --with-expecter
type Lister interface {
	List(ctx context.Context, userID string) ([]*conversation.Session, error)
}

type lister struct {
	logger   *logrus.Logger
	registry conversation.Registry
}

func NewLister(logger *logrus.Logger, registry conversation.Registry) Lister {
	return &lister{
		logger:   logger,
		registry: registry,
	}
}

func (l *lister) List(ctx context.Context, userID string) ([]*conversation.Session, error) {
	sessions, err := l.registry.ListForUser(ctx, userID)
	if err != nil {
		l.logger.WithError(err).Error("failed to list voice sessions")
		return nil, err
	}
	return sessions, nil
}
