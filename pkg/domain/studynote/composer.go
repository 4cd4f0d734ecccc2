package studynote

import (
	"context"

	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

type ComposeRequest struct {
	UserID         string
	TopicID        string
	CourseID       string
	ChatSessionID  string
	StudySessionID string
	Turns          []conversation.Turn
}

// Composer turns an accumulated transcript into a persisted study artifact.
//
//go:generate mockery --name=Composer --dir=. --output=./mocks --filename=composer_mock.go --case=underscore --with-expecter
type Composer interface {
	Compose(ctx context.Context, req ComposeRequest) error
}
