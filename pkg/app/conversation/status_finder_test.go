package conversation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/studiumlabs/voicebridge/pkg/domain"
	domainConversation "github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation/mocks"
)

func TestStatusFinder_Find_Success(t *testing.T) {
	registry := new(mocks.MockRegistry)
	finder := NewStatusFinder(testLogger(), registry)

	ctx := context.Background()
	sess := domainConversation.NewSession("user-1", domainConversation.Attributes{TopicID: "topic-1"})

	registry.On("Get", ctx, sess.ID).Return(sess, true)
	registry.On("Touch", ctx, sess.ID).Return()

	found, err := finder.Find(ctx, "user-1", sess.ID)

	assert.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)
	assert.Equal(t, domainConversation.StatusActive, found.Status)
	registry.AssertExpectations(t)
}

func TestStatusFinder_Find_NotFound(t *testing.T) {
	registry := new(mocks.MockRegistry)
	finder := NewStatusFinder(testLogger(), registry)

	ctx := context.Background()
	id := uuid.New()

	registry.On("Get", ctx, id).Return(nil, false)

	found, err := finder.Find(ctx, "user-1", id)

	assert.Error(t, err)
	assert.Nil(t, found)
	assert.True(t, domain.IsNotFoundError(err))
}

func TestStatusFinder_Find_Forbidden(t *testing.T) {
	registry := new(mocks.MockRegistry)
	finder := NewStatusFinder(testLogger(), registry)

	ctx := context.Background()
	sess := domainConversation.NewSession("owner", domainConversation.Attributes{})

	registry.On("Get", ctx, sess.ID).Return(sess, true)

	found, err := finder.Find(ctx, "intruder", sess.ID)

	assert.Error(t, err)
	assert.Nil(t, found)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	registry.AssertNotCalled(t, "Touch", ctx, sess.ID)
}
