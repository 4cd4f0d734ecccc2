package http

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	conversationMocks "github.com/studiumlabs/voicebridge/pkg/app/conversation/mocks"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
)

func TestListConversationsHandler_Success(t *testing.T) {
	logger := logrus.New()
	lister := new(conversationMocks.MockLister)
	handler := NewListConversationsHandler(logger, lister)

	first := conversation.NewSession("user-1", conversation.Attributes{})
	second := conversation.NewSession("user-1", conversation.Attributes{})
	lister.On("List", mock.Anything, "user-1").
		Return([]*conversation.Session{first, second}, nil)

	app := testApp("user-1", fiber.MethodGet, "/api/v1/conversations", handler)

	req := httptest.NewRequest("GET", "/api/v1/conversations", nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), first.ID.String())
	assert.Contains(t, string(raw), second.ID.String())
	lister.AssertExpectations(t)
}

func TestListConversationsHandler_Empty(t *testing.T) {
	logger := logrus.New()
	lister := new(conversationMocks.MockLister)
	handler := NewListConversationsHandler(logger, lister)

	lister.On("List", mock.Anything, "user-1").Return(nil, nil)

	app := testApp("user-1", fiber.MethodGet, "/api/v1/conversations", handler)

	req := httptest.NewRequest("GET", "/api/v1/conversations", nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sessions":[]}`, string(raw))
}
