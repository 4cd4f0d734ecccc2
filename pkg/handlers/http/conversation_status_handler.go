package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	appConversation "github.com/studiumlabs/voicebridge/pkg/app/conversation"
	"github.com/studiumlabs/voicebridge/pkg/common"
	"github.com/studiumlabs/voicebridge/pkg/domain"
	"github.com/studiumlabs/voicebridge/pkg/handlers/http/response"
)

type conversationStatusHandler struct {
	logger *logrus.Logger
	finder appConversation.StatusFinder
}

func NewConversationStatusHandler(logger *logrus.Logger, finder appConversation.StatusFinder) Handler {
	return &conversationStatusHandler{
		logger: logger,
		finder: finder,
	}
}

// Handle @Summary Retrieve a conversation's status
// @Description Returns the current state of a voice session owned by the caller
// @Tags Conversations
// @Produce json
// @Param Authorization header string true "Authorization token"
// @Param session_id path string true "Session ID"
// @Success 200 {object} response.ConversationOutput "Conversation status"
// @Failure 403 {object} map[string]interface{} "Session belongs to another user"
// @Failure 404 {object} map[string]interface{} "Session not found"
// @Router /api/v1/conversation/{session_id}/status [get]
func (h *conversationStatusHandler) Handle(c *fiber.Ctx) error {
	userID, ok := c.Locals(string(common.UserIdContextKey)).(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	id, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid session_id"})
	}

	sess, err := h.finder.Find(c.Context(), userID, id)
	if err != nil {
		switch {
		case domain.IsNotFoundError(err):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "session belongs to another user"})
		default:
			h.logger.WithError(err).Error("failed to fetch conversation status")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch conversation status"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(response.ConversationOutput{
		SessionID: sess.ID,
		Status:    sess.Status,
		UserID:    sess.UserID,
	})
}
