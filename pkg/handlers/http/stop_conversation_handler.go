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

type stopConversationHandler struct {
	logger  *logrus.Logger
	stopper appConversation.Stopper
}

func NewStopConversationHandler(logger *logrus.Logger, stopper appConversation.Stopper) Handler {
	return &stopConversationHandler{
		logger:  logger,
		stopper: stopper,
	}
}

// Handle @Summary Stop a voice conversation
// @Description Removes the session record so the id can no longer start bridges
// @Tags Conversations
// @Produce json
// @Param Authorization header string true "Authorization token"
// @Param session_id path string true "Session ID"
// @Success 200 {object} response.ConversationOutput "Conversation stopped"
// @Failure 403 {object} map[string]interface{} "Session belongs to another user"
// @Failure 404 {object} map[string]interface{} "Session not found"
// @Router /api/v1/conversation/{session_id}/stop [post]
func (h *stopConversationHandler) Handle(c *fiber.Ctx) error {
	userID, ok := c.Locals(string(common.UserIdContextKey)).(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	id, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid session_id"})
	}

	sess, err := h.stopper.Stop(c.Context(), userID, id)
	if err != nil {
		switch {
		case domain.IsNotFoundError(err):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "session belongs to another user"})
		default:
			h.logger.WithError(err).Error("failed to stop conversation")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to stop conversation"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(response.ConversationOutput{
		SessionID: sess.ID,
		Status:    sess.Status,
	})
}
