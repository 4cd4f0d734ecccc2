package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	appConversation "github.com/studiumlabs/voicebridge/pkg/app/conversation"
	"github.com/studiumlabs/voicebridge/pkg/common"
	"github.com/studiumlabs/voicebridge/pkg/handlers/http/response"
)

type listConversationsHandler struct {
	logger *logrus.Logger
	lister appConversation.Lister
}

func NewListConversationsHandler(logger *logrus.Logger, lister appConversation.Lister) Handler {
	return &listConversationsHandler{
		logger: logger,
		lister: lister,
	}
}

// Handle @Summary List the caller's voice conversations
// @Description Returns every live session owned by the authenticated user
// @Tags Conversations
// @Produce json
// @Param Authorization header string true "Authorization token"
// @Success 200 {object} response.ListConversationsOutput "Conversations"
// @Router /api/v1/conversations [get]
func (h *listConversationsHandler) Handle(c *fiber.Ctx) error {
	userID, ok := c.Locals(string(common.UserIdContextKey)).(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	sessions, err := h.lister.List(c.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("failed to list conversations")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list conversations"})
	}

	out := response.ListConversationsOutput{
		Sessions: make([]response.ConversationOutput, 0, len(sessions)),
	}
	for _, sess := range sessions {
		out.Sessions = append(out.Sessions, response.ConversationOutput{
			SessionID: sess.ID,
			Status:    sess.Status,
		})
	}

	return c.Status(fiber.StatusOK).JSON(out)
}
