package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	appConversation "github.com/studiumlabs/voicebridge/pkg/app/conversation"
	"github.com/studiumlabs/voicebridge/pkg/common"
	"github.com/studiumlabs/voicebridge/pkg/domain/conversation"
	"github.com/studiumlabs/voicebridge/pkg/handlers/http/request"
	"github.com/studiumlabs/voicebridge/pkg/handlers/http/response"
)

type startConversationHandler struct {
	logger  *logrus.Logger
	starter appConversation.Starter
}

func NewStartConversationHandler(logger *logrus.Logger, starter appConversation.Starter) Handler {
	return &startConversationHandler{
		logger:  logger,
		starter: starter,
	}
}

// Handle @Summary Start a voice conversation
// @Description Registers a voice session and returns the id to bind on the WebSocket
// @Tags Conversations
// @Accept json
// @Produce json
// @Param Authorization header string true "Authorization token"
// @Param conversation body request.StartConversationRequest false "Conversation attributes"
// @Success 201 {object} response.ConversationOutput "Conversation created"
// @Failure 400 {object} map[string]interface{} "Invalid request data"
// @Failure 401 {object} map[string]interface{} "Missing or invalid token"
// @Router /api/v1/conversation/start [post]
func (h *startConversationHandler) Handle(c *fiber.Ctx) error {
	userID, ok := c.Locals(string(common.UserIdContextKey)).(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}

	var req request.StartConversationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			h.logger.WithError(err).Error("failed to bind request")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
		}
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sess, err := h.starter.Start(c.Context(), userID, conversation.Attributes{
		SystemInstruction: req.SystemInstruction,
		CourseID:          req.CourseID,
		TopicID:           req.TopicID,
		ChatSessionID:     req.ChatSessionID,
		StudySessionID:    req.StudySessionID,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to start conversation")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start conversation"})
	}

	return c.Status(fiber.StatusCreated).JSON(response.ConversationOutput{
		SessionID: sess.ID,
		Status:    sess.Status,
	})
}
