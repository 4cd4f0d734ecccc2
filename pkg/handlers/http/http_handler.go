package http

import "github.com/gofiber/fiber/v2"

const ErrInvalidJsonPayload = "invalid json payload"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Conversation
	StartConversationHandler  Handler
	StopConversationHandler   Handler
	ConversationStatusHandler Handler
	ListConversationsHandler  Handler

	// Misc
	GetVersionHandler Handler
}
