package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/studiumlabs/voicebridge/pkg/config"
	handlers "github.com/studiumlabs/voicebridge/pkg/handlers/http"
	wsHandlers "github.com/studiumlabs/voicebridge/pkg/handlers/websocket"
	"github.com/studiumlabs/voicebridge/pkg/middleware"
)

var (
	ErrInvalidHandlerTransport = errors.New("invalid handler transport")
)

const (
	PingPath      = "/__/ping"
	VersionPath   = "/version"
	WebsocketPath = "/ws/voice"
)

type voiceRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
	wsHandlerTransport  wsHandlers.HandlerTransport
	config              *config.Config
}

func NewVoiceRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
	wsHandlerTransport wsHandlers.HandlerTransport,
	cfg *config.Config,
) ServerRouter {
	return &voiceRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
		wsHandlerTransport:  wsHandlerTransport,
		config:              cfg,
	}
}

func (r *voiceRouter) BuildRoutes(router *fiber.App) error {

	wsHandlerTransport, ok := r.wsHandlerTransport.GetTransport().(*wsHandlers.HandlerTransportDTO)
	if !ok {
		return ErrInvalidHandlerTransport
	}

	router.Use(r.middlewareTransport.PanicRecoverMiddleware.Middleware())

	router.Get(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	router.Post(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	router.Get(VersionPath, r.handlerTransport.GetVersionHandler.Handle)

	router.Static("/swagger.json", "./docs/swagger.json")

	router.Get("/docs/*", swagger.New(swagger.Config{
		URL: "/swagger.json",
	}))

	router.Get(WebsocketPath,
		r.middlewareTransport.WebsocketMiddleware.Middleware(),
		websocket.New(
			wsHandlerTransport.VoiceHandler.Handle,
			websocket.Config{
				HandshakeTimeout: 15 * time.Second,
				ReadBufferSize:   4096,
				WriteBufferSize:  4096,
			},
		),
	)

	v1 := router.Group("/api/v1", r.middlewareTransport.AuthMiddleware.Middleware())
	{
		conversation := v1.Group("/conversation")
		{
			conversation.Post("/start", r.handlerTransport.StartConversationHandler.Handle)
			conversation.Post("/:session_id/stop", r.handlerTransport.StopConversationHandler.Handle)
			conversation.Get("/:session_id/status", r.handlerTransport.ConversationStatusHandler.Handle)
		}

		v1.Get("/conversations", r.handlerTransport.ListConversationsHandler.Handle)
	}
	return nil
}
