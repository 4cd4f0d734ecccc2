package middleware

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/common"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain/telemetry"
	"github.com/studiumlabs/voicebridge/pkg/infra/auth/jwt"
	infraWebsocket "github.com/studiumlabs/voicebridge/pkg/infra/websocket"
	"github.com/studiumlabs/voicebridge/pkg/utils"
)

// websocketMiddleware authenticates and admits voice connections before the
// upgrade completes. The acquired semaphore slot travels in Locals and is
// released by the connection handler when the socket closes.
type websocketMiddleware struct {
	config     *config.Config
	logger     *logrus.Logger
	jwtManager jwt.Manager
	semaphore  *infraWebsocket.Semaphore
}

func NewWebsocketMiddleware(
	config *config.Config,
	logger *logrus.Logger,
	jwtManager jwt.Manager,
) Middleware {
	semaphore := infraWebsocket.NewSemaphore(config.Websocket.MaxConnections)
	return &websocketMiddleware{
		config:     config,
		logger:     logger,
		jwtManager: jwtManager,
		semaphore:  semaphore,
	}
}

func (m *websocketMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		if !m.semaphore.Acquire() {
			m.logger.WithField("in_use", m.semaphore.InUse()).
				Warn("maximum websocket connections reached, rejecting connection")
			return fiber.ErrTooManyRequests
		}

		token := m.extractToken(c)
		if token == "" {
			m.semaphore.Release()
			m.logger.Debug("websocket upgrade without token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}

		if err := m.jwtManager.ValidateToken(token); err != nil {
			m.semaphore.Release()
			m.logger.WithError(err).Debug("websocket token validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		claims, err := m.jwtManager.DecodeToken(token)
		if err != nil {
			m.semaphore.Release()
			m.logger.WithError(err).Error("failed to decode validated token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		userID := claims.Identity()
		if userID == "" {
			m.semaphore.Release()
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("ws_semaphore", m.semaphore)
		c.Locals(string(common.UserIdContextKey), userID)

		if info := utils.ParseUserAgent(c.Get(fiber.HeaderUserAgent), c.Get(fiber.HeaderAcceptLanguage)); info != nil {
			c.Locals(string(common.UserAgentContextKey), telemetry.ClientInfo{
				Device:  info.Device,
				OS:      info.OS,
				Browser: info.Browser,
				Locale:  info.Locale,
			})
		}

		return c.Next()
	}
}

func (m *websocketMiddleware) extractToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return ""
}
