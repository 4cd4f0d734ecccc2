package router

import "github.com/gofiber/fiber/v2"

// ServerRouter mounts a route tree on the shared fiber app. Routers are
// applied in registration order before the server starts listening.
type ServerRouter interface {
	BuildRoutes(router *fiber.App) error
}
