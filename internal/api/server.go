// Package api assembles the fiber app: the websocket endpoint plus health
// and metrics.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	"github.com/ayanasamuel8/chat-backend/internal/metrics"
	"github.com/ayanasamuel8/chat-backend/internal/ws"
)

func New(gw *ws.Gateway) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Get("/ws", gw.Upgrade)
	app.Get("/ws", websocket.New(gw.Handle))

	return app
}
