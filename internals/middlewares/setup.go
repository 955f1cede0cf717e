package middlewares

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/middlewares/logger"
)

const LocRequestID = "request_id"

// RequestID: X-Request-ID (atau UUID baru) + timing + timeout guard di user context.
func RequestID(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals(LocRequestID, id)

		start := time.Now()
		// selaras dengan statement_timeout di DB
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		err := c.Next()
		if dur := time.Since(start); dur > timeout/2 {
			log.Printf("[REQ] ⚠️ lambat id=%s %s %s dur=%s", id, c.Method(), c.OriginalURL(), dur)
		}
		return err
	}
}

func SetupMiddlewares(app *fiber.App, cfg configs.AppConfig) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestID(cfg.RequestTimeout))
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware(cfg.CorsOrigins))
	app.Use(GlobalRateLimiter())
}
