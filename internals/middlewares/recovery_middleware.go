package middlewares

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RecoveryMiddleware menangkap panic dan mengembalikan error 500
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			log.Printf("[PANIC] %s %s | rid=%v | %v", c.Method(), c.Path(), c.Locals(LocRequestID), e)
		},
	})
}
