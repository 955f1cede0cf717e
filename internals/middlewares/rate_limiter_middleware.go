package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func newLimiter(n int, exp time.Duration, msg string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        n,
		Expiration: exp,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": msg,
			})
		},
	})
}

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return newLimiter(100, 1*time.Minute, "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.")
}

// Export/print (PDF, XLSX, publish) lebih berat → lebih ketat
func ExportRateLimiter() fiber.Handler {
	return newLimiter(10, 1*time.Minute, "❌ Terlalu banyak permintaan export. Tunggu sebentar ya.")
}
