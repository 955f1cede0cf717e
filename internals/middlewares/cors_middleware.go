package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CorsMiddleware membuat middleware CORS dari daftar origin (CORS_ORIGINS).
func CorsMiddleware(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ", "),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-School-ID, X-Active-Role, X-Session, X-Request-ID",
		ExposeHeaders:    "Content-Disposition, X-Request-ID",
		AllowCredentials: true,
	})
}
