package routes

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

func BaseRoutes(app *fiber.App, d Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Schoolku exams API 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		switch {
		case d.Ping == nil:
			dbStatus = "Not used (store=" + d.Store + ")"
		case d.Ping() != nil:
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		})
	})
}
