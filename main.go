package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"schoolku_backend/internals/configs"
	database "schoolku_backend/internals/databases"
	"schoolku_backend/internals/features/school/exams/repository"
	"schoolku_backend/internals/features/school/exams/scheduler"
	slipService "schoolku_backend/internals/features/school/exams/slips/service"
	helper "schoolku_backend/internals/helpers"
	helperOSS "schoolku_backend/internals/helpers/oss"
	middlewares "schoolku_backend/internals/middlewares"
	schoolkuMiddleware "schoolku_backend/internals/middlewares/auth_school"
	routes "schoolku_backend/internals/route"
)

func main() {
	cfg := configs.LoadEnv()
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET wajib diisi")
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.WriteError(c, err)
		},
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	middlewares.SetupMiddlewares(app, cfg)

	// 🔌 store: postgres (default) atau memory untuk dev
	var (
		repo repository.Repository
		ping func() error
	)
	switch cfg.Store {
	case "memory":
		log.Println("⚠️ STORE=memory, data hilang saat restart")
		repo = repository.NewMemory()
	default:
		database.ConnectDB(cfg)
		database.TunePool()
		database.Migrate()
		database.WarmUpQueries()
		repo = repository.NewGorm(database.DB)
		ping = database.Ping
	}

	enforcer, err := schoolkuMiddleware.NewEnforcer(schoolkuMiddleware.DefaultRules(), schoolkuMiddleware.DefaultInherits())
	if err != nil {
		log.Fatalf("❌ RBAC: %v", err)
	}

	// ✅ Routes
	routes.SetupRoutes(app, routes.Deps{
		Repo:      repo,
		Publisher: helperOSS.NewPublisher(cfg),
		Enforcer:  enforcer,
		JWTSecret: cfg.JWTSecret,
		Store:     cfg.Store,
		Ping:      ping,
	})

	// ⏱ scheduler setelah store siap
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	autogen := scheduler.NewSlipAutogen(slipService.New(repo, nil), scheduler.ConfigFrom(cfg))
	cronJob, err := autogen.Start(jobCtx)
	if err != nil {
		log.Fatalf("❌ SLIP_AUTOGEN_CRON tidak valid: %v", err)
	}

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: cron → http → pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopJobs()
	if cronJob != nil {
		<-cronJob.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
