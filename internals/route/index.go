package routes

import (
	"log"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/features/school/exams/repository"
	helperOSS "schoolku_backend/internals/helpers/oss"
	schoolkuMiddleware "schoolku_backend/internals/middlewares/auth_school"
	routeDetails "schoolku_backend/internals/route/details"
)

var startTime time.Time

type Deps struct {
	Repo      repository.Repository
	Publisher helperOSS.Publisher
	Enforcer  *casbin.Enforcer
	JWTSecret string
	Store     string
	Ping      func() error // nil = tanpa DB (STORE=memory)
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()

	BaseRoutes(app, d)

	auth := schoolkuMiddleware.AuthJWT(schoolkuMiddleware.AuthJWTOpts{
		Secret:              d.JWTSecret,
		AllowCookieFallback: true,
	})

	// ===================== PRIVATE (USER) =====================
	log.Println("[INFO] Setting up PRIVATE (scoped) group...")
	privateScoped := app.Group("/api/u", auth, schoolkuMiddleware.UseSchoolScope())

	// ===================== ADMIN (per school) =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + Scope + RoleCheck + RBAC)...")
	admin := app.Group("/api/a",
		auth,
		schoolkuMiddleware.UseSchoolScope(),
		schoolkuMiddleware.RequireSchoolRoles(constants.SchoolStaffRoles...),
		schoolkuMiddleware.RBAC(d.Enforcer),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Exam routes...")
	routeDetails.ExamUserRoutes(privateScoped, d.Repo)
	routeDetails.ExamAdminRoutes(admin, d.Repo, d.Publisher)
}
