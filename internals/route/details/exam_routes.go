package details

import (
	"github.com/gofiber/fiber/v2"

	DatesheetRoutes "schoolku_backend/internals/features/school/exams/datesheets/route"
	"schoolku_backend/internals/features/school/exams/repository"
	ExamSlipRoutes "schoolku_backend/internals/features/school/exams/slips/route"
	helperOSS "schoolku_backend/internals/helpers/oss"
	"schoolku_backend/internals/middlewares"
)

/* ===================== USER (PRIVATE) ===================== */
// Endpoint untuk siswa login
func ExamUserRoutes(r fiber.Router, repo repository.Repository) {
	ExamSlipRoutes.ExamSlipUserRoutes(r, repo)
}

/* ===================== ADMIN ===================== */
// Endpoint admin/teacher per school (scope + RBAC sudah di group)
func ExamAdminRoutes(r fiber.Router, repo repository.Repository, pub helperOSS.Publisher) {
	// satu kuota export dipakai bersama PDF/XLSX/publish/print
	export := middlewares.ExportRateLimiter()

	DatesheetRoutes.DatesheetAdminRoutes(r, repo, pub, export)
	ExamSlipRoutes.ExamSlipAdminRoutes(r, repo, export)
}
