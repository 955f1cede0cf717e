package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/features/school/exams/repository"
	"schoolku_backend/internals/features/school/exams/slips/controller"
	"schoolku_backend/internals/features/school/exams/slips/service"
)

// ExamSlipAdminRoutes: /api/a/exam-slips. export dipasang di endpoint PDF.
func ExamSlipAdminRoutes(admin fiber.Router, repo repository.Repository, export ...fiber.Handler) {
	ctl := controller.New(service.New(repo, nil))

	grp := admin.Group("/exam-slips")
	grp.Get("/", ctl.List)
	grp.Post("/", ctl.Generate)
	grp.Post("/bulk", ctl.GenerateBulk)
	grp.Get("/print", with(export, ctl.PrintClass)...) // sebelum /:id
	grp.Get("/:id", ctl.Detail)
	grp.Get("/:id/pdf", with(export, ctl.PDF)...)
}

func with(mw []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, h)
}

// ExamSlipUserRoutes: /api/u/exam-slips (siswa login)
func ExamSlipUserRoutes(user fiber.Router, repo repository.Repository) {
	ctl := controller.New(service.New(repo, nil))

	grp := user.Group("/exam-slips")
	grp.Get("/mine", ctl.Mine)
}
