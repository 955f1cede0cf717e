package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/features/school/exams/datesheets/controller"
	"schoolku_backend/internals/features/school/exams/datesheets/service"
	"schoolku_backend/internals/features/school/exams/repository"
	helperOSS "schoolku_backend/internals/helpers/oss"
)

// DatesheetAdminRoutes: admin sudah di-group /api/a + auth + school scope.
// export (opsional) dipasang di depan endpoint berat: PDF, XLSX, publish.
func DatesheetAdminRoutes(admin fiber.Router, repo repository.Repository, pub helperOSS.Publisher, export ...fiber.Handler) {
	svc := service.New(repo, nil)
	svc.Publisher = pub
	ctl := controller.New(svc)

	grp := admin.Group("/datesheets")

	// draft (stateless) didaftarkan sebelum /:id
	grp.Post("/draft/add", ctl.DraftAdd)
	grp.Post("/draft/edit", ctl.DraftBeginEdit)
	grp.Post("/draft/remove", ctl.DraftRemove)
	grp.Post("/draft/cancel", ctl.DraftCancel)
	grp.Post("/draft/available-subjects", ctl.DraftAvailableSubjects)
	grp.Post("/draft/submit", ctl.DraftSubmit)

	grp.Get("/", ctl.List)
	grp.Post("/", ctl.Create)
	grp.Get("/:id", ctl.Detail)
	grp.Put("/:id", ctl.Edit)
	grp.Delete("/:id", ctl.Delete)

	grp.Get("/:id/grid", ctl.Grid)
	grp.Post("/:id/classes", ctl.AddClassBlock)
	grp.Delete("/:id/classes/:class_id", ctl.DeleteClassBlock)

	grp.Get("/:id/export.pdf", with(export, ctl.ExportPDF)...)
	grp.Get("/:id/export.xlsx", with(export, ctl.ExportXLSX)...)
	grp.Post("/:id/publish", with(export, ctl.Publish)...)

	entries := admin.Group("/datesheet-entries")
	entries.Post("/swap", ctl.Swap)
	entries.Patch("/:id", ctl.EditEntry)
	entries.Get("/:id/available-subjects", ctl.EntryAvailableSubjects)
	entries.Post("/:id/clear", ctl.ClearEntry)
	entries.Post("/:id/move", ctl.Move)
	entries.Post("/:id/drop", ctl.Drop)
}

func with(mw []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, h)
}
