package controller

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	"schoolku_backend/internals/features/school/exams/datesheets/service"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type DatesheetController struct {
	Svc *service.Service
}

func New(svc *service.Service) *DatesheetController {
	return &DatesheetController{Svc: svc}
}

// scopeFrom: school aktif + user (opsional) + session dari token/query/header.
func scopeFrom(c *fiber.Ctx) (m.Scope, error) {
	schoolID, err := helperAuth.GetActiveSchoolID(c)
	if err != nil {
		return m.Scope{}, err
	}
	sc := m.Scope{SchoolID: schoolID, Session: helperAuth.GetSession(c)}
	if uid, err := helperAuth.GetUserIDFromToken(c); err == nil {
		sc.UserID = &uid
	}
	return sc, nil
}

/* =========================
   List & Detail
   ========================= */

// GET /datesheets?session=&q=&class_id=&start_from=&start_to=&page=&per_page=
func (ctl *DatesheetController) List(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)

	f := repository.DatesheetFilter{
		Session: sc.Session,
		Q:       strings.TrimSpace(c.Query("q")),
		Offset:  p.Offset,
		Limit:   p.Limit,
	}
	if f.ClassID, err = helper.ParseUUIDQuery(c, "class_id"); err != nil {
		return helper.WriteError(c, err)
	}
	if f.StartFrom, err = helper.ParseDateQuery(c, "start_from"); err != nil {
		return helper.WriteError(c, err)
	}
	if f.StartTo, err = helper.ParseDateQuery(c, "start_to"); err != nil {
		return helper.WriteError(c, err)
	}

	rows, total, err := ctl.Svc.List(c.UserContext(), sc, f)
	if err != nil {
		return helper.WriteError(c, err)
	}
	pg := helper.BuildPagination(total, p, len(rows))
	return helper.JsonList(c, "ok", rows, &pg)
}

// GET /datesheets/:id → datesheet + entries + bentuk form (untuk edit)
func (ctl *DatesheetController) Detail(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.Get(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

/* =========================
   Create / Edit / Delete
   ========================= */

// POST /datesheets
func (ctl *DatesheetController) Create(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DatesheetForm
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.Create(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, "Datesheet berhasil dibuat", out)
}

// PUT /datesheets/:id (entries diganti utuh)
func (ctl *DatesheetController) Edit(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DatesheetForm
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.Edit(c.UserContext(), sc, id, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "Datesheet berhasil diperbarui", out)
}

// DELETE /datesheets/:id
func (ctl *DatesheetController) Delete(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	if err := ctl.Svc.Delete(c.UserContext(), sc, id); err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonDeleted(c, "Datesheet berhasil dihapus", fiber.Map{"datesheet_id": id})
}

/* =========================
   Grid & class block
   ========================= */

// GET /datesheets/:id/grid?class_ids=a,b
func (ctl *DatesheetController) Grid(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	only, err := helper.ParseUUIDList(c, "class_ids")
	if err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.Grid(c.UserContext(), sc, id, only)
	if err != nil {
		return helper.WriteError(c, err)
	}
	if len(out.Rows) == 0 {
		return helper.JsonWarning(c, "Belum ada jadwal untuk class yang dipilih", out)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /datesheets/:id/classes
func (ctl *DatesheetController) AddClassBlock(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.ClassBlockRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.AddClassBlock(c.UserContext(), sc, id, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, "Class berhasil ditambahkan", out)
}

// DELETE /datesheets/:id/classes/:class_id
func (ctl *DatesheetController) DeleteClassBlock(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	classID, err := helper.ParseUUIDParam(c, "class_id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.DeleteClassBlock(c.UserContext(), sc, id, classID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	log.Printf("[Datesheet.DeleteClassBlock] %s class=%s deleted=%d", id, classID, out.DeletedEntries)
	return helper.JsonDeleted(c, "Jadwal class berhasil dihapus", out)
}

/* =========================
   Export
   ========================= */

func sendFile(c *fiber.Ctx, f *service.File) error {
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+f.Name+`"`)
	return c.Status(fiber.StatusOK).Send(f.Body)
}

// GET /datesheets/:id/export.pdf
func (ctl *DatesheetController) ExportPDF(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	f, err := ctl.Svc.ExportPDF(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return sendFile(c, f)
}

// GET /datesheets/:id/export.xlsx
func (ctl *DatesheetController) ExportXLSX(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	f, err := ctl.Svc.ExportXLSX(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return sendFile(c, f)
}

// POST /datesheets/:id/publish → URL publik PDF
func (ctl *DatesheetController) Publish(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.Publish(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "Datesheet berhasil dipublikasikan", out)
}
