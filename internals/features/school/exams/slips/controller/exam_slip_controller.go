package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	"schoolku_backend/internals/features/school/exams/slips/dto"
	"schoolku_backend/internals/features/school/exams/slips/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type ExamSlipController struct {
	Svc *service.Service
}

func New(svc *service.Service) *ExamSlipController {
	return &ExamSlipController{Svc: svc}
}

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

func slipTypeQuery(c *fiber.Ctx) m.ExamSlipType {
	return m.ExamSlipType(strings.ToLower(strings.TrimSpace(c.Query("slip_type"))))
}

func sendFile(c *fiber.Ctx, f *service.File, inline bool) error {
	disp := "attachment"
	if inline {
		disp = "inline"
	}
	c.Set(fiber.HeaderContentType, f.ContentType)
	c.Set(fiber.HeaderContentDisposition, disp+`; filename="`+f.Name+`"`)
	return c.Status(fiber.StatusOK).Send(f.Body)
}

/* =========================
   Admin
   ========================= */

// GET /exam-slips?datesheet_id=&class_id=&student_id=&slip_type=&page=&per_page=
func (ctl *ExamSlipController) List(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, 50, 200)
	f := repository.SlipFilter{Type: slipTypeQuery(c), Offset: p.Offset, Limit: p.Limit}
	if f.DatesheetID, err = helper.ParseUUIDQuery(c, "datesheet_id"); err != nil {
		return helper.WriteError(c, err)
	}
	if f.ClassID, err = helper.ParseUUIDQuery(c, "class_id"); err != nil {
		return helper.WriteError(c, err)
	}
	if f.StudentID, err = helper.ParseUUIDQuery(c, "student_id"); err != nil {
		return helper.WriteError(c, err)
	}

	rows, total, err := ctl.Svc.List(c.UserContext(), sc, f)
	if err != nil {
		return helper.WriteError(c, err)
	}
	pg := helper.BuildPagination(total, p, len(rows))
	return helper.JsonList(c, "ok", rows, &pg)
}

// POST /exam-slips (satu siswa)
func (ctl *ExamSlipController) Generate(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.GenerateSlipRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ctl.Svc.GenerateSingle(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	switch {
	case res.Warning != "":
		return helper.JsonWarning(c, res.Warning, res)
	case res.Created:
		return helper.JsonCreated(c, "Slip berhasil dibuat", res)
	}
	return helper.JsonOK(c, "Slip sudah ada", res)
}

// POST /exam-slips/bulk (per class, hanya yang belum punya)
func (ctl *ExamSlipController) GenerateBulk(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.BulkSlipRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	res, err := ctl.Svc.GenerateBulk(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	if res.Warning != "" {
		return helper.JsonWarning(c, res.Warning, res)
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /exam-slips/:id
func (ctl *ExamSlipController) Detail(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	v, err := ctl.Svc.Render(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	if len(v.Schedule) == 0 {
		return helper.JsonWarning(c, service.WarnNoSchedule, v)
	}
	return helper.JsonOK(c, "ok", v)
}

// GET /exam-slips/:id/pdf
func (ctl *ExamSlipController) PDF(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	f, err := ctl.Svc.PrintOne(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return sendFile(c, f, true)
}

// GET /exam-slips/print?datesheet_id=&class_id=&slip_type=
func (ctl *ExamSlipController) PrintClass(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	ve := helper.NewValidationError()
	dsID, err := helper.ParseUUIDQuery(c, "datesheet_id")
	if err != nil || dsID == nil {
		ve.Add("datesheet_id", "is required")
	}
	classID, err := helper.ParseUUIDQuery(c, "class_id")
	if err != nil || classID == nil {
		ve.Add("class_id", "is required")
	}
	if err := ve.OrNil(); err != nil {
		return helper.WriteError(c, err)
	}
	f, err := ctl.Svc.PrintClass(c.UserContext(), sc, *dsID, *classID, slipTypeQuery(c))
	if err != nil {
		return helper.WriteError(c, err)
	}
	return sendFile(c, f, false)
}

/* =========================
   User (siswa)
   ========================= */

// GET /exam-slips/mine?datesheet_id=&slip_type=
func (ctl *ExamSlipController) Mine(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	studentID, err := helperAuth.GetStudentIDFromToken(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	dsID, err := helper.ParseUUIDQuery(c, "datesheet_id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	if dsID == nil {
		return helper.WriteError(c, helper.FieldError("datesheet_id", "is required"))
	}
	v, err := ctl.Svc.Mine(c.UserContext(), sc, studentID, *dsID, slipTypeQuery(c))
	if err != nil {
		return helper.WriteError(c, err)
	}
	if v == nil {
		return helper.JsonWarning(c, service.WarnNoSlip, nil)
	}
	return helper.JsonOK(c, "ok", v)
}
