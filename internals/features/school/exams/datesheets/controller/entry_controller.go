package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

/* =========================
   Entry: edit / clear
   ========================= */

// PATCH /datesheet-entries/:id
func (ctl *DatesheetController) EditEntry(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.PatchEntryRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.EditEntry(c.UserContext(), sc, id, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "Jadwal berhasil diperbarui", out)
}

// POST /datesheet-entries/:id/clear
func (ctl *DatesheetController) ClearEntry(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.ClearEntry(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "Subject dikosongkan", out)
}

// GET /datesheet-entries/:id/available-subjects
func (ctl *DatesheetController) EntryAvailableSubjects(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.EntryAvailableSubjects(c.UserContext(), sc, id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

/* =========================
   Move / Drop / Swap
   ========================= */

// parseTarget: body {target_date} → tanggal.
func (ctl *DatesheetController) parseTarget(c *fiber.Ctx) (uuid.UUID, dto.MoveEntryRequest, error) {
	var req dto.MoveEntryRequest
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, req, err
	}
	if err := helper.ParseBody(c, &req); err != nil {
		return uuid.Nil, req, err
	}
	if err := helper.FromValidator(ctl.Svc.Validate.Struct(req)); err != nil {
		return uuid.Nil, req, err
	}
	return id, req, nil
}

// POST /datesheet-entries/:id/move
func (ctl *DatesheetController) Move(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, req, err := ctl.parseTarget(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	target, _ := dbtime.ParseDate(req.TargetDate)
	out, err := ctl.Svc.MoveEntry(c.UserContext(), sc, id, target)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "Jadwal berhasil dipindah", out)
}

// POST /datesheet-entries/:id/drop (drag & drop di grid)
func (ctl *DatesheetController) Drop(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, req, err := ctl.parseTarget(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	target, _ := dbtime.ParseDate(req.TargetDate)
	out, err := ctl.Svc.Drop(c.UserContext(), sc, id, target)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "ok", out)
}

// POST /datesheet-entries/swap
func (ctl *DatesheetController) Swap(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.SwapEntriesRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	if err := helper.FromValidator(ctl.Svc.Validate.Struct(req)); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.SwapEntries(c.UserContext(), sc, uuid.MustParse(req.EntryAID), uuid.MustParse(req.EntryBID))
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "Jadwal berhasil ditukar", out)
}

/* =========================
   Draft (stateless)
   ========================= */

// POST /datesheets/draft/add
func (ctl *DatesheetController) DraftAdd(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DraftAddRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.DraftAdd(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /datesheets/draft/edit
func (ctl *DatesheetController) DraftBeginEdit(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DraftIndexRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.DraftBeginEdit(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /datesheets/draft/remove
func (ctl *DatesheetController) DraftRemove(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DraftIndexRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.DraftRemove(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /datesheets/draft/available-subjects
func (ctl *DatesheetController) DraftAvailableSubjects(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DraftAvailableRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.DraftAvailableSubjects(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /datesheets/draft/cancel
func (ctl *DatesheetController) DraftCancel(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DraftAvailableRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.DraftCancel(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// POST /datesheets/draft/submit
func (ctl *DatesheetController) DraftSubmit(c *fiber.Ctx) error {
	sc, err := scopeFrom(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.DraftSubmitRequest
	if err := helper.ParseBody(c, &req); err != nil {
		return helper.WriteError(c, err)
	}
	out, err := ctl.Svc.DraftSubmit(c.UserContext(), sc, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, "Datesheet berhasil dibuat", out)
}
