package service

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	"schoolku_backend/internals/features/school/exams/datesheets/grid"
	helper "schoolku_backend/internals/helpers"
)

// RollbackError: persist gagal setelah update optimistik; grid sudah dikembalikan ke snapshot.
type RollbackError struct {
	Err      error
	Restored []dto.EntryResponse
}

func (e *RollbackError) Error() string { return "rollback: " + e.Err.Error() }
func (e *RollbackError) Unwrap() error { return e.Err }

func (e *RollbackError) StatusCode() int {
	if errors.Is(e.Err, gorm.ErrRecordNotFound) {
		return fiber.StatusNotFound
	}
	code, _ := helper.MapPGError(e.Err)
	return code
}

func (e *RollbackError) ErrorData() any {
	return map[string]any{"rolled_back": true, "entries": e.Restored}
}

// gridErr memetakan error lokal grid ke error HTTP.
func gridErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, grid.ErrEntryNotInGrid):
		return fiber.NewError(fiber.StatusNotFound, "Entry tidak ditemukan di jadwal")
	case errors.Is(err, grid.ErrDifferentBlock):
		return fiber.NewError(fiber.StatusBadRequest, "Kedua entry harus berada di datesheet & class yang sama")
	case errors.Is(err, grid.ErrUnknownDate):
		return helper.FieldError("target_date", "must be one of the dates used by this datesheet")
	}
	return err
}

var (
	errSubjectTaken = fiber.NewError(fiber.StatusConflict, "Subject sudah dijadwalkan untuk class ini")
	errClassMissing = fiber.NewError(fiber.StatusNotFound, "Class tidak terdaftar di datesheet ini")
)
