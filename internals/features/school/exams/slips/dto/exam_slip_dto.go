package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	m "schoolku_backend/internals/features/school/exams/model"
)

/* =========================
   Requests
   ========================= */

// GenerateSlipRequest: satu siswa. class_id opsional (fallback class siswa saat ini).
type GenerateSlipRequest struct {
	DatesheetID string `json:"datesheet_id" validate:"required,uuid"`
	StudentID   string `json:"student_id" validate:"required,uuid"`
	ClassID     string `json:"class_id" validate:"omitempty,uuid"`
	SlipType    string `json:"slip_type" validate:"required,oneof=roll_no_slip admit_card"`
}

type BulkSlipRequest struct {
	DatesheetID string `json:"datesheet_id" validate:"required,uuid"`
	ClassID     string `json:"class_id" validate:"required,uuid"`
	SlipType    string `json:"slip_type" validate:"required,oneof=roll_no_slip admit_card"`
}

func (r *GenerateSlipRequest) Normalize() {
	r.DatesheetID = strings.TrimSpace(r.DatesheetID)
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.ClassID = strings.TrimSpace(r.ClassID)
	r.SlipType = strings.ToLower(strings.TrimSpace(r.SlipType))
}

func (r *BulkSlipRequest) Normalize() {
	r.DatesheetID = strings.TrimSpace(r.DatesheetID)
	r.ClassID = strings.TrimSpace(r.ClassID)
	r.SlipType = strings.ToLower(strings.TrimSpace(r.SlipType))
}

/* =========================
   Responses
   ========================= */

type SlipResponse struct {
	ExamSlipID          uuid.UUID      `json:"exam_slip_id"`
	ExamSlipSchoolID    uuid.UUID      `json:"exam_slip_school_id"`
	ExamSlipSession     string         `json:"exam_slip_session"`
	ExamSlipDatesheetID uuid.UUID      `json:"exam_slip_datesheet_id"`
	ExamSlipStudentID   uuid.UUID      `json:"exam_slip_student_id"`
	ExamSlipClassID     *uuid.UUID     `json:"exam_slip_class_id,omitempty"`
	ExamSlipNumber      string         `json:"exam_slip_number"`
	ExamSlipType        m.ExamSlipType `json:"exam_slip_type"`
	ExamSlipMetadata    m.SlipMetadata `json:"exam_slip_metadata"`
	ExamSlipCreatedAt   time.Time      `json:"exam_slip_created_at"`
}

func FromSlipModel(row m.ExamSlipModel) SlipResponse {
	return SlipResponse{
		ExamSlipID:          row.ExamSlipID,
		ExamSlipSchoolID:    row.ExamSlipSchoolID,
		ExamSlipSession:     row.ExamSlipSession,
		ExamSlipDatesheetID: row.ExamSlipDatesheetID,
		ExamSlipStudentID:   row.ExamSlipStudentID,
		ExamSlipClassID:     row.ExamSlipClassID,
		ExamSlipNumber:      row.ExamSlipNumber,
		ExamSlipType:        row.ExamSlipType,
		ExamSlipMetadata:    row.ExamSlipMetadata.Data(),
		ExamSlipCreatedAt:   row.ExamSlipCreatedAt,
	}
}

func FromSlipModels(rows []m.ExamSlipModel) []SlipResponse {
	out := make([]SlipResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromSlipModel(r))
	}
	return out
}

type SlipStudent struct {
	StudentID       uuid.UUID `json:"student_id"`
	FullName        string    `json:"full_name"`
	FatherName      string    `json:"father_name,omitempty"`
	AdmissionNumber string    `json:"admission_number"`
}

type SlipDatesheet struct {
	DatesheetID uuid.UUID `json:"datesheet_id"`
	Title       string    `json:"title"`
	Session     string    `json:"session"`
	ExamCenter  string    `json:"exam_center"`
}

type ScheduleRow struct {
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	ExamDate    string    `json:"exam_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	RoomNumber  string    `json:"room_number"`
}

// SlipView: slip yang sudah dirender (siswa + class + jadwal).
type SlipView struct {
	Slip      SlipResponse  `json:"slip"`
	SlipLabel string        `json:"slip_label"`
	Student   SlipStudent   `json:"student"`
	ClassID   *uuid.UUID    `json:"class_id,omitempty"`
	ClassName string        `json:"class_name,omitempty"`
	Datesheet SlipDatesheet `json:"datesheet"`
	Schedule  []ScheduleRow `json:"schedule"`
}

// GenerateResult: View nil bila class tidak bisa ditentukan (Warning terisi).
type GenerateResult struct {
	Created bool      `json:"created"`
	View    *SlipView `json:"view"`
	Warning string    `json:"-"`
}

type BulkResult struct {
	DatesheetID uuid.UUID      `json:"datesheet_id"`
	ClassID     uuid.UUID      `json:"class_id"`
	SlipType    m.ExamSlipType `json:"slip_type"`
	Students    int            `json:"students"`
	Created     int            `json:"created"`
	Skipped     int            `json:"skipped"`
	Warning     string         `json:"-"`
}

// AutogenReport: ringkasan satu putaran job terjadwal.
type AutogenReport struct {
	Datesheets int `json:"datesheets"`
	Classes    int `json:"classes"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}
