package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamSlipType merepresentasikan enum exam_slip_type_enum di Postgres.
type ExamSlipType string

const (
	SlipRollNo    ExamSlipType = "roll_no_slip"
	SlipAdmitCard ExamSlipType = "admit_card"
)

func (t ExamSlipType) Valid() bool {
	return t == SlipRollNo || t == SlipAdmitCard
}

func (t ExamSlipType) Label() string {
	if t == SlipAdmitCard {
		return "Admit Card"
	}
	return "Roll Number Slip"
}

// Sumber pembuatan slip (disimpan di metadata)
const (
	SlipSourceSingle = "single"
	SlipSourceBulk   = "bulk"
	SlipSourceCron   = "cron"
)

type SlipMetadata struct {
	Source        string     `json:"source"`
	GeneratedBy   *uuid.UUID `json:"generated_by,omitempty"`
	GeneratedAt   time.Time  `json:"generated_at"`
	AdmissionNo   string     `json:"admission_no"`
	DatesheetName string     `json:"datesheet_title"`
}

type ExamSlipModel struct {
	ExamSlipID          uuid.UUID    `gorm:"column:exam_slip_id;type:uuid;default:gen_random_uuid();primaryKey" json:"exam_slip_id"`
	ExamSlipSchoolID    uuid.UUID    `gorm:"column:exam_slip_school_id;type:uuid;not null" json:"exam_slip_school_id"`
	ExamSlipSession     string       `gorm:"column:exam_slip_session;type:varchar(40);not null" json:"exam_slip_session"`
	ExamSlipDatesheetID uuid.UUID    `gorm:"column:exam_slip_datesheet_id;type:uuid;not null" json:"exam_slip_datesheet_id"`
	ExamSlipStudentID   uuid.UUID    `gorm:"column:exam_slip_student_id;type:uuid;not null" json:"exam_slip_student_id"`
	ExamSlipClassID     *uuid.UUID   `gorm:"column:exam_slip_class_id;type:uuid" json:"exam_slip_class_id,omitempty"`
	ExamSlipNumber      string       `gorm:"column:exam_slip_number;type:varchar(255);not null" json:"exam_slip_number"`
	ExamSlipType        ExamSlipType `gorm:"column:exam_slip_type;type:exam_slip_type_enum;not null" json:"exam_slip_type"`

	ExamSlipMetadata datatypes.JSONType[SlipMetadata] `gorm:"column:exam_slip_metadata;type:jsonb;not null" json:"exam_slip_metadata"`

	ExamSlipCreatedAt time.Time `gorm:"column:exam_slip_created_at;type:timestamptz;not null;autoCreateTime" json:"exam_slip_created_at"`
}

func (ExamSlipModel) TableName() string { return "exam_slips" }

func (m *ExamSlipModel) EnsureID() {
	if m.ExamSlipID == uuid.Nil {
		m.ExamSlipID = uuid.New()
	}
}

func (m *ExamSlipModel) BeforeCreate(tx *gorm.DB) error {
	m.EnsureID()
	return nil
}
