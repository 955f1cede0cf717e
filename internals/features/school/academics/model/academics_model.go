// Read-model akademik (kelas, mapel, siswa) yang dibaca modul ujian.
// CRUD-nya milik fitur akademik; di sini hanya dipakai untuk lookup.
package model

import (
	"time"

	"github.com/google/uuid"
)

type ClassModel struct {
	ClassID       uuid.UUID `gorm:"column:class_id;type:uuid;default:gen_random_uuid();primaryKey" json:"class_id"`
	ClassSchoolID uuid.UUID `gorm:"column:class_school_id;type:uuid;not null" json:"class_school_id"`
	ClassName     string    `gorm:"column:class_name;type:varchar(120);not null" json:"class_name"`
	ClassSection  *string   `gorm:"column:class_section;type:varchar(40)" json:"class_section,omitempty"`

	ClassCreatedAt time.Time `gorm:"column:class_created_at;type:timestamptz;not null;autoCreateTime" json:"class_created_at"`
	ClassUpdatedAt time.Time `gorm:"column:class_updated_at;type:timestamptz;not null;autoUpdateTime" json:"class_updated_at"`
}

func (ClassModel) TableName() string { return "classes" }

// DisplayName: "Class 5 - A"
func (m ClassModel) DisplayName() string {
	if m.ClassSection != nil && *m.ClassSection != "" {
		return m.ClassName + " - " + *m.ClassSection
	}
	return m.ClassName
}

type SubjectModel struct {
	SubjectID       uuid.UUID `gorm:"column:subject_id;type:uuid;default:gen_random_uuid();primaryKey" json:"subject_id"`
	SubjectSchoolID uuid.UUID `gorm:"column:subject_school_id;type:uuid;not null" json:"subject_school_id"`
	SubjectName     string    `gorm:"column:subject_name;type:varchar(120);not null" json:"subject_name"`
	SubjectCode     *string   `gorm:"column:subject_code;type:varchar(40)" json:"subject_code,omitempty"`

	SubjectCreatedAt time.Time `gorm:"column:subject_created_at;type:timestamptz;not null;autoCreateTime" json:"subject_created_at"`
	SubjectUpdatedAt time.Time `gorm:"column:subject_updated_at;type:timestamptz;not null;autoUpdateTime" json:"subject_updated_at"`
}

func (SubjectModel) TableName() string { return "subjects" }

// ClassSubjectModel: mapel yang diajarkan di kelas tertentu.
type ClassSubjectModel struct {
	ClassSubjectID        uuid.UUID `gorm:"column:class_subject_id;type:uuid;default:gen_random_uuid();primaryKey" json:"class_subject_id"`
	ClassSubjectSchoolID  uuid.UUID `gorm:"column:class_subject_school_id;type:uuid;not null" json:"class_subject_school_id"`
	ClassSubjectClassID   uuid.UUID `gorm:"column:class_subject_class_id;type:uuid;not null" json:"class_subject_class_id"`
	ClassSubjectSubjectID uuid.UUID `gorm:"column:class_subject_subject_id;type:uuid;not null" json:"class_subject_subject_id"`

	ClassSubjectCreatedAt time.Time `gorm:"column:class_subject_created_at;type:timestamptz;not null;autoCreateTime" json:"class_subject_created_at"`
}

func (ClassSubjectModel) TableName() string { return "class_subjects" }

type StudentModel struct {
	StudentID              uuid.UUID  `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`
	StudentSchoolID        uuid.UUID  `gorm:"column:student_school_id;type:uuid;not null" json:"student_school_id"`
	StudentSession         *string    `gorm:"column:student_session;type:varchar(40)" json:"student_session,omitempty"`
	StudentFullName        string     `gorm:"column:student_full_name;type:varchar(160);not null" json:"student_full_name"`
	StudentAdmissionNumber string     `gorm:"column:student_admission_number;type:varchar(60);not null" json:"student_admission_number"`
	StudentFatherName      *string    `gorm:"column:student_father_name;type:varchar(160)" json:"student_father_name,omitempty"`
	StudentClassID         *uuid.UUID `gorm:"column:student_class_id;type:uuid" json:"student_class_id,omitempty"`
	StudentIsActive        bool       `gorm:"column:student_is_active;not null;default:true" json:"student_is_active"`

	StudentCreatedAt time.Time `gorm:"column:student_created_at;type:timestamptz;not null;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt time.Time `gorm:"column:student_updated_at;type:timestamptz;not null;autoUpdateTime" json:"student_updated_at"`
}

func (StudentModel) TableName() string { return "students" }
