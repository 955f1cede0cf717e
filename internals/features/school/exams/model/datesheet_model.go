package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"schoolku_backend/internals/helpers/dbtime"
)

// Scope: tenant + aktor + sesi untuk setiap operasi ujian.
type Scope struct {
	SchoolID uuid.UUID
	UserID   *uuid.UUID
	Session  string
}

/* =========================================================
   Datesheet (jadwal ujian)
========================================================= */

type DatesheetModel struct {
	DatesheetID         uuid.UUID      `gorm:"column:datesheet_id;type:uuid;default:gen_random_uuid();primaryKey" json:"datesheet_id"`
	DatesheetSchoolID   uuid.UUID      `gorm:"column:datesheet_school_id;type:uuid;not null" json:"datesheet_school_id"`
	DatesheetSession    string         `gorm:"column:datesheet_session;type:varchar(40);not null" json:"datesheet_session"`
	DatesheetTitle      string         `gorm:"column:datesheet_title;type:varchar(200);not null" json:"datesheet_title"`
	DatesheetStartDate  time.Time      `gorm:"column:datesheet_start_date;type:date;not null" json:"datesheet_start_date"`
	DatesheetExamCenter string         `gorm:"column:datesheet_exam_center;type:varchar(160);not null;default:''" json:"datesheet_exam_center"`
	DatesheetClassIDs   pq.StringArray `gorm:"column:datesheet_class_ids;type:uuid[];not null" json:"datesheet_class_ids"`

	DatesheetCreatedByUserID *uuid.UUID `gorm:"column:datesheet_created_by_user_id;type:uuid" json:"datesheet_created_by_user_id,omitempty"`

	DatesheetCreatedAt time.Time `gorm:"column:datesheet_created_at;type:timestamptz;not null;autoCreateTime" json:"datesheet_created_at"`
	DatesheetUpdatedAt time.Time `gorm:"column:datesheet_updated_at;type:timestamptz;not null;autoUpdateTime" json:"datesheet_updated_at"`
}

func (DatesheetModel) TableName() string { return "datesheets" }

func (m *DatesheetModel) EnsureID() {
	if m.DatesheetID == uuid.Nil {
		m.DatesheetID = uuid.New()
	}
}

func (m *DatesheetModel) BeforeCreate(tx *gorm.DB) error {
	m.EnsureID()
	return nil
}

// ClassUUIDs: class_ids sebagai uuid (elemen invalid dibuang).
func (m DatesheetModel) ClassUUIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m.DatesheetClassIDs))
	for _, s := range m.DatesheetClassIDs {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (m DatesheetModel) HasClass(classID uuid.UUID) bool {
	for _, id := range m.ClassUUIDs() {
		if id == classID {
			return true
		}
	}
	return false
}

// SetClassIDs menyimpan set class (urutan pertama dipertahankan, duplikat dibuang).
func (m *DatesheetModel) SetClassIDs(ids []uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id.String())
	}
	m.DatesheetClassIDs = out
}

/* =========================================================
   Datesheet entry (slot ujian: class × subject × tanggal)
========================================================= */

type DatesheetEntryModel struct {
	DatesheetEntryID          uuid.UUID `gorm:"column:datesheet_entry_id;type:uuid;default:gen_random_uuid();primaryKey" json:"datesheet_entry_id"`
	DatesheetEntrySchoolID    uuid.UUID `gorm:"column:datesheet_entry_school_id;type:uuid;not null" json:"datesheet_entry_school_id"`
	DatesheetEntryDatesheetID uuid.UUID `gorm:"column:datesheet_entry_datesheet_id;type:uuid;not null" json:"datesheet_entry_datesheet_id"`
	DatesheetEntryClassID     uuid.UUID `gorm:"column:datesheet_entry_class_id;type:uuid;not null" json:"datesheet_entry_class_id"`
	// NULL = slot dipesan, subject belum dipilih
	DatesheetEntrySubjectID *uuid.UUID `gorm:"column:datesheet_entry_subject_id;type:uuid" json:"datesheet_entry_subject_id"`

	DatesheetEntryExamDate   time.Time  `gorm:"column:datesheet_entry_exam_date;type:date;not null" json:"datesheet_entry_exam_date"`
	DatesheetEntryStartTime  dbtime.Tod `gorm:"column:datesheet_entry_start_time;type:time;not null" json:"datesheet_entry_start_time"`
	DatesheetEntryEndTime    dbtime.Tod `gorm:"column:datesheet_entry_end_time;type:time;not null" json:"datesheet_entry_end_time"`
	DatesheetEntryRoomNumber string     `gorm:"column:datesheet_entry_room_number;type:varchar(160);not null;default:''" json:"datesheet_entry_room_number"`

	DatesheetEntryCreatedAt time.Time `gorm:"column:datesheet_entry_created_at;type:timestamptz;not null;autoCreateTime" json:"datesheet_entry_created_at"`
	DatesheetEntryUpdatedAt time.Time `gorm:"column:datesheet_entry_updated_at;type:timestamptz;not null;autoUpdateTime" json:"datesheet_entry_updated_at"`
}

func (DatesheetEntryModel) TableName() string { return "datesheet_entries" }

func (m *DatesheetEntryModel) EnsureID() {
	if m.DatesheetEntryID == uuid.Nil {
		m.DatesheetEntryID = uuid.New()
	}
}

func (m *DatesheetEntryModel) BeforeCreate(tx *gorm.DB) error {
	m.EnsureID()
	return nil
}

func (m DatesheetEntryModel) IsEmpty() bool {
	return m.DatesheetEntrySubjectID == nil || *m.DatesheetEntrySubjectID == uuid.Nil
}

func (m DatesheetEntryModel) HoldsSubject(subjectID uuid.UUID) bool {
	return !m.IsEmpty() && *m.DatesheetEntrySubjectID == subjectID
}

// Clone: deep copy (pointer subject ikut disalin).
func (m DatesheetEntryModel) Clone() DatesheetEntryModel {
	cp := m
	if m.DatesheetEntrySubjectID != nil {
		id := *m.DatesheetEntrySubjectID
		cp.DatesheetEntrySubjectID = &id
	}
	return cp
}
