package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	acm "schoolku_backend/internals/features/school/academics/model"
	m "schoolku_backend/internals/features/school/exams/model"
)

type DatesheetFilter struct {
	SchoolID  uuid.UUID
	Session   string
	Q         string
	ClassID   *uuid.UUID
	StartFrom *time.Time // inklusif
	StartTo   *time.Time // inklusif
	Offset    int
	Limit     int // 0 = tanpa limit
}

type SlipFilter struct {
	SchoolID    uuid.UUID
	DatesheetID *uuid.UUID
	ClassID     *uuid.UUID
	StudentID   *uuid.UUID
	Type        m.ExamSlipType
	Offset      int
	Limit       int
}

// Repository: akses data modul ujian. Not-found selalu gorm.ErrRecordNotFound.
type Repository interface {
	// WithTx menjalankan fn dalam satu transaksi; error dari fn → rollback.
	WithTx(ctx context.Context, fn func(r Repository) error) error

	// academics (read-model)
	GetClass(ctx context.Context, schoolID, classID uuid.UUID) (*acm.ClassModel, error)
	ListClassesByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.ClassModel, error)
	ListSubjects(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.SubjectModel, error)
	ListSubjectsForClass(ctx context.Context, schoolID, classID uuid.UUID) ([]acm.SubjectModel, error)
	GetStudent(ctx context.Context, schoolID, studentID uuid.UUID) (*acm.StudentModel, error)
	ListStudentsByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.StudentModel, error)
	ListStudentsByClass(ctx context.Context, schoolID, classID uuid.UUID, session string) ([]acm.StudentModel, error)

	// datesheets
	CreateDatesheet(ctx context.Context, row *m.DatesheetModel) error
	SaveDatesheet(ctx context.Context, row *m.DatesheetModel) error
	GetDatesheet(ctx context.Context, schoolID, id uuid.UUID) (*m.DatesheetModel, error)
	ListDatesheets(ctx context.Context, f DatesheetFilter) ([]m.DatesheetModel, int64, error)
	DeleteDatesheet(ctx context.Context, schoolID, id uuid.UUID) error
	// ListUpcomingDatesheets lintas tenant (job terjadwal): start_date dalam [from, to].
	ListUpcomingDatesheets(ctx context.Context, from, to time.Time) ([]m.DatesheetModel, error)

	// entries
	CreateEntries(ctx context.Context, rows []m.DatesheetEntryModel) error
	GetEntry(ctx context.Context, schoolID, id uuid.UUID) (*m.DatesheetEntryModel, error)
	// ListEntries urut class, tanggal, jam mulai. classIDs kosong = semua class.
	ListEntries(ctx context.Context, schoolID, datesheetID uuid.UUID, classIDs []uuid.UUID) ([]m.DatesheetEntryModel, error)
	SaveEntry(ctx context.Context, row *m.DatesheetEntryModel) error
	UpdateEntryDate(ctx context.Context, schoolID, id uuid.UUID, date time.Time) error
	DeleteEntriesByDatesheet(ctx context.Context, schoolID, datesheetID uuid.UUID) (int64, error)
	DeleteEntriesByClass(ctx context.Context, schoolID, datesheetID, classID uuid.UUID) (int64, error)

	// slips
	// CreateSlips: ON CONFLICT (datesheet, student, type) DO NOTHING, return jumlah yang benar-benar masuk.
	CreateSlips(ctx context.Context, rows []m.ExamSlipModel) (int64, error)
	GetSlip(ctx context.Context, schoolID, id uuid.UUID) (*m.ExamSlipModel, error)
	FindSlip(ctx context.Context, schoolID, datesheetID, studentID uuid.UUID, typ m.ExamSlipType) (*m.ExamSlipModel, error)
	ListSlips(ctx context.Context, f SlipFilter) ([]m.ExamSlipModel, int64, error)
	ListSlipStudentIDs(ctx context.Context, schoolID, datesheetID uuid.UUID, typ m.ExamSlipType) ([]uuid.UUID, error)
}
