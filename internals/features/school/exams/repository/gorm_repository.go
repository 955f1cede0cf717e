package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	acm "schoolku_backend/internals/features/school/academics/model"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/helpers/dbtime"
)

type GormRepository struct {
	DB *gorm.DB
}

func NewGorm(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) db(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx)
}

func (r *GormRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{DB: tx})
	})
}

func affectedOrNotFound(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

/* =========================
   Academics (read-model)
   ========================= */

func (r *GormRepository) GetClass(ctx context.Context, schoolID, classID uuid.UUID) (*acm.ClassModel, error) {
	var row acm.ClassModel
	if err := r.db(ctx).
		Where("class_id = ? AND class_school_id = ?", classID, schoolID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepository) ListClassesByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.ClassModel, error) {
	rows := make([]acm.ClassModel, 0)
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db(ctx).
		Where("class_school_id = ? AND class_id IN ?", schoolID, ids).
		Order("class_name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormRepository) ListSubjects(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.SubjectModel, error) {
	rows := make([]acm.SubjectModel, 0)
	q := r.db(ctx).Where("subject_school_id = ?", schoolID)
	if ids != nil {
		if len(ids) == 0 {
			return rows, nil
		}
		q = q.Where("subject_id IN ?", ids)
	}
	err := q.Order("subject_name ASC").Find(&rows).Error
	return rows, err
}

func (r *GormRepository) ListSubjectsForClass(ctx context.Context, schoolID, classID uuid.UUID) ([]acm.SubjectModel, error) {
	rows := make([]acm.SubjectModel, 0)
	err := r.db(ctx).
		Table("subjects AS s").
		Select("s.*").
		Joins("JOIN class_subjects cs ON cs.class_subject_subject_id = s.subject_id").
		Where("s.subject_school_id = ? AND cs.class_subject_class_id = ?", schoolID, classID).
		Order("s.subject_name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *GormRepository) GetStudent(ctx context.Context, schoolID, studentID uuid.UUID) (*acm.StudentModel, error) {
	var row acm.StudentModel
	if err := r.db(ctx).
		Where("student_id = ? AND student_school_id = ?", studentID, schoolID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepository) ListStudentsByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.StudentModel, error) {
	rows := make([]acm.StudentModel, 0)
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.db(ctx).
		Where("student_school_id = ? AND student_id IN ?", schoolID, ids).
		Order("student_admission_number ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormRepository) ListStudentsByClass(ctx context.Context, schoolID, classID uuid.UUID, session string) ([]acm.StudentModel, error) {
	rows := make([]acm.StudentModel, 0)
	q := r.db(ctx).
		Where("student_school_id = ? AND student_class_id = ? AND student_is_active = TRUE", schoolID, classID)
	if s := strings.TrimSpace(session); s != "" {
		q = q.Where("(student_session IS NULL OR student_session = ?)", s)
	}
	err := q.Order("student_admission_number ASC").Find(&rows).Error
	return rows, err
}

/* =========================
   Datesheets
   ========================= */

func (r *GormRepository) CreateDatesheet(ctx context.Context, row *m.DatesheetModel) error {
	return r.db(ctx).Create(row).Error
}

func (r *GormRepository) SaveDatesheet(ctx context.Context, row *m.DatesheetModel) error {
	res := r.db(ctx).
		Model(&m.DatesheetModel{}).
		Where("datesheet_id = ? AND datesheet_school_id = ?", row.DatesheetID, row.DatesheetSchoolID).
		Updates(map[string]any{
			"datesheet_session":     row.DatesheetSession,
			"datesheet_title":       row.DatesheetTitle,
			"datesheet_start_date":  dbtime.DateOnly(row.DatesheetStartDate),
			"datesheet_exam_center": row.DatesheetExamCenter,
			"datesheet_class_ids":   row.DatesheetClassIDs,
			"datesheet_updated_at":  time.Now(),
		})
	return affectedOrNotFound(res)
}

func (r *GormRepository) GetDatesheet(ctx context.Context, schoolID, id uuid.UUID) (*m.DatesheetModel, error) {
	var row m.DatesheetModel
	if err := r.db(ctx).
		Where("datesheet_id = ? AND datesheet_school_id = ?", id, schoolID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepository) ListDatesheets(ctx context.Context, f DatesheetFilter) ([]m.DatesheetModel, int64, error) {
	q := r.db(ctx).Model(&m.DatesheetModel{}).Where("datesheet_school_id = ?", f.SchoolID)
	if s := strings.TrimSpace(f.Session); s != "" {
		q = q.Where("datesheet_session = ?", s)
	}
	if s := strings.TrimSpace(f.Q); s != "" {
		q = q.Where("datesheet_title ILIKE ?", "%"+s+"%")
	}
	if f.ClassID != nil {
		q = q.Where("? = ANY(datesheet_class_ids)", *f.ClassID)
	}
	if f.StartFrom != nil {
		q = q.Where("datesheet_start_date >= ?", dbtime.DateOnly(*f.StartFrom))
	}
	if f.StartTo != nil {
		q = q.Where("datesheet_start_date <= ?", dbtime.DateOnly(*f.StartTo))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]m.DatesheetModel, 0)
	q = q.Order("datesheet_start_date DESC").Order("datesheet_created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *GormRepository) ListUpcomingDatesheets(ctx context.Context, from, to time.Time) ([]m.DatesheetModel, error) {
	rows := make([]m.DatesheetModel, 0)
	err := r.db(ctx).
		Where("datesheet_start_date BETWEEN ? AND ?", dbtime.DateOnly(from), dbtime.DateOnly(to)).
		Order("datesheet_start_date ASC").
		Find(&rows).Error
	return rows, err
}

// DeleteDatesheet: entries & slips ikut terhapus via FK ON DELETE CASCADE.
func (r *GormRepository) DeleteDatesheet(ctx context.Context, schoolID, id uuid.UUID) error {
	res := r.db(ctx).
		Where("datesheet_id = ? AND datesheet_school_id = ?", id, schoolID).
		Delete(&m.DatesheetModel{})
	return affectedOrNotFound(res)
}

/* =========================
   Entries
   ========================= */

func (r *GormRepository) CreateEntries(ctx context.Context, rows []m.DatesheetEntryModel) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db(ctx).CreateInBatches(&rows, 200).Error
}

func (r *GormRepository) GetEntry(ctx context.Context, schoolID, id uuid.UUID) (*m.DatesheetEntryModel, error) {
	var row m.DatesheetEntryModel
	if err := r.db(ctx).
		Where("datesheet_entry_id = ? AND datesheet_entry_school_id = ?", id, schoolID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepository) ListEntries(ctx context.Context, schoolID, datesheetID uuid.UUID, classIDs []uuid.UUID) ([]m.DatesheetEntryModel, error) {
	rows := make([]m.DatesheetEntryModel, 0)
	q := r.db(ctx).
		Where("datesheet_entry_school_id = ? AND datesheet_entry_datesheet_id = ?", schoolID, datesheetID)
	if len(classIDs) > 0 {
		q = q.Where("datesheet_entry_class_id IN ?", classIDs)
	}
	err := q.
		Order("datesheet_entry_class_id ASC").
		Order("datesheet_entry_exam_date ASC").
		Order("datesheet_entry_start_time ASC").
		Order("datesheet_entry_created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *GormRepository) SaveEntry(ctx context.Context, row *m.DatesheetEntryModel) error {
	res := r.db(ctx).
		Model(&m.DatesheetEntryModel{}).
		Where("datesheet_entry_id = ? AND datesheet_entry_school_id = ?", row.DatesheetEntryID, row.DatesheetEntrySchoolID).
		Updates(map[string]any{
			"datesheet_entry_subject_id":  row.DatesheetEntrySubjectID,
			"datesheet_entry_exam_date":   dbtime.DateOnly(row.DatesheetEntryExamDate),
			"datesheet_entry_start_time":  row.DatesheetEntryStartTime,
			"datesheet_entry_end_time":    row.DatesheetEntryEndTime,
			"datesheet_entry_room_number": row.DatesheetEntryRoomNumber,
			"datesheet_entry_updated_at":  time.Now(),
		})
	return affectedOrNotFound(res)
}

func (r *GormRepository) UpdateEntryDate(ctx context.Context, schoolID, id uuid.UUID, date time.Time) error {
	res := r.db(ctx).
		Model(&m.DatesheetEntryModel{}).
		Where("datesheet_entry_id = ? AND datesheet_entry_school_id = ?", id, schoolID).
		Updates(map[string]any{
			"datesheet_entry_exam_date":  dbtime.DateOnly(date),
			"datesheet_entry_updated_at": time.Now(),
		})
	return affectedOrNotFound(res)
}

func (r *GormRepository) DeleteEntriesByDatesheet(ctx context.Context, schoolID, datesheetID uuid.UUID) (int64, error) {
	res := r.db(ctx).
		Where("datesheet_entry_school_id = ? AND datesheet_entry_datesheet_id = ?", schoolID, datesheetID).
		Delete(&m.DatesheetEntryModel{})
	return res.RowsAffected, res.Error
}

func (r *GormRepository) DeleteEntriesByClass(ctx context.Context, schoolID, datesheetID, classID uuid.UUID) (int64, error) {
	res := r.db(ctx).
		Where("datesheet_entry_school_id = ? AND datesheet_entry_datesheet_id = ? AND datesheet_entry_class_id = ?",
			schoolID, datesheetID, classID).
		Delete(&m.DatesheetEntryModel{})
	return res.RowsAffected, res.Error
}

/* =========================
   Slips
   ========================= */

func (r *GormRepository) CreateSlips(ctx context.Context, rows []m.ExamSlipModel) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	// idempotent insert (unique (datesheet, student, type))
	res := r.db(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	return res.RowsAffected, res.Error
}

func (r *GormRepository) GetSlip(ctx context.Context, schoolID, id uuid.UUID) (*m.ExamSlipModel, error) {
	var row m.ExamSlipModel
	if err := r.db(ctx).
		Where("exam_slip_id = ? AND exam_slip_school_id = ?", id, schoolID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepository) FindSlip(ctx context.Context, schoolID, datesheetID, studentID uuid.UUID, typ m.ExamSlipType) (*m.ExamSlipModel, error) {
	var row m.ExamSlipModel
	if err := r.db(ctx).
		Where("exam_slip_school_id = ? AND exam_slip_datesheet_id = ? AND exam_slip_student_id = ? AND exam_slip_type = ?",
			schoolID, datesheetID, studentID, typ).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *GormRepository) ListSlips(ctx context.Context, f SlipFilter) ([]m.ExamSlipModel, int64, error) {
	q := r.db(ctx).Model(&m.ExamSlipModel{}).Where("exam_slip_school_id = ?", f.SchoolID)
	if f.DatesheetID != nil {
		q = q.Where("exam_slip_datesheet_id = ?", *f.DatesheetID)
	}
	if f.ClassID != nil {
		q = q.Where("exam_slip_class_id = ?", *f.ClassID)
	}
	if f.StudentID != nil {
		q = q.Where("exam_slip_student_id = ?", *f.StudentID)
	}
	if f.Type != "" {
		q = q.Where("exam_slip_type = ?", f.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]m.ExamSlipModel, 0)
	q = q.Order("exam_slip_number ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *GormRepository) ListSlipStudentIDs(ctx context.Context, schoolID, datesheetID uuid.UUID, typ m.ExamSlipType) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	err := r.db(ctx).
		Model(&m.ExamSlipModel{}).
		Where("exam_slip_school_id = ? AND exam_slip_datesheet_id = ? AND exam_slip_type = ?", schoolID, datesheetID, typ).
		Pluck("exam_slip_student_id", &ids).Error
	return ids, err
}
