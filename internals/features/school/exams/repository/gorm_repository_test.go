package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	m "schoolku_backend/internals/features/school/exams/model"
)

// sqlLog menampung SQL hasil Explain (parameter sudah di-inline).
type sqlLog struct {
	stmts []string
}

func (l *sqlLog) LogMode(logger.LogLevel) logger.Interface { return l }
func (l *sqlLog) Info(context.Context, string, ...interface{}) {}
func (l *sqlLog) Warn(context.Context, string, ...interface{}) {}
func (l *sqlLog) Error(context.Context, string, ...interface{}) {}
func (l *sqlLog) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	l.stmts = append(l.stmts, sql)
}

func (l *sqlLog) first(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, l.stmts, "no SQL recorded")
	return l.stmts[0]
}

// dryRepo: dialect postgres asli, tanpa koneksi (DryRun hanya membangun SQL).
func dryRepo(t *testing.T) (*GormRepository, *sqlLog) {
	t.Helper()
	rec := &sqlLog{}
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=schoolku dbname=schoolku sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: rec})
	require.NoError(t, err)
	return NewGorm(db), rec
}

func TestGormListSubjectsForClassSQL(t *testing.T) {
	repo, rec := dryRepo(t)
	school, class := uuid.New(), uuid.New()

	// Scan butuh *sql.Rows, DryRun menolak setelah SQL dibangun
	_, err := repo.ListSubjectsForClass(context.Background(), school, class)
	assert.ErrorIs(t, err, gorm.ErrDryRunModeUnsupported)

	sql := rec.first(t)
	assert.Contains(t, sql, "SELECT s.* FROM subjects AS s")
	assert.Contains(t, sql, "JOIN class_subjects cs ON cs.class_subject_subject_id = s.subject_id")
	assert.Contains(t, sql, "s.subject_school_id = '"+school.String()+"'")
	assert.Contains(t, sql, "cs.class_subject_class_id = '"+class.String()+"'")
	assert.Contains(t, sql, "ORDER BY s.subject_name ASC")
}

func TestGormCreateSlipsSQL(t *testing.T) {
	repo, rec := dryRepo(t)
	ctx := context.Background()

	n, err := repo.CreateSlips(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, rec.stmts)

	school, ds, student := uuid.New(), uuid.New(), uuid.New()
	_, err = repo.CreateSlips(ctx, []m.ExamSlipModel{{
		ExamSlipSchoolID:    school,
		ExamSlipSession:     "2024",
		ExamSlipDatesheetID: ds,
		ExamSlipStudentID:   student,
		ExamSlipNumber:      "AC-2024-A001",
		ExamSlipType:        m.SlipAdmitCard,
		ExamSlipMetadata:    datatypes.NewJSONType(m.SlipMetadata{Source: m.SlipSourceCron}),
	}})
	require.NoError(t, err)

	sql := rec.first(t)
	assert.Contains(t, sql, `INSERT INTO "exam_slips"`)
	assert.Contains(t, sql, student.String())
	// duplikat (datesheet, student, type) dilewati, RowsAffected = yang benar-benar baru
	assert.Contains(t, sql, "ON CONFLICT DO NOTHING")
}

func TestGormListSlipStudentIDsSQL(t *testing.T) {
	repo, rec := dryRepo(t)
	school, ds := uuid.New(), uuid.New()

	ids, err := repo.ListSlipStudentIDs(context.Background(), school, ds, m.SlipAdmitCard)
	require.NoError(t, err)
	assert.Empty(t, ids)

	sql := rec.first(t)
	assert.Contains(t, sql, `SELECT "exam_slip_student_id" FROM "exam_slips"`)
	assert.Contains(t, sql, "exam_slip_school_id = '"+school.String()+"'")
	assert.Contains(t, sql, "exam_slip_datesheet_id = '"+ds.String()+"'")
	assert.Contains(t, sql, "exam_slip_type = 'admit_card'")
}

func TestGormListDatesheetsClassFilterSQL(t *testing.T) {
	repo, rec := dryRepo(t)
	school, class := uuid.New(), uuid.New()

	_, total, err := repo.ListDatesheets(context.Background(), DatesheetFilter{
		SchoolID: school,
		Session:  "2024",
		Q:        "mid",
		ClassID:  &class,
	})
	require.NoError(t, err)
	assert.Zero(t, total)

	// statement pertama = count(*) dengan WHERE yang sama dipakai Find
	sql := rec.first(t)
	assert.Contains(t, sql, `SELECT count(*) FROM "datesheets"`)
	assert.Contains(t, sql, "datesheet_school_id = '"+school.String()+"'")
	assert.Contains(t, sql, "datesheet_session = '2024'")
	assert.Contains(t, sql, "datesheet_title ILIKE '%mid%'")
	assert.Contains(t, sql, "'"+class.String()+"' = ANY(datesheet_class_ids)")
}

func TestGormListUpcomingDatesheetsSQL(t *testing.T) {
	repo, rec := dryRepo(t)
	from := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)

	_, err := repo.ListUpcomingDatesheets(context.Background(), from, from.AddDate(0, 0, 7))
	require.NoError(t, err)

	sql := rec.first(t)
	// jam dibuang sebelum dibandingkan dengan kolom DATE
	assert.Contains(t, sql, "datesheet_start_date BETWEEN '2024-03-01 00:00:00' AND '2024-03-08 00:00:00'")
	assert.Contains(t, sql, "ORDER BY datesheet_start_date ASC")
}
