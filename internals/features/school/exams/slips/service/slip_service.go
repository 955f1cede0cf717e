package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	acm "schoolku_backend/internals/features/school/academics/model"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	"schoolku_backend/internals/features/school/exams/slips/dto"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

const (
	WarnNoClass    = "Siswa belum terdaftar di class manapun"
	WarnNoSchedule = "Belum ada jadwal ujian untuk class ini"
	WarnNoStudents = "Tidak ada siswa aktif di class ini"
	WarnNoSlip     = "Slip belum dibuat untuk ujian ini"
)

type Service struct {
	Repo     repository.Repository
	Validate *validator.Validate
	Now      func() time.Time
}

func New(repo repository.Repository, v *validator.Validate) *Service {
	if v == nil {
		v = helper.NewValidator()
	}
	return &Service{Repo: repo, Validate: v, Now: time.Now}
}

func (s *Service) validate(req any) error {
	return helper.FromValidator(s.Validate.Struct(req))
}

// SlipNumber: "MID-TERM-A001" (judul datesheet + nomor induk).
func SlipNumber(title, admissionNo string) string {
	return helper.CodeFrom(title, 60) + "-" + strings.ToUpper(strings.TrimSpace(admissionNo))
}

func (s *Service) newSlip(ds m.DatesheetModel, st acm.StudentModel, classID *uuid.UUID, typ m.ExamSlipType, source string, by *uuid.UUID) m.ExamSlipModel {
	row := m.ExamSlipModel{
		ExamSlipSchoolID:    ds.DatesheetSchoolID,
		ExamSlipSession:     ds.DatesheetSession,
		ExamSlipDatesheetID: ds.DatesheetID,
		ExamSlipStudentID:   st.StudentID,
		ExamSlipClassID:     classID,
		ExamSlipNumber:      SlipNumber(ds.DatesheetTitle, st.StudentAdmissionNumber),
		ExamSlipType:        typ,
		ExamSlipMetadata: datatypes.NewJSONType(m.SlipMetadata{
			Source:        source,
			GeneratedBy:   by,
			GeneratedAt:   s.Now().UTC(),
			AdmissionNo:   st.StudentAdmissionNumber,
			DatesheetName: ds.DatesheetTitle,
		}),
	}
	row.EnsureID()
	return row
}

/* =========================
   Single student
   ========================= */

// GenerateSingle: class = class_id eksplisit → class siswa saat ini.
// Slip yang sudah ada untuk (datesheet, student, type) dipakai ulang.
func (s *Service) GenerateSingle(ctx context.Context, sc m.Scope, req dto.GenerateSlipRequest) (*dto.GenerateResult, error) {
	req.Normalize()
	if err := s.validate(req); err != nil {
		return nil, err
	}
	typ := m.ExamSlipType(req.SlipType)

	ds, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, uuid.MustParse(req.DatesheetID))
	if err != nil {
		return nil, err
	}
	st, err := s.Repo.GetStudent(ctx, sc.SchoolID, uuid.MustParse(req.StudentID))
	if err != nil {
		return nil, err
	}

	classID := st.StudentClassID
	if req.ClassID != "" {
		id := uuid.MustParse(req.ClassID)
		classID = &id
	}
	if classID == nil {
		return &dto.GenerateResult{Warning: WarnNoClass}, nil
	}
	if _, err := s.Repo.GetClass(ctx, sc.SchoolID, *classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.FieldError("class_id", "Class not found")
		}
		return nil, err
	}

	created := false
	slip, err := s.Repo.FindSlip(ctx, sc.SchoolID, ds.DatesheetID, st.StudentID, typ)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := s.newSlip(*ds, *st, classID, typ, m.SlipSourceSingle, sc.UserID)
		n, err := s.Repo.CreateSlips(ctx, []m.ExamSlipModel{row})
		if err != nil {
			return nil, err
		}
		created = n > 0
		// n == 0 → kalah balapan dengan request lain, ambil yang sudah ada
		if slip, err = s.Repo.FindSlip(ctx, sc.SchoolID, ds.DatesheetID, st.StudentID, typ); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	view, err := s.render(ctx, *slip, ds, st)
	if err != nil {
		return nil, err
	}
	out := &dto.GenerateResult{Created: created, View: view}
	if len(view.Schedule) == 0 {
		out.Warning = WarnNoSchedule
	}
	if created {
		log.Printf("[Slip.Single] ✅ %s student=%s type=%s", slip.ExamSlipNumber, st.StudentID, typ)
	}
	return out, nil
}

/* =========================
   Bulk per class
   ========================= */

// GenerateBulk: buat slip hanya untuk siswa class yang belum punya slip tipe tsb.
// Aman dipanggil ulang (panggilan kedua created = 0).
func (s *Service) GenerateBulk(ctx context.Context, sc m.Scope, req dto.BulkSlipRequest) (*dto.BulkResult, error) {
	req.Normalize()
	if err := s.validate(req); err != nil {
		return nil, err
	}
	ds, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, uuid.MustParse(req.DatesheetID))
	if err != nil {
		return nil, err
	}
	return s.bulk(ctx, *ds, uuid.MustParse(req.ClassID), m.ExamSlipType(req.SlipType), m.SlipSourceBulk, sc.UserID)
}

func (s *Service) bulk(ctx context.Context, ds m.DatesheetModel, classID uuid.UUID, typ m.ExamSlipType, source string, by *uuid.UUID) (*dto.BulkResult, error) {
	out := &dto.BulkResult{DatesheetID: ds.DatesheetID, ClassID: classID, SlipType: typ}

	if _, err := s.Repo.GetClass(ctx, ds.DatesheetSchoolID, classID); err != nil {
		return nil, err
	}
	students, err := s.Repo.ListStudentsByClass(ctx, ds.DatesheetSchoolID, classID, ds.DatesheetSession)
	if err != nil {
		return nil, err
	}
	out.Students = len(students)
	if len(students) == 0 {
		out.Warning = WarnNoStudents
		return out, nil
	}

	existing, err := s.Repo.ListSlipStudentIDs(ctx, ds.DatesheetSchoolID, ds.DatesheetID, typ)
	if err != nil {
		return nil, err
	}
	has := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}

	cid := classID
	rows := make([]m.ExamSlipModel, 0, len(students))
	for _, st := range students {
		if has[st.StudentID] {
			continue
		}
		rows = append(rows, s.newSlip(ds, st, &cid, typ, source, by))
	}
	if len(rows) > 0 {
		n, err := s.Repo.CreateSlips(ctx, rows)
		if err != nil {
			return nil, err
		}
		out.Created = int(n)
	}
	out.Skipped = out.Students - out.Created
	log.Printf("[Slip.Bulk] datesheet=%s class=%s type=%s created=%d skipped=%d",
		ds.DatesheetID, classID, typ, out.Created, out.Skipped)
	return out, nil
}

/* =========================
   Render & read
   ========================= */

// render: jadwal class slip (entry ber-subject saja), urut tanggal lalu jam.
// class = class slip → class siswa saat ini.
func (s *Service) render(ctx context.Context, slip m.ExamSlipModel, ds *m.DatesheetModel, st *acm.StudentModel) (*dto.SlipView, error) {
	var err error
	if ds == nil {
		if ds, err = s.Repo.GetDatesheet(ctx, slip.ExamSlipSchoolID, slip.ExamSlipDatesheetID); err != nil {
			return nil, err
		}
	}
	if st == nil {
		if st, err = s.Repo.GetStudent(ctx, slip.ExamSlipSchoolID, slip.ExamSlipStudentID); err != nil {
			return nil, err
		}
	}

	view := &dto.SlipView{
		Slip:      dto.FromSlipModel(slip),
		SlipLabel: slip.ExamSlipType.Label(),
		Student: dto.SlipStudent{
			StudentID:       st.StudentID,
			FullName:        st.StudentFullName,
			AdmissionNumber: st.StudentAdmissionNumber,
		},
		Datesheet: dto.SlipDatesheet{
			DatesheetID: ds.DatesheetID,
			Title:       ds.DatesheetTitle,
			Session:     ds.DatesheetSession,
			ExamCenter:  ds.DatesheetExamCenter,
		},
		Schedule: []dto.ScheduleRow{},
	}
	if st.StudentFatherName != nil {
		view.Student.FatherName = *st.StudentFatherName
	}

	classID := slip.ExamSlipClassID
	if classID == nil {
		classID = st.StudentClassID
	}
	if classID == nil {
		return view, nil
	}
	view.ClassID = classID
	if cls, err := s.Repo.GetClass(ctx, slip.ExamSlipSchoolID, *classID); err == nil {
		view.ClassName = cls.DisplayName()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entries, err := s.Repo.ListEntries(ctx, slip.ExamSlipSchoolID, ds.DatesheetID, []uuid.UUID{*classID})
	if err != nil {
		return nil, err
	}
	scheduled := make([]m.DatesheetEntryModel, 0, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.IsEmpty() {
			continue
		}
		scheduled = append(scheduled, e)
		ids = append(ids, *e.DatesheetEntrySubjectID)
	}
	if len(scheduled) == 0 {
		return view, nil
	}
	repository.SortEntries(scheduled)

	subjects, err := s.Repo.ListSubjects(ctx, slip.ExamSlipSchoolID, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(subjects))
	for _, sub := range subjects {
		names[sub.SubjectID] = sub.SubjectName
	}
	for _, e := range scheduled {
		view.Schedule = append(view.Schedule, dto.ScheduleRow{
			SubjectID:   *e.DatesheetEntrySubjectID,
			SubjectName: names[*e.DatesheetEntrySubjectID],
			ExamDate:    dbtime.FormatDate(e.DatesheetEntryExamDate),
			StartTime:   e.DatesheetEntryStartTime.String(),
			EndTime:     e.DatesheetEntryEndTime.String(),
			RoomNumber:  e.DatesheetEntryRoomNumber,
		})
	}
	return view, nil
}

func (s *Service) Render(ctx context.Context, sc m.Scope, id uuid.UUID) (*dto.SlipView, error) {
	slip, err := s.Repo.GetSlip(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, *slip, nil, nil)
}

func (s *Service) List(ctx context.Context, sc m.Scope, f repository.SlipFilter) ([]dto.SlipResponse, int64, error) {
	f.SchoolID = sc.SchoolID
	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, helper.FieldError("slip_type", "must be one of [roll_no_slip admit_card]")
	}
	rows, total, err := s.Repo.ListSlips(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return dto.FromSlipModels(rows), total, nil
}

// Mine: slip milik siswa yang login. Belum ada slip → nil (soft warning di controller).
func (s *Service) Mine(ctx context.Context, sc m.Scope, studentID, datesheetID uuid.UUID, typ m.ExamSlipType) (*dto.SlipView, error) {
	if typ == "" {
		typ = m.SlipAdmitCard
	}
	if !typ.Valid() {
		return nil, helper.FieldError("slip_type", "must be one of [roll_no_slip admit_card]")
	}
	slip, err := s.Repo.FindSlip(ctx, sc.SchoolID, datesheetID, studentID, typ)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.render(ctx, *slip, nil, nil)
}
