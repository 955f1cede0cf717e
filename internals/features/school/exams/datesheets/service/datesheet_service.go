package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	acm "schoolku_backend/internals/features/school/academics/model"
	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	"schoolku_backend/internals/features/school/exams/datesheets/grid"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
	helperOSS "schoolku_backend/internals/helpers/oss"
)

/* =========================
   Service & Constructor
   ========================= */

type Service struct {
	Repo      repository.Repository
	Validate  *validator.Validate
	Publisher helperOSS.Publisher // optional, untuk publish export
}

func New(repo repository.Repository, v *validator.Validate) *Service {
	if v == nil {
		v = helper.NewValidator()
	}
	return &Service{Repo: repo, Validate: v}
}

func (s *Service) validate(req any) error {
	return helper.FromValidator(s.Validate.Struct(req))
}

/* =========================
   Form → model
   ========================= */

// buildFromForm: validasi form (struktur + referensi class/subject) lalu susun model.
// Tidak ada write ke storage di sini.
func (s *Service) buildFromForm(ctx context.Context, sc m.Scope, req dto.DatesheetForm) (*m.DatesheetModel, []m.DatesheetEntryModel, error) {
	if err := s.validate(req); err != nil {
		return nil, nil, err
	}
	classID := uuid.MustParse(req.ClassID)

	session := req.Session
	if session == "" {
		session = sc.Session
	}
	if session == "" {
		return nil, nil, helper.FieldError("session", "is required")
	}

	entries, err := dto.ToEntries(sc.SchoolID, classID, req.ExamCenter, req.Entries)
	if err != nil {
		return nil, nil, err
	}

	classIDs := []uuid.UUID{classID}
	for _, e := range entries {
		classIDs = append(classIDs, e.DatesheetEntryClassID)
	}
	ds := &m.DatesheetModel{
		DatesheetSchoolID:   sc.SchoolID,
		DatesheetSession:    session,
		DatesheetTitle:      req.Title,
		DatesheetExamCenter: req.ExamCenter,
	}
	ds.SetClassIDs(classIDs)

	if req.StartDate != "" {
		ds.DatesheetStartDate, _ = dbtime.ParseDate(req.StartDate)
	} else {
		ds.DatesheetStartDate = earliestDate(entries)
	}

	if err := s.checkReferences(ctx, sc.SchoolID, ds.ClassUUIDs(), entries); err != nil {
		return nil, nil, err
	}
	return ds, entries, nil
}

func earliestDate(entries []m.DatesheetEntryModel) time.Time {
	var first time.Time
	for _, e := range entries {
		if first.IsZero() || e.DatesheetEntryExamDate.Before(first) {
			first = e.DatesheetEntryExamDate
		}
	}
	return dbtime.DateOnly(first)
}

// checkReferences: class & subject harus milik sekolah yang sama.
func (s *Service) checkReferences(ctx context.Context, schoolID uuid.UUID, classIDs []uuid.UUID, entries []m.DatesheetEntryModel) error {
	classes, err := s.Repo.ListClassesByIDs(ctx, schoolID, classIDs)
	if err != nil {
		return err
	}
	known := map[uuid.UUID]bool{}
	for _, c := range classes {
		known[c.ClassID] = true
	}
	ve := helper.NewValidationError()
	for _, id := range classIDs {
		if !known[id] {
			ve.Add("class_id", fmt.Sprintf("Class %s not found", id))
		}
	}

	subjectIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if !e.IsEmpty() {
			subjectIDs = append(subjectIDs, *e.DatesheetEntrySubjectID)
		}
	}
	subjects, err := s.Repo.ListSubjects(ctx, schoolID, subjectIDs)
	if err != nil {
		return err
	}
	names := dto.NamesOf(subjects)
	for i, e := range entries {
		if e.IsEmpty() {
			continue
		}
		if _, ok := names[*e.DatesheetEntrySubjectID]; !ok {
			ve.Add(fmt.Sprintf("entries[%d].subject_id", i), "Subject not found")
		}
	}
	return ve.OrNil()
}

func attachDatesheet(entries []m.DatesheetEntryModel, datesheetID uuid.UUID) {
	for i := range entries {
		entries[i].DatesheetEntryDatesheetID = datesheetID
	}
}

/* =========================
   Create / Get / List / Edit / Delete
   ========================= */

// Create: datesheet + entries dalam satu transaksi.
func (s *Service) Create(ctx context.Context, sc m.Scope, req dto.DatesheetForm) (*dto.DatesheetDetail, error) {
	req.Normalize()
	ds, entries, err := s.buildFromForm(ctx, sc, req)
	if err != nil {
		return nil, err
	}
	ds.DatesheetCreatedByUserID = sc.UserID

	err = s.Repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateDatesheet(ctx, ds); err != nil {
			return err
		}
		attachDatesheet(entries, ds.DatesheetID)
		return tx.CreateEntries(ctx, entries)
	})
	if err != nil {
		log.Printf("[Datesheet.Create] school=%s tx error: %v", sc.SchoolID, err)
		return nil, err
	}
	log.Printf("[Datesheet.Create] ✅ %s (%d entries)", ds.DatesheetID, len(entries))
	return s.Get(ctx, sc, ds.DatesheetID)
}

func (s *Service) Get(ctx context.Context, sc m.Scope, id uuid.UUID) (*dto.DatesheetDetail, error) {
	ds, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.Repo.ListEntries(ctx, sc.SchoolID, id, nil)
	if err != nil {
		return nil, err
	}
	names, err := s.namesFor(ctx, sc.SchoolID, entries)
	if err != nil {
		return nil, err
	}
	return &dto.DatesheetDetail{
		Datesheet: dto.FromDatesheetModel(*ds),
		Entries:   dto.FromEntryModels(entries, names),
		Form:      dto.FormFrom(*ds, entries, names),
	}, nil
}

func (s *Service) List(ctx context.Context, sc m.Scope, f repository.DatesheetFilter) ([]dto.DatesheetResponse, int64, error) {
	f.SchoolID = sc.SchoolID
	rows, total, err := s.Repo.ListDatesheets(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return dto.FromDatesheetModels(rows), total, nil
}

// Edit: update scalar + replace entries secara utuh (delete-all + reinsert) dalam satu transaksi.
func (s *Service) Edit(ctx context.Context, sc m.Scope, id uuid.UUID, req dto.DatesheetForm) (*dto.DatesheetDetail, error) {
	cur, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	req.Normalize()
	if req.Session == "" {
		req.Session = cur.DatesheetSession
	}
	next, entries, err := s.buildFromForm(ctx, sc, req)
	if err != nil {
		return nil, err
	}
	next.DatesheetID = cur.DatesheetID
	next.DatesheetCreatedByUserID = cur.DatesheetCreatedByUserID

	var removed int64
	err = s.Repo.WithTx(ctx, func(tx repository.Repository) error {
		if err := tx.SaveDatesheet(ctx, next); err != nil {
			return err
		}
		n, err := tx.DeleteEntriesByDatesheet(ctx, sc.SchoolID, id)
		if err != nil {
			return err
		}
		removed = n
		attachDatesheet(entries, id)
		return tx.CreateEntries(ctx, entries)
	})
	if err != nil {
		log.Printf("[Datesheet.Edit] %s tx error: %v", id, err)
		return nil, err
	}
	log.Printf("[Datesheet.Edit] ✅ %s replaced %d → %d entries", id, removed, len(entries))
	return s.Get(ctx, sc, id)
}

// Delete: entries & slips ikut terhapus lewat cascade di storage.
func (s *Service) Delete(ctx context.Context, sc m.Scope, id uuid.UUID) error {
	if err := s.Repo.DeleteDatesheet(ctx, sc.SchoolID, id); err != nil {
		return err
	}
	log.Printf("[Datesheet.Delete] 🗑️ %s", id)
	return nil
}

/* =========================
   Grid view
   ========================= */

func (s *Service) Grid(ctx context.Context, sc m.Scope, id uuid.UUID, classIDs []uuid.UUID) (*dto.GridResponse, error) {
	ds, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	return s.buildGrid(ctx, *ds, classIDs)
}

func (s *Service) buildGrid(ctx context.Context, ds m.DatesheetModel, only []uuid.UUID) (*dto.GridResponse, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range only {
		want[id] = true
	}
	classIDs := make([]uuid.UUID, 0)
	for _, id := range ds.ClassUUIDs() {
		if len(want) == 0 || want[id] {
			classIDs = append(classIDs, id)
		}
	}

	out := &dto.GridResponse{
		DatesheetID: ds.DatesheetID,
		Title:       ds.DatesheetTitle,
		Dates:       []string{},
		Rows:        []dto.GridRow{},
	}
	if len(classIDs) == 0 {
		return out, nil
	}

	entries, err := s.Repo.ListEntries(ctx, ds.DatesheetSchoolID, ds.DatesheetID, classIDs)
	if err != nil {
		return nil, err
	}
	classes, err := s.Repo.ListClassesByIDs(ctx, ds.DatesheetSchoolID, classIDs)
	if err != nil {
		return nil, err
	}
	names, err := s.namesFor(ctx, ds.DatesheetSchoolID, entries)
	if err != nil {
		return nil, err
	}
	classNames := map[uuid.UUID]string{}
	for _, c := range classes {
		classNames[c.ClassID] = c.DisplayName()
	}

	g := grid.New(entries)
	dates := g.Dates()
	for _, d := range dates {
		out.Dates = append(out.Dates, dbtime.FormatDate(d))
	}
	out.MaxSubjectCount = g.MaxSubjectCount()

	for _, cid := range classIDs {
		row := dto.GridRow{ClassID: cid, ClassName: classNames[cid], Cells: make([]dto.GridCell, 0, len(dates))}
		for _, d := range dates {
			cell := dto.GridCell{Date: dbtime.FormatDate(d), Entries: []dto.EntryResponse{}}
			for _, e := range entries {
				if e.DatesheetEntryClassID == cid && dbtime.SameDate(e.DatesheetEntryExamDate, d) {
					cell.Entries = append(cell.Entries, dto.FromEntryModel(e, names))
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

/* =========================
   Class blocks
   ========================= */

// AddClassBlock: tambah class + entries-nya ke datesheet yang sudah ada.
func (s *Service) AddClassBlock(ctx context.Context, sc m.Scope, id uuid.UUID, req dto.ClassBlockRequest) (*dto.DatesheetDetail, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	classID := uuid.MustParse(req.ClassID)

	ds, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	if ds.HasClass(classID) {
		return nil, fiber.NewError(fiber.StatusConflict, "Class sudah ada di datesheet ini")
	}

	form := dto.DatesheetForm{Entries: req.Entries}
	form.Normalize()
	for i := range form.Entries {
		form.Entries[i].ClassID = ""
	}
	entries, err := dto.ToEntries(sc.SchoolID, classID, ds.DatesheetExamCenter, form.Entries)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, sc.SchoolID, []uuid.UUID{classID}, entries); err != nil {
		return nil, err
	}

	ds.SetClassIDs(append(ds.ClassUUIDs(), classID))
	err = s.Repo.WithTx(ctx, func(tx repository.Repository) error {
		attachDatesheet(entries, id)
		if err := tx.CreateEntries(ctx, entries); err != nil {
			return err
		}
		return tx.SaveDatesheet(ctx, ds)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sc, id)
}

// DeleteClassBlock: hapus semua entry class tsb & keluarkan class dari datesheet.
func (s *Service) DeleteClassBlock(ctx context.Context, sc m.Scope, id, classID uuid.UUID) (*dto.ClassBlockDeleted, error) {
	ds, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	if !ds.HasClass(classID) {
		return nil, errClassMissing
	}

	remaining := make([]uuid.UUID, 0)
	for _, cid := range ds.ClassUUIDs() {
		if cid != classID {
			remaining = append(remaining, cid)
		}
	}
	ds.SetClassIDs(remaining)

	var n int64
	err = s.Repo.WithTx(ctx, func(tx repository.Repository) error {
		var err error
		if n, err = tx.DeleteEntriesByClass(ctx, sc.SchoolID, id, classID); err != nil {
			return err
		}
		return tx.SaveDatesheet(ctx, ds)
	})
	if err != nil {
		return nil, err
	}

	g, err := s.buildGrid(ctx, *ds, nil)
	if err != nil {
		return nil, err
	}
	return &dto.ClassBlockDeleted{DatesheetID: id, ClassID: classID, DeletedEntries: n, Grid: g}, nil
}

/* =========================
   Lookups
   ========================= */

func (s *Service) namesFor(ctx context.Context, schoolID uuid.UUID, entries []m.DatesheetEntryModel) (dto.SubjectNames, error) {
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if !e.IsEmpty() {
			ids = append(ids, *e.DatesheetEntrySubjectID)
		}
	}
	subjects, err := s.Repo.ListSubjects(ctx, schoolID, ids)
	if err != nil {
		return nil, err
	}
	return dto.NamesOf(subjects), nil
}

// candidates: subject yang terhubung ke class; bila class belum punya relasi → semua subject sekolah.
func (s *Service) candidates(ctx context.Context, schoolID uuid.UUID, classID *uuid.UUID) ([]acm.SubjectModel, error) {
	if classID != nil && *classID != uuid.Nil {
		rows, err := s.Repo.ListSubjectsForClass(ctx, schoolID, *classID)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return s.Repo.ListSubjects(ctx, schoolID, nil)
}
