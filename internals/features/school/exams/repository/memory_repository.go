package repository

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	acm "schoolku_backend/internals/features/school/academics/model"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/helpers/dbtime"
)

// memPGError meniru error Postgres (SQLState) supaya helper.MapPGError tetap berlaku.
type memPGError struct {
	code string
	msg  string
}

func (e *memPGError) Error() string    { return e.msg }
func (e *memPGError) SQLState() string { return e.code }

func uniqueViolation(msg string) error { return &memPGError{code: "23505", msg: msg} }
func fkViolation(msg string) error     { return &memPGError{code: "23503", msg: msg} }
func checkViolation(msg string) error  { return &memPGError{code: "23514", msg: msg} }

type memState struct {
	classes       map[uuid.UUID]acm.ClassModel
	subjects      map[uuid.UUID]acm.SubjectModel
	classSubjects []acm.ClassSubjectModel
	students      map[uuid.UUID]acm.StudentModel
	datesheets    map[uuid.UUID]m.DatesheetModel
	entries       map[uuid.UUID]m.DatesheetEntryModel
	slips         map[uuid.UUID]m.ExamSlipModel
}

func newMemState() *memState {
	return &memState{
		classes:    map[uuid.UUID]acm.ClassModel{},
		subjects:   map[uuid.UUID]acm.SubjectModel{},
		students:   map[uuid.UUID]acm.StudentModel{},
		datesheets: map[uuid.UUID]m.DatesheetModel{},
		entries:    map[uuid.UUID]m.DatesheetEntryModel{},
		slips:      map[uuid.UUID]m.ExamSlipModel{},
	}
}

func (s *memState) clone() *memState {
	cp := newMemState()
	for k, v := range s.classes {
		cp.classes[k] = v
	}
	for k, v := range s.subjects {
		cp.subjects[k] = v
	}
	cp.classSubjects = append([]acm.ClassSubjectModel(nil), s.classSubjects...)
	for k, v := range s.students {
		cp.students[k] = v
	}
	for k, v := range s.datesheets {
		cp.datesheets[k] = cloneDatesheet(v)
	}
	for k, v := range s.entries {
		cp.entries[k] = v.Clone()
	}
	for k, v := range s.slips {
		cp.slips[k] = v
	}
	return cp
}

func cloneDatesheet(d m.DatesheetModel) m.DatesheetModel {
	d.DatesheetClassIDs = append(pq.StringArray(nil), d.DatesheetClassIDs...)
	return d
}

// MemoryRepository: implementasi in-memory (STORE=memory & test).
// Tulis di luar transaksi menunggu transaksi yang sedang jalan selesai.
type MemoryRepository struct {
	mu   *sync.RWMutex
	txMu *sync.Mutex
	st   **memState
	inTx bool
}

func NewMemory() *MemoryRepository {
	st := newMemState()
	return &MemoryRepository{
		mu:   &sync.RWMutex{},
		txMu: &sync.Mutex{},
		st:   &st,
	}
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	snapshot := (*r.st).clone()
	r.mu.RUnlock()

	view := &MemoryRepository{mu: r.mu, txMu: r.txMu, st: r.st, inTx: true}
	if err := fn(view); err != nil {
		r.mu.Lock()
		*r.st = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *MemoryRepository) read(fn func(s *memState) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn(*r.st)
}

func (r *MemoryRepository) write(ctx context.Context, fn func(s *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.inTx {
		r.txMu.Lock()
		defer r.txMu.Unlock()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(*r.st)
}

/* =========================
   Seeding (dev & test)
   ========================= */

func (r *MemoryRepository) AddClass(row acm.ClassModel) acm.ClassModel {
	if row.ClassID == uuid.Nil {
		row.ClassID = uuid.New()
	}
	now := time.Now()
	row.ClassCreatedAt, row.ClassUpdatedAt = now, now
	_ = r.write(context.Background(), func(s *memState) error {
		s.classes[row.ClassID] = row
		return nil
	})
	return row
}

func (r *MemoryRepository) AddSubject(row acm.SubjectModel) acm.SubjectModel {
	if row.SubjectID == uuid.Nil {
		row.SubjectID = uuid.New()
	}
	now := time.Now()
	row.SubjectCreatedAt, row.SubjectUpdatedAt = now, now
	_ = r.write(context.Background(), func(s *memState) error {
		s.subjects[row.SubjectID] = row
		return nil
	})
	return row
}

func (r *MemoryRepository) LinkSubject(schoolID, classID, subjectID uuid.UUID) {
	_ = r.write(context.Background(), func(s *memState) error {
		s.classSubjects = append(s.classSubjects, acm.ClassSubjectModel{
			ClassSubjectID:        uuid.New(),
			ClassSubjectSchoolID:  schoolID,
			ClassSubjectClassID:   classID,
			ClassSubjectSubjectID: subjectID,
			ClassSubjectCreatedAt: time.Now(),
		})
		return nil
	})
}

func (r *MemoryRepository) AddStudent(row acm.StudentModel) acm.StudentModel {
	if row.StudentID == uuid.Nil {
		row.StudentID = uuid.New()
	}
	now := time.Now()
	row.StudentCreatedAt, row.StudentUpdatedAt = now, now
	_ = r.write(context.Background(), func(s *memState) error {
		s.students[row.StudentID] = row
		return nil
	})
	return row
}

/* =========================
   Academics
   ========================= */

func (r *MemoryRepository) GetClass(ctx context.Context, schoolID, classID uuid.UUID) (*acm.ClassModel, error) {
	var out *acm.ClassModel
	err := r.read(func(s *memState) error {
		row, ok := s.classes[classID]
		if !ok || row.ClassSchoolID != schoolID {
			return gorm.ErrRecordNotFound
		}
		out = &row
		return nil
	})
	return out, err
}

func (r *MemoryRepository) ListClassesByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.ClassModel, error) {
	out := make([]acm.ClassModel, 0, len(ids))
	_ = r.read(func(s *memState) error {
		for _, id := range dedupUUIDs(ids) {
			if row, ok := s.classes[id]; ok && row.ClassSchoolID == schoolID {
				out = append(out, row)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out, nil
}

func (r *MemoryRepository) ListSubjects(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.SubjectModel, error) {
	out := make([]acm.SubjectModel, 0)
	_ = r.read(func(s *memState) error {
		if ids == nil {
			for _, row := range s.subjects {
				if row.SubjectSchoolID == schoolID {
					out = append(out, row)
				}
			}
			return nil
		}
		for _, id := range dedupUUIDs(ids) {
			if row, ok := s.subjects[id]; ok && row.SubjectSchoolID == schoolID {
				out = append(out, row)
			}
		}
		return nil
	})
	sortSubjects(out)
	return out, nil
}

func (r *MemoryRepository) ListSubjectsForClass(ctx context.Context, schoolID, classID uuid.UUID) ([]acm.SubjectModel, error) {
	out := make([]acm.SubjectModel, 0)
	_ = r.read(func(s *memState) error {
		seen := map[uuid.UUID]bool{}
		for _, cs := range s.classSubjects {
			if cs.ClassSubjectSchoolID != schoolID || cs.ClassSubjectClassID != classID || seen[cs.ClassSubjectSubjectID] {
				continue
			}
			if row, ok := s.subjects[cs.ClassSubjectSubjectID]; ok {
				seen[row.SubjectID] = true
				out = append(out, row)
			}
		}
		return nil
	})
	sortSubjects(out)
	return out, nil
}

func (r *MemoryRepository) GetStudent(ctx context.Context, schoolID, studentID uuid.UUID) (*acm.StudentModel, error) {
	var out *acm.StudentModel
	err := r.read(func(s *memState) error {
		row, ok := s.students[studentID]
		if !ok || row.StudentSchoolID != schoolID {
			return gorm.ErrRecordNotFound
		}
		out = &row
		return nil
	})
	return out, err
}

func (r *MemoryRepository) ListStudentsByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]acm.StudentModel, error) {
	out := make([]acm.StudentModel, 0, len(ids))
	_ = r.read(func(s *memState) error {
		for _, id := range dedupUUIDs(ids) {
			if row, ok := s.students[id]; ok && row.StudentSchoolID == schoolID {
				out = append(out, row)
			}
		}
		return nil
	})
	sortStudents(out)
	return out, nil
}

func (r *MemoryRepository) ListStudentsByClass(ctx context.Context, schoolID, classID uuid.UUID, session string) ([]acm.StudentModel, error) {
	session = strings.TrimSpace(session)
	out := make([]acm.StudentModel, 0)
	_ = r.read(func(s *memState) error {
		for _, row := range s.students {
			if row.StudentSchoolID != schoolID || !row.StudentIsActive {
				continue
			}
			if row.StudentClassID == nil || *row.StudentClassID != classID {
				continue
			}
			if session != "" && row.StudentSession != nil && *row.StudentSession != session {
				continue
			}
			out = append(out, row)
		}
		return nil
	})
	sortStudents(out)
	return out, nil
}

/* =========================
   Datesheets
   ========================= */

func (r *MemoryRepository) CreateDatesheet(ctx context.Context, row *m.DatesheetModel) error {
	row.EnsureID()
	return r.write(ctx, func(s *memState) error {
		if _, dup := s.datesheets[row.DatesheetID]; dup {
			return uniqueViolation("duplicate datesheet_id")
		}
		now := time.Now()
		row.DatesheetStartDate = dbtime.DateOnly(row.DatesheetStartDate)
		row.DatesheetCreatedAt, row.DatesheetUpdatedAt = now, now
		s.datesheets[row.DatesheetID] = cloneDatesheet(*row)
		return nil
	})
}

func (r *MemoryRepository) SaveDatesheet(ctx context.Context, row *m.DatesheetModel) error {
	return r.write(ctx, func(s *memState) error {
		cur, ok := s.datesheets[row.DatesheetID]
		if !ok || cur.DatesheetSchoolID != row.DatesheetSchoolID {
			return gorm.ErrRecordNotFound
		}
		cur.DatesheetSession = row.DatesheetSession
		cur.DatesheetTitle = row.DatesheetTitle
		cur.DatesheetStartDate = dbtime.DateOnly(row.DatesheetStartDate)
		cur.DatesheetExamCenter = row.DatesheetExamCenter
		cur.DatesheetClassIDs = append(pq.StringArray(nil), row.DatesheetClassIDs...)
		cur.DatesheetUpdatedAt = time.Now()
		s.datesheets[cur.DatesheetID] = cur
		row.DatesheetUpdatedAt = cur.DatesheetUpdatedAt
		return nil
	})
}

func (r *MemoryRepository) GetDatesheet(ctx context.Context, schoolID, id uuid.UUID) (*m.DatesheetModel, error) {
	var out *m.DatesheetModel
	err := r.read(func(s *memState) error {
		row, ok := s.datesheets[id]
		if !ok || row.DatesheetSchoolID != schoolID {
			return gorm.ErrRecordNotFound
		}
		cp := cloneDatesheet(row)
		out = &cp
		return nil
	})
	return out, err
}

func (r *MemoryRepository) ListDatesheets(ctx context.Context, f DatesheetFilter) ([]m.DatesheetModel, int64, error) {
	q := strings.ToLower(strings.TrimSpace(f.Q))
	session := strings.TrimSpace(f.Session)
	all := make([]m.DatesheetModel, 0)
	_ = r.read(func(s *memState) error {
		for _, row := range s.datesheets {
			if row.DatesheetSchoolID != f.SchoolID {
				continue
			}
			if session != "" && row.DatesheetSession != session {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(row.DatesheetTitle), q) {
				continue
			}
			if f.ClassID != nil && !row.HasClass(*f.ClassID) {
				continue
			}
			if f.StartFrom != nil && row.DatesheetStartDate.Before(dbtime.DateOnly(*f.StartFrom)) {
				continue
			}
			if f.StartTo != nil && row.DatesheetStartDate.After(dbtime.DateOnly(*f.StartTo)) {
				continue
			}
			all = append(all, cloneDatesheet(row))
		}
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.DatesheetStartDate.Equal(b.DatesheetStartDate) {
			return a.DatesheetStartDate.After(b.DatesheetStartDate)
		}
		return a.DatesheetCreatedAt.After(b.DatesheetCreatedAt)
	})
	total := int64(len(all))
	return paginate(all, f.Offset, f.Limit), total, nil
}

func (r *MemoryRepository) ListUpcomingDatesheets(ctx context.Context, from, to time.Time) ([]m.DatesheetModel, error) {
	lo, hi := dbtime.DateOnly(from), dbtime.DateOnly(to)
	out := make([]m.DatesheetModel, 0)
	_ = r.read(func(s *memState) error {
		for _, row := range s.datesheets {
			d := dbtime.DateOnly(row.DatesheetStartDate)
			if d.Before(lo) || d.After(hi) {
				continue
			}
			out = append(out, cloneDatesheet(row))
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DatesheetStartDate.Before(out[j].DatesheetStartDate) })
	return out, nil
}

// DeleteDatesheet: cascade ke entries & slips (setara FK ON DELETE CASCADE).
func (r *MemoryRepository) DeleteDatesheet(ctx context.Context, schoolID, id uuid.UUID) error {
	return r.write(ctx, func(s *memState) error {
		row, ok := s.datesheets[id]
		if !ok || row.DatesheetSchoolID != schoolID {
			return gorm.ErrRecordNotFound
		}
		delete(s.datesheets, id)
		for k, e := range s.entries {
			if e.DatesheetEntryDatesheetID == id {
				delete(s.entries, k)
			}
		}
		for k, sl := range s.slips {
			if sl.ExamSlipDatesheetID == id {
				delete(s.slips, k)
			}
		}
		return nil
	})
}

/* =========================
   Entries
   ========================= */

// subjectTaken: cek partial unique index (datesheet, class, subject) WHERE subject IS NOT NULL.
func (s *memState) subjectTaken(e m.DatesheetEntryModel) bool {
	if e.IsEmpty() {
		return false
	}
	for id, other := range s.entries {
		if id == e.DatesheetEntryID {
			continue
		}
		if other.DatesheetEntryDatesheetID == e.DatesheetEntryDatesheetID &&
			other.DatesheetEntryClassID == e.DatesheetEntryClassID &&
			other.HoldsSubject(*e.DatesheetEntrySubjectID) {
			return true
		}
	}
	return false
}

func validEntryTimes(e m.DatesheetEntryModel) bool {
	return e.DatesheetEntryEndTime.Minutes() > e.DatesheetEntryStartTime.Minutes()
}

func (r *MemoryRepository) CreateEntries(ctx context.Context, rows []m.DatesheetEntryModel) error {
	if len(rows) == 0 {
		return nil
	}
	return r.write(ctx, func(s *memState) error {
		// validasi dulu supaya batch atomik
		staged := make(map[uuid.UUID]m.DatesheetEntryModel, len(rows))
		now := time.Now()
		for i := range rows {
			rows[i].EnsureID()
			e := rows[i].Clone()
			ds, ok := s.datesheets[e.DatesheetEntryDatesheetID]
			if !ok || ds.DatesheetSchoolID != e.DatesheetEntrySchoolID {
				return fkViolation("datesheet_entries_datesheet_id_fkey")
			}
			if !validEntryTimes(e) {
				return checkViolation("datesheet_entries end_time must be after start_time")
			}
			if _, dup := s.entries[e.DatesheetEntryID]; dup {
				return uniqueViolation("duplicate datesheet_entry_id")
			}
			if s.subjectTaken(e) {
				return uniqueViolation("uq_datesheet_entries_class_subject")
			}
			for _, prev := range staged {
				if prev.DatesheetEntryDatesheetID == e.DatesheetEntryDatesheetID &&
					prev.DatesheetEntryClassID == e.DatesheetEntryClassID &&
					!e.IsEmpty() && prev.HoldsSubject(*e.DatesheetEntrySubjectID) {
					return uniqueViolation("uq_datesheet_entries_class_subject")
				}
			}
			e.DatesheetEntryExamDate = dbtime.DateOnly(e.DatesheetEntryExamDate)
			e.DatesheetEntryCreatedAt, e.DatesheetEntryUpdatedAt = now, now
			staged[e.DatesheetEntryID] = e
			rows[i].DatesheetEntryCreatedAt, rows[i].DatesheetEntryUpdatedAt = now, now
		}
		for id, e := range staged {
			s.entries[id] = e
		}
		return nil
	})
}

func (r *MemoryRepository) GetEntry(ctx context.Context, schoolID, id uuid.UUID) (*m.DatesheetEntryModel, error) {
	var out *m.DatesheetEntryModel
	err := r.read(func(s *memState) error {
		row, ok := s.entries[id]
		if !ok || row.DatesheetEntrySchoolID != schoolID {
			return gorm.ErrRecordNotFound
		}
		cp := row.Clone()
		out = &cp
		return nil
	})
	return out, err
}

func (r *MemoryRepository) ListEntries(ctx context.Context, schoolID, datesheetID uuid.UUID, classIDs []uuid.UUID) ([]m.DatesheetEntryModel, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range classIDs {
		want[id] = true
	}
	out := make([]m.DatesheetEntryModel, 0)
	_ = r.read(func(s *memState) error {
		for _, e := range s.entries {
			if e.DatesheetEntrySchoolID != schoolID || e.DatesheetEntryDatesheetID != datesheetID {
				continue
			}
			if len(want) > 0 && !want[e.DatesheetEntryClassID] {
				continue
			}
			out = append(out, e.Clone())
		}
		return nil
	})
	SortEntries(out)
	return out, nil
}

// SortEntries: class, tanggal, jam mulai, created_at (sama dengan ORDER BY versi GORM).
func SortEntries(rows []m.DatesheetEntryModel) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := bytes.Compare(a.DatesheetEntryClassID[:], b.DatesheetEntryClassID[:]); c != 0 {
			return c < 0
		}
		if !a.DatesheetEntryExamDate.Equal(b.DatesheetEntryExamDate) {
			return a.DatesheetEntryExamDate.Before(b.DatesheetEntryExamDate)
		}
		if a.DatesheetEntryStartTime.Minutes() != b.DatesheetEntryStartTime.Minutes() {
			return a.DatesheetEntryStartTime.Minutes() < b.DatesheetEntryStartTime.Minutes()
		}
		return a.DatesheetEntryCreatedAt.Before(b.DatesheetEntryCreatedAt)
	})
}

func (r *MemoryRepository) SaveEntry(ctx context.Context, row *m.DatesheetEntryModel) error {
	return r.write(ctx, func(s *memState) error {
		cur, ok := s.entries[row.DatesheetEntryID]
		if !ok || cur.DatesheetEntrySchoolID != row.DatesheetEntrySchoolID {
			return gorm.ErrRecordNotFound
		}
		next := cur.Clone()
		upd := row.Clone()
		next.DatesheetEntrySubjectID = upd.DatesheetEntrySubjectID
		next.DatesheetEntryExamDate = dbtime.DateOnly(upd.DatesheetEntryExamDate)
		next.DatesheetEntryStartTime = upd.DatesheetEntryStartTime
		next.DatesheetEntryEndTime = upd.DatesheetEntryEndTime
		next.DatesheetEntryRoomNumber = upd.DatesheetEntryRoomNumber
		if !validEntryTimes(next) {
			return checkViolation("datesheet_entries end_time must be after start_time")
		}
		if s.subjectTaken(next) {
			return uniqueViolation("uq_datesheet_entries_class_subject")
		}
		next.DatesheetEntryUpdatedAt = time.Now()
		s.entries[next.DatesheetEntryID] = next
		row.DatesheetEntryUpdatedAt = next.DatesheetEntryUpdatedAt
		return nil
	})
}

func (r *MemoryRepository) UpdateEntryDate(ctx context.Context, schoolID, id uuid.UUID, date time.Time) error {
	return r.write(ctx, func(s *memState) error {
		cur, ok := s.entries[id]
		if !ok || cur.DatesheetEntrySchoolID != schoolID {
			return gorm.ErrRecordNotFound
		}
		cur.DatesheetEntryExamDate = dbtime.DateOnly(date)
		cur.DatesheetEntryUpdatedAt = time.Now()
		s.entries[id] = cur
		return nil
	})
}

func (r *MemoryRepository) DeleteEntriesByDatesheet(ctx context.Context, schoolID, datesheetID uuid.UUID) (int64, error) {
	var n int64
	err := r.write(ctx, func(s *memState) error {
		for id, e := range s.entries {
			if e.DatesheetEntrySchoolID == schoolID && e.DatesheetEntryDatesheetID == datesheetID {
				delete(s.entries, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *MemoryRepository) DeleteEntriesByClass(ctx context.Context, schoolID, datesheetID, classID uuid.UUID) (int64, error) {
	var n int64
	err := r.write(ctx, func(s *memState) error {
		for id, e := range s.entries {
			if e.DatesheetEntrySchoolID == schoolID && e.DatesheetEntryDatesheetID == datesheetID && e.DatesheetEntryClassID == classID {
				delete(s.entries, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

/* =========================
   Slips
   ========================= */

func slipKey(sl m.ExamSlipModel) string {
	return sl.ExamSlipDatesheetID.String() + "|" + sl.ExamSlipStudentID.String() + "|" + string(sl.ExamSlipType)
}

func (r *MemoryRepository) CreateSlips(ctx context.Context, rows []m.ExamSlipModel) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var n int64
	err := r.write(ctx, func(s *memState) error {
		taken := map[string]bool{}
		for _, sl := range s.slips {
			taken[slipKey(sl)] = true
		}
		now := time.Now()
		for i := range rows {
			rows[i].EnsureID()
			sl := rows[i]
			if _, ok := s.datesheets[sl.ExamSlipDatesheetID]; !ok {
				return fkViolation("exam_slips_datesheet_id_fkey")
			}
			if _, ok := s.students[sl.ExamSlipStudentID]; !ok {
				return fkViolation("exam_slips_student_id_fkey")
			}
			k := slipKey(sl)
			if taken[k] {
				continue // ON CONFLICT DO NOTHING
			}
			taken[k] = true
			sl.ExamSlipCreatedAt = now
			rows[i].ExamSlipCreatedAt = now
			s.slips[sl.ExamSlipID] = sl
			n++
		}
		return nil
	})
	return n, err
}

func (r *MemoryRepository) GetSlip(ctx context.Context, schoolID, id uuid.UUID) (*m.ExamSlipModel, error) {
	var out *m.ExamSlipModel
	err := r.read(func(s *memState) error {
		row, ok := s.slips[id]
		if !ok || row.ExamSlipSchoolID != schoolID {
			return gorm.ErrRecordNotFound
		}
		out = &row
		return nil
	})
	return out, err
}

func (r *MemoryRepository) FindSlip(ctx context.Context, schoolID, datesheetID, studentID uuid.UUID, typ m.ExamSlipType) (*m.ExamSlipModel, error) {
	var out *m.ExamSlipModel
	err := r.read(func(s *memState) error {
		for _, row := range s.slips {
			if row.ExamSlipSchoolID == schoolID && row.ExamSlipDatesheetID == datesheetID &&
				row.ExamSlipStudentID == studentID && row.ExamSlipType == typ {
				cp := row
				out = &cp
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *MemoryRepository) ListSlips(ctx context.Context, f SlipFilter) ([]m.ExamSlipModel, int64, error) {
	all := make([]m.ExamSlipModel, 0)
	_ = r.read(func(s *memState) error {
		for _, row := range s.slips {
			if row.ExamSlipSchoolID != f.SchoolID {
				continue
			}
			if f.DatesheetID != nil && row.ExamSlipDatesheetID != *f.DatesheetID {
				continue
			}
			if f.ClassID != nil && (row.ExamSlipClassID == nil || *row.ExamSlipClassID != *f.ClassID) {
				continue
			}
			if f.StudentID != nil && row.ExamSlipStudentID != *f.StudentID {
				continue
			}
			if f.Type != "" && row.ExamSlipType != f.Type {
				continue
			}
			all = append(all, row)
		}
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].ExamSlipNumber < all[j].ExamSlipNumber })
	total := int64(len(all))
	return paginate(all, f.Offset, f.Limit), total, nil
}

func (r *MemoryRepository) ListSlipStudentIDs(ctx context.Context, schoolID, datesheetID uuid.UUID, typ m.ExamSlipType) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	_ = r.read(func(s *memState) error {
		for _, row := range s.slips {
			if row.ExamSlipSchoolID == schoolID && row.ExamSlipDatesheetID == datesheetID && row.ExamSlipType == typ {
				out = append(out, row.ExamSlipStudentID)
			}
		}
		return nil
	})
	return out, nil
}

/* =========================
   helpers
   ========================= */

func dedupUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func sortSubjects(rows []acm.SubjectModel) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SubjectName < rows[j].SubjectName })
}

func sortStudents(rows []acm.StudentModel) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StudentAdmissionNumber < rows[j].StudentAdmissionNumber
	})
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
