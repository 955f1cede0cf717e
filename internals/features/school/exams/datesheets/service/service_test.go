package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	acm "schoolku_backend/internals/features/school/academics/model"
	"schoolku_backend/internals/features/school/exams/datesheets/draft"
	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	"schoolku_backend/internals/features/school/exams/datesheets/grid"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	helper "schoolku_backend/internals/helpers"
)

/* =========================
   Fixture
   ========================= */

type env struct {
	repo    *repository.MemoryRepository
	svc     *Service
	sc      m.Scope
	class5  acm.ClassModel
	class6  acm.ClassModel
	math    acm.SubjectModel
	english acm.SubjectModel
	science acm.SubjectModel
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repo := repository.NewMemory()
	school := uuid.New()
	user := uuid.New()
	e := &env{repo: repo, sc: m.Scope{SchoolID: school, UserID: &user, Session: "2024"}}
	e.class5 = repo.AddClass(acm.ClassModel{ClassSchoolID: school, ClassName: "Class 5"})
	e.class6 = repo.AddClass(acm.ClassModel{ClassSchoolID: school, ClassName: "Class 6"})
	e.math = repo.AddSubject(acm.SubjectModel{SubjectSchoolID: school, SubjectName: "Math"})
	e.english = repo.AddSubject(acm.SubjectModel{SubjectSchoolID: school, SubjectName: "English"})
	e.science = repo.AddSubject(acm.SubjectModel{SubjectSchoolID: school, SubjectName: "Science"})
	e.svc = New(repo, nil)
	return e
}

func entryIn(s acm.SubjectModel, date string) dto.EntryInput {
	return dto.EntryInput{SubjectID: s.SubjectID.String(), ExamDate: date, StartTime: "09:00", EndTime: "11:00"}
}

func (e *env) midTerm(t *testing.T) *dto.DatesheetDetail {
	t.Helper()
	out, err := e.svc.Create(context.Background(), e.sc, dto.DatesheetForm{
		ClassID:    e.class5.ClassID.String(),
		Title:      "Mid Term",
		ExamCenter: "Main Hall",
		Entries: []dto.EntryInput{
			entryIn(e.math, "2024-03-01"),
			entryIn(e.english, "2024-03-03"),
			entryIn(e.science, "2024-03-04"),
		},
	})
	require.NoError(t, err)
	return out
}

func (e *env) entries(t *testing.T, dsID uuid.UUID) []m.DatesheetEntryModel {
	t.Helper()
	rows, err := e.repo.ListEntries(context.Background(), e.sc.SchoolID, dsID, nil)
	require.NoError(t, err)
	return rows
}

func (e *env) entryFor(t *testing.T, dsID, subjectID uuid.UUID) m.DatesheetEntryModel {
	t.Helper()
	for _, r := range e.entries(t, dsID) {
		if r.HoldsSubject(subjectID) {
			return r
		}
	}
	t.Fatalf("no entry for subject %s", subjectID)
	return m.DatesheetEntryModel{}
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func requireValidation(t *testing.T, err error) *helper.ValidationError {
	t.Helper()
	var ve *helper.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve
}

func requireStatus(t *testing.T, err error, code int) {
	t.Helper()
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, code, fe.Code)
}

/* =========================
   Failure injection
   ========================= */

var errBoom = errors.New("connection reset by peer")

type faults struct {
	updateCalls     int
	failUpdateAfter int // -1 = tidak pernah gagal
	failCreate      bool
}

type faultyRepo struct {
	repository.Repository
	f *faults
}

func (r *faultyRepo) WithTx(ctx context.Context, fn func(repository.Repository) error) error {
	return r.Repository.WithTx(ctx, func(tx repository.Repository) error {
		return fn(&faultyRepo{Repository: tx, f: r.f})
	})
}

func (r *faultyRepo) UpdateEntryDate(ctx context.Context, schoolID, id uuid.UUID, date time.Time) error {
	r.f.updateCalls++
	if r.f.failUpdateAfter >= 0 && r.f.updateCalls > r.f.failUpdateAfter {
		return errBoom
	}
	return r.Repository.UpdateEntryDate(ctx, schoolID, id, date)
}

func (r *faultyRepo) CreateEntries(ctx context.Context, rows []m.DatesheetEntryModel) error {
	if r.f.failCreate {
		return errBoom
	}
	return r.Repository.CreateEntries(ctx, rows)
}

func (e *env) faulty(f *faults) *Service {
	return New(&faultyRepo{Repository: e.repo, f: f}, nil)
}

/* =========================
   Lifecycle
   ========================= */

func TestCreateMidTermExample(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	out, err := e.svc.Create(ctx, e.sc, dto.DatesheetForm{
		ClassID:    e.class5.ClassID.String(),
		Title:      "Mid Term",
		ExamCenter: "Main Hall",
		Entries: []dto.EntryInput{
			entryIn(e.math, "2024-03-01"),
			entryIn(e.english, "2024-03-03"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", out.Datesheet.DatesheetStartDate)
	assert.Equal(t, []uuid.UUID{e.class5.ClassID}, out.Datesheet.DatesheetClassIDs)
	assert.Equal(t, "2024", out.Datesheet.DatesheetSession)
	assert.Equal(t, e.sc.UserID, out.Datesheet.DatesheetCreatedByUserID)

	rows := e.entries(t, out.Datesheet.DatesheetID)
	require.Len(t, rows, 2)
	type tuple struct{ subject, date, start, end, room string }
	got := []tuple{}
	for _, r := range rows {
		got = append(got, tuple{r.DatesheetEntrySubjectID.String(), r.DatesheetEntryExamDate.Format("2006-01-02"),
			r.DatesheetEntryStartTime.String(), r.DatesheetEntryEndTime.String(), r.DatesheetEntryRoomNumber})
		assert.Equal(t, e.class5.ClassID, r.DatesheetEntryClassID)
	}
	assert.ElementsMatch(t, []tuple{
		{e.math.SubjectID.String(), "2024-03-01", "09:00", "11:00", "Main Hall"},
		{e.english.SubjectID.String(), "2024-03-03", "09:00", "11:00", "Main Hall"},
	}, got)

	assert.Equal(t, "Math", out.Entries[0].SubjectName)
	assert.Len(t, out.Form.Entries, 2)
	assert.Nil(t, out.Form.Entries[0].RoomNumber)
}

func TestCreateValidationTouchesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, e.sc, dto.DatesheetForm{})
	ve := requireValidation(t, err)
	assert.Contains(t, ve.Fields, "class_id")
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "entries")

	_, err = e.svc.Create(ctx, e.sc, dto.DatesheetForm{
		ClassID: e.class5.ClassID.String(),
		Title:   "Mid Term",
		Entries: []dto.EntryInput{entryIn(e.math, "2024-03-01"), entryIn(e.math, "2024-03-02")},
	})
	ve = requireValidation(t, err)
	assert.Contains(t, ve.Fields, "entries[1].subject_id")

	_, err = e.svc.Create(ctx, e.sc, dto.DatesheetForm{
		ClassID: uuid.NewString(),
		Title:   "Mid Term",
		Entries: []dto.EntryInput{{SubjectID: uuid.NewString(), ExamDate: "2024-03-01", StartTime: "09:00", EndTime: "11:00"}},
	})
	ve = requireValidation(t, err)
	assert.Contains(t, ve.Fields, "class_id")
	assert.Contains(t, ve.Fields, "entries[0].subject_id")

	rows, total, err := e.svc.List(ctx, e.sc, repository.DatesheetFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestCreateIsAtomic(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.faulty(&faults{failUpdateAfter: -1, failCreate: true}).Create(ctx, e.sc, dto.DatesheetForm{
		ClassID: e.class5.ClassID.String(),
		Title:   "Mid Term",
		Entries: []dto.EntryInput{entryIn(e.math, "2024-03-01")},
	})
	assert.ErrorIs(t, err, errBoom)

	_, total, err := e.svc.List(ctx, e.sc, repository.DatesheetFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEditReplacesEntriesWholesale(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)

	out, err := e.svc.Edit(ctx, e.sc, ds.Datesheet.DatesheetID, dto.DatesheetForm{
		ClassID:    e.class5.ClassID.String(),
		Title:      "Mid Term (revised)",
		ExamCenter: "Lab",
		Entries: []dto.EntryInput{
			entryIn(e.english, "2024-03-10"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mid Term (revised)", out.Datesheet.DatesheetTitle)
	assert.Equal(t, "2024", out.Datesheet.DatesheetSession)

	rows := e.entries(t, ds.Datesheet.DatesheetID)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].HoldsSubject(e.english.SubjectID))
	assert.Equal(t, "Lab", rows[0].DatesheetEntryRoomNumber)
	assert.Equal(t, day("2024-03-10"), rows[0].DatesheetEntryExamDate)

	_, err = e.svc.Edit(ctx, e.sc, uuid.New(), dto.DatesheetForm{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEditFailureKeepsPreviousEntries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)

	_, err := e.faulty(&faults{failUpdateAfter: -1, failCreate: true}).Edit(ctx, e.sc, ds.Datesheet.DatesheetID, dto.DatesheetForm{
		ClassID: e.class5.ClassID.String(),
		Title:   "Broken",
		Entries: []dto.EntryInput{entryIn(e.english, "2024-03-10")},
	})
	assert.ErrorIs(t, err, errBoom)

	got, err := e.svc.Get(ctx, e.sc, ds.Datesheet.DatesheetID)
	require.NoError(t, err)
	assert.Equal(t, "Mid Term", got.Datesheet.DatesheetTitle)
	assert.Len(t, got.Entries, 3)
}

func TestDeleteCascadesEntries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)

	require.NoError(t, e.svc.Delete(ctx, e.sc, ds.Datesheet.DatesheetID))
	assert.Empty(t, e.entries(t, ds.Datesheet.DatesheetID))
	assert.ErrorIs(t, e.svc.Delete(ctx, e.sc, ds.Datesheet.DatesheetID), gorm.ErrRecordNotFound)
}

/* =========================
   Entry mutations
   ========================= */

func TestEditEntryRejectsSubjectHeldBySibling(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	mathEntry := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)

	english := e.english.SubjectID.String()
	_, err := e.svc.EditEntry(ctx, e.sc, mathEntry.DatesheetEntryID, dto.PatchEntryRequest{
		SubjectID: dto.PatchField[string]{Present: true, Value: &english},
	})
	requireStatus(t, err, http.StatusConflict)

	room, date := "Room 7", "2024-03-02"
	out, err := e.svc.EditEntry(ctx, e.sc, mathEntry.DatesheetEntryID, dto.PatchEntryRequest{
		ExamDate:   &date,
		RoomNumber: &room,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", out.DatesheetEntryExamDate)
	assert.Equal(t, "Room 7", out.DatesheetEntryRoomNumber)
	assert.Equal(t, "Math", out.SubjectName)

	end := "08:00"
	_, err = e.svc.EditEntry(ctx, e.sc, mathEntry.DatesheetEntryID, dto.PatchEntryRequest{EndTime: &end})
	ve := requireValidation(t, err)
	assert.Contains(t, ve.Fields, "end_time")
}

func TestClearEntryKeepsRowAndIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	mathEntry := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)

	for i := 0; i < 2; i++ {
		out, err := e.svc.ClearEntry(ctx, e.sc, mathEntry.DatesheetEntryID)
		require.NoError(t, err)
		assert.Nil(t, out.DatesheetEntrySubjectID)
	}
	got, err := e.repo.GetEntry(ctx, e.sc.SchoolID, mathEntry.DatesheetEntryID)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Equal(t, mathEntry.DatesheetEntryExamDate, got.DatesheetEntryExamDate)

	// slot kosong bisa diisi lagi (EMPTY → ASSIGNED)
	mathID := e.math.SubjectID.String()
	_, err = e.svc.EditEntry(ctx, e.sc, mathEntry.DatesheetEntryID, dto.PatchEntryRequest{
		SubjectID: dto.PatchField[string]{Present: true, Value: &mathID},
	})
	require.NoError(t, err)
}

func TestMoveOntoEmptySlotChangesOnlyThatEntry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	english := e.entryFor(t, ds.Datesheet.DatesheetID, e.english.SubjectID)
	science := e.entryFor(t, ds.Datesheet.DatesheetID, e.science.SubjectID)

	// kosongkan slot 2024-03-04 lalu pindahkan English ke sana
	_, err := e.svc.ClearEntry(ctx, e.sc, science.DatesheetEntryID)
	require.NoError(t, err)
	before := e.entries(t, ds.Datesheet.DatesheetID)

	out, err := e.svc.MoveEntry(ctx, e.sc, english.DatesheetEntryID, day("2024-03-04"))
	require.NoError(t, err)
	assert.Equal(t, dto.DropMove, out.Action)
	assert.True(t, out.Changed)

	after := e.entries(t, ds.Datesheet.DatesheetID)
	require.Len(t, after, len(before))
	byID := map[uuid.UUID]m.DatesheetEntryModel{}
	for _, r := range after {
		byID[r.DatesheetEntryID] = r
	}
	for _, b := range before {
		a := byID[b.DatesheetEntryID]
		if b.DatesheetEntryID == english.DatesheetEntryID {
			assert.Equal(t, day("2024-03-04"), a.DatesheetEntryExamDate)
			continue
		}
		assert.Equal(t, b.DatesheetEntryExamDate, a.DatesheetEntryExamDate)
		assert.Equal(t, b.DatesheetEntrySubjectID, a.DatesheetEntrySubjectID)
	}

	noop, err := e.svc.MoveEntry(ctx, e.sc, english.DatesheetEntryID, day("2024-03-04"))
	require.NoError(t, err)
	assert.Equal(t, dto.DropNoop, noop.Action)
}

func TestMoveOntoOccupiedSlotCarriesOccupant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	mathEntry := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)
	english := e.entryFor(t, ds.Datesheet.DatesheetID, e.english.SubjectID)

	_, err := e.svc.MoveEntry(ctx, e.sc, mathEntry.DatesheetEntryID, day("2024-03-03"))
	var ce *grid.SlotConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, english.DatesheetEntryID, ce.Occupant.DatesheetEntryID)

	_, err = e.svc.MoveEntry(ctx, e.sc, mathEntry.DatesheetEntryID, day("2024-04-01"))
	ve := requireValidation(t, err)
	assert.Contains(t, ve.Fields, "target_date")
}

func TestSwapExchangesDatesOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	a := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)
	b := e.entryFor(t, ds.Datesheet.DatesheetID, e.english.SubjectID)

	room := "Room 1"
	_, err := e.svc.EditEntry(ctx, e.sc, a.DatesheetEntryID, dto.PatchEntryRequest{RoomNumber: &room})
	require.NoError(t, err)
	a.DatesheetEntryRoomNumber = room

	out, err := e.svc.SwapEntries(ctx, e.sc, a.DatesheetEntryID, b.DatesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, dto.DropSwap, out.Action)

	na, err := e.repo.GetEntry(ctx, e.sc.SchoolID, a.DatesheetEntryID)
	require.NoError(t, err)
	nb, err := e.repo.GetEntry(ctx, e.sc.SchoolID, b.DatesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, b.DatesheetEntryExamDate, na.DatesheetEntryExamDate)
	assert.Equal(t, a.DatesheetEntryExamDate, nb.DatesheetEntryExamDate)
	assert.Equal(t, a.DatesheetEntrySubjectID, na.DatesheetEntrySubjectID)
	assert.Equal(t, "Room 1", na.DatesheetEntryRoomNumber)
	assert.Equal(t, b.DatesheetEntryRoomNumber, nb.DatesheetEntryRoomNumber)
	assert.Equal(t, a.DatesheetEntryStartTime, na.DatesheetEntryStartTime)

	_, err = e.svc.SwapEntries(ctx, e.sc, a.DatesheetEntryID, a.DatesheetEntryID)
	requireValidation(t, err)
}

func TestSwapAcrossClassesRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	_, err := e.svc.AddClassBlock(ctx, e.sc, ds.Datesheet.DatesheetID, dto.ClassBlockRequest{
		ClassID: e.class6.ClassID.String(),
		Entries: []dto.EntryInput{entryIn(e.math, "2024-03-01")},
	})
	require.NoError(t, err)

	var a, b m.DatesheetEntryModel
	for _, r := range e.entries(t, ds.Datesheet.DatesheetID) {
		if r.HoldsSubject(e.math.SubjectID) && r.DatesheetEntryClassID == e.class5.ClassID {
			a = r
		}
		if r.DatesheetEntryClassID == e.class6.ClassID {
			b = r
		}
	}
	_, err = e.svc.SwapEntries(ctx, e.sc, a.DatesheetEntryID, b.DatesheetEntryID)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestSwapRollsBackWhenSecondUpdateFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	a := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)
	b := e.entryFor(t, ds.Datesheet.DatesheetID, e.english.SubjectID)
	before := e.entries(t, ds.Datesheet.DatesheetID)

	f := &faults{failUpdateAfter: 1}
	_, err := e.faulty(f).SwapEntries(ctx, e.sc, a.DatesheetEntryID, b.DatesheetEntryID)

	var rb *RollbackError
	require.ErrorAs(t, err, &rb)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, f.updateCalls)
	assert.Equal(t, http.StatusInternalServerError, rb.StatusCode())

	// state lokal yang dikembalikan = snapshot awal
	restored := map[uuid.UUID]string{}
	for _, r := range rb.Restored {
		restored[r.DatesheetEntryID] = r.DatesheetEntryExamDate
	}
	assert.Equal(t, "2024-03-01", restored[a.DatesheetEntryID])
	assert.Equal(t, "2024-03-03", restored[b.DatesheetEntryID])

	// storage tidak berubah (transaksi di-rollback)
	assert.Equal(t, before, e.entries(t, ds.Datesheet.DatesheetID))
}

func TestMoveRollbackReportsFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	science := e.entryFor(t, ds.Datesheet.DatesheetID, e.science.SubjectID)
	english := e.entryFor(t, ds.Datesheet.DatesheetID, e.english.SubjectID)
	_, err := e.svc.ClearEntry(ctx, e.sc, science.DatesheetEntryID)
	require.NoError(t, err)

	_, err = e.faulty(&faults{failUpdateAfter: 0}).MoveEntry(ctx, e.sc, english.DatesheetEntryID, day("2024-03-04"))
	var rb *RollbackError
	require.ErrorAs(t, err, &rb)

	got, err := e.repo.GetEntry(ctx, e.sc.SchoolID, english.DatesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-03"), got.DatesheetEntryExamDate)
}

func TestDropMovesOrSwaps(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	mathEntry := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)
	english := e.entryFor(t, ds.Datesheet.DatesheetID, e.english.SubjectID)

	out, err := e.svc.Drop(ctx, e.sc, mathEntry.DatesheetEntryID, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, dto.DropNoop, out.Action)

	out, err = e.svc.Drop(ctx, e.sc, mathEntry.DatesheetEntryID, day("2024-03-03"))
	require.NoError(t, err)
	assert.Equal(t, dto.DropSwap, out.Action)
	require.Len(t, out.Entries, 2)

	got, err := e.repo.GetEntry(ctx, e.sc.SchoolID, english.DatesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-01"), got.DatesheetEntryExamDate)

	// slot 03-01 sekarang berisi English; kosongkan lalu drop Math (kini di 03-03) ke sana
	_, err = e.svc.ClearEntry(ctx, e.sc, english.DatesheetEntryID)
	require.NoError(t, err)
	out, err = e.svc.Drop(ctx, e.sc, mathEntry.DatesheetEntryID, day("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, dto.DropMove, out.Action)
}

func TestNoDuplicateSubjectAcrossOperations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	mathEntry := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)
	science := e.entryFor(t, ds.Datesheet.DatesheetID, e.science.SubjectID)

	_, _ = e.svc.ClearEntry(ctx, e.sc, science.DatesheetEntryID)
	sid := e.math.SubjectID.String()
	_, _ = e.svc.EditEntry(ctx, e.sc, science.DatesheetEntryID, dto.PatchEntryRequest{
		SubjectID: dto.PatchField[string]{Present: true, Value: &sid},
	})
	_, _ = e.svc.Drop(ctx, e.sc, mathEntry.DatesheetEntryID, day("2024-03-04"))

	seen := map[uuid.UUID]int{}
	for _, r := range e.entries(t, ds.Datesheet.DatesheetID) {
		if !r.IsEmpty() {
			seen[*r.DatesheetEntrySubjectID]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "subject %s scheduled %d times", id, n)
	}
}

/* =========================
   Class blocks & grid
   ========================= */

func TestGridAndClassBlocks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)
	id := ds.Datesheet.DatesheetID

	_, err := e.svc.AddClassBlock(ctx, e.sc, id, dto.ClassBlockRequest{
		ClassID: e.class6.ClassID.String(),
		Entries: []dto.EntryInput{entryIn(e.math, "2024-03-02")},
	})
	require.NoError(t, err)

	_, err = e.svc.AddClassBlock(ctx, e.sc, id, dto.ClassBlockRequest{
		ClassID: e.class6.ClassID.String(),
		Entries: []dto.EntryInput{entryIn(e.math, "2024-03-02")},
	})
	requireStatus(t, err, http.StatusConflict)

	g, err := e.svc.Grid(ctx, e.sc, id, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}, g.Dates)
	assert.Equal(t, 3, g.MaxSubjectCount)
	require.Len(t, g.Rows, 2)
	assert.Equal(t, "Class 5", g.Rows[0].ClassName)
	require.Len(t, g.Rows[1].Cells, 4)
	assert.Len(t, g.Rows[1].Cells[1].Entries, 1)
	assert.Empty(t, g.Rows[1].Cells[0].Entries)

	only6, err := e.svc.Grid(ctx, e.sc, id, []uuid.UUID{e.class6.ClassID})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-02"}, only6.Dates)

	del, err := e.svc.DeleteClassBlock(ctx, e.sc, id, e.class5.ClassID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, del.DeletedEntries)
	require.Len(t, del.Grid.Rows, 1)

	del, err = e.svc.DeleteClassBlock(ctx, e.sc, id, e.class6.ClassID)
	require.NoError(t, err)
	assert.Empty(t, del.Grid.Rows)
	assert.Empty(t, del.Grid.Dates)
	assert.Empty(t, e.entries(t, id))

	_, err = e.svc.DeleteClassBlock(ctx, e.sc, id, e.class6.ClassID)
	requireStatus(t, err, http.StatusNotFound)
}

/* =========================
   Available subjects & draft
   ========================= */

func names(subjects []draft.Subject) []string {
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, s.Name)
	}
	sort.Strings(out)
	return out
}

func TestEntryAvailableSubjects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds, err := e.svc.Create(ctx, e.sc, dto.DatesheetForm{
		ClassID: e.class5.ClassID.String(),
		Title:   "Unit Test",
		Entries: []dto.EntryInput{entryIn(e.math, "2024-03-01"), entryIn(e.english, "2024-03-02")},
	})
	require.NoError(t, err)
	mathEntry := e.entryFor(t, ds.Datesheet.DatesheetID, e.math.SubjectID)

	got, err := e.svc.EntryAvailableSubjects(ctx, e.sc, mathEntry.DatesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Math", "Science"}, names(got))

	// class dengan relasi subject → kandidat hanya subject terhubung
	e.repo.LinkSubject(e.sc.SchoolID, e.class5.ClassID, e.math.SubjectID)
	e.repo.LinkSubject(e.sc.SchoolID, e.class5.ClassID, e.english.SubjectID)
	got, err = e.svc.EntryAvailableSubjects(ctx, e.sc, mathEntry.DatesheetEntryID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Math"}, names(got))
}

func TestDraftRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	classID := e.class5.ClassID.String()

	res, err := e.svc.DraftAdd(ctx, e.sc, dto.DraftAddRequest{
		ClassID: classID,
		Input:   draft.Input{SubjectID: e.math.SubjectID.String(), ExamDate: "2024-03-01", StartTime: "09:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	require.Len(t, res.Draft.Items, 1)
	assert.Equal(t, "Math", res.Draft.Items[0].SubjectName)
	assert.Equal(t, []string{"English", "Science"}, names(res.AvailableSubjects))

	res, err = e.svc.DraftBeginEdit(ctx, e.sc, dto.DraftIndexRequest{ClassID: classID, Draft: res.Draft, Index: 0})
	require.NoError(t, err)
	require.NotNil(t, res.Input)
	assert.Equal(t, "2024-03-01", res.Input.ExamDate)
	assert.Equal(t, []string{"English", "Math", "Science"}, names(res.AvailableSubjects))

	res, err = e.svc.DraftRemove(ctx, e.sc, dto.DraftIndexRequest{ClassID: classID, Draft: res.Draft, Index: 0})
	require.NoError(t, err)
	assert.Empty(t, res.Draft.Items)
	assert.Nil(t, res.Draft.EditIndex)

	_, err = e.svc.DraftAdd(ctx, e.sc, dto.DraftAddRequest{ClassID: classID})
	ve := requireValidation(t, err)
	assert.Len(t, ve.Fields, 4)
}

func TestDraftCancelAndSubmit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	classID := e.class5.ClassID.String()

	res, err := e.svc.DraftAdd(ctx, e.sc, dto.DraftAddRequest{
		ClassID: classID,
		Input:   draft.Input{SubjectID: e.math.SubjectID.String(), ExamDate: "2024-03-01", StartTime: "09:00", EndTime: "11:00"},
	})
	require.NoError(t, err)
	res, err = e.svc.DraftAdd(ctx, e.sc, dto.DraftAddRequest{
		ClassID: classID,
		Draft:   res.Draft,
		Input:   draft.Input{SubjectID: e.english.SubjectID.String(), ExamDate: "2024-03-03", StartTime: "10:00", EndTime: "12:00"},
	})
	require.NoError(t, err)

	res, err = e.svc.DraftBeginEdit(ctx, e.sc, dto.DraftIndexRequest{ClassID: classID, Draft: res.Draft, Index: 1})
	require.NoError(t, err)
	require.NotNil(t, res.Draft.EditIndex)

	// submit saat masih edit ditolak
	_, err = e.svc.DraftSubmit(ctx, e.sc, dto.DraftSubmitRequest{ClassID: classID, Title: "Mid Term", Draft: res.Draft})
	ve := requireValidation(t, err)
	assert.Contains(t, ve.Fields, "draft.edit_index")

	res, err = e.svc.DraftCancel(ctx, e.sc, dto.DraftAvailableRequest{ClassID: classID, Draft: res.Draft})
	require.NoError(t, err)
	assert.Nil(t, res.Draft.EditIndex)
	assert.Len(t, res.Draft.Items, 2)
	assert.Equal(t, []string{"Science"}, names(res.AvailableSubjects))

	out, err := e.svc.DraftSubmit(ctx, e.sc, dto.DraftSubmitRequest{
		ClassID:    classID,
		Title:      "Mid Term",
		ExamCenter: "Main Hall",
		Draft:      res.Draft,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", out.Datesheet.DatesheetStartDate)
	require.Len(t, out.Entries, 2)
	eng := e.entryFor(t, out.Datesheet.DatesheetID, e.english.SubjectID)
	assert.Equal(t, "10:00", eng.DatesheetEntryStartTime.String())
	assert.Equal(t, "Main Hall", eng.DatesheetEntryRoomNumber)
}

func TestDraftSubmitRejectsEmptyOrDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	classID := e.class5.ClassID.String()

	_, err := e.svc.DraftSubmit(ctx, e.sc, dto.DraftSubmitRequest{ClassID: classID, Title: "Final"})
	ve := requireValidation(t, err)
	assert.Contains(t, ve.Fields, "entries")

	item := draft.Item{SubjectID: e.math.SubjectID, SubjectName: "Math", ExamDate: "2024-03-01", StartTime: "09:00", EndTime: "11:00"}
	_, err = e.svc.DraftSubmit(ctx, e.sc, dto.DraftSubmitRequest{
		ClassID: classID,
		Title:   "Final",
		Draft:   draft.Draft{Items: []draft.Item{item, item}},
	})
	ve = requireValidation(t, err)
	assert.Contains(t, ve.Fields, "entries[1].subject_id")

	list, total, err := e.svc.List(ctx, e.sc, repository.DatesheetFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}
