package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/school/exams/datesheets/draft"
	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	"schoolku_backend/internals/features/school/exams/datesheets/grid"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

/* =========================
   Edit / Clear
   ========================= */

// EditEntry: update subject/tanggal/jam/ruang satu entry.
// Subject tidak boleh dipegang entry lain di (datesheet, class) yang sama.
func (s *Service) EditEntry(ctx context.Context, sc m.Scope, id uuid.UUID, req dto.PatchEntryRequest) (*dto.EntryResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	cur, err := s.Repo.GetEntry(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	next := cur.Clone()
	ve := helper.NewValidationError()

	if v, ok := req.SubjectID.Get(); ok {
		if v == nil || strings.TrimSpace(*v) == "" {
			next.DatesheetEntrySubjectID = nil
		} else if sid, err := uuid.Parse(strings.TrimSpace(*v)); err != nil {
			ve.Add("subject_id", "must be a valid UUID")
		} else {
			rows, err := s.Repo.ListSubjects(ctx, sc.SchoolID, []uuid.UUID{sid})
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				ve.Add("subject_id", "Subject not found")
			}
			next.DatesheetEntrySubjectID = &sid
		}
	}
	if req.ExamDate != nil {
		if d, err := dbtime.ParseDate(*req.ExamDate); err != nil {
			ve.Add("exam_date", "must match format YYYY-MM-DD")
		} else {
			next.DatesheetEntryExamDate = d
		}
	}
	if req.StartTime != nil {
		if t, err := dbtime.ParseTod(*req.StartTime); err != nil {
			ve.Add("start_time", "must match format HH:MM")
		} else {
			next.DatesheetEntryStartTime = t
		}
	}
	if req.EndTime != nil {
		if t, err := dbtime.ParseTod(*req.EndTime); err != nil {
			ve.Add("end_time", "must match format HH:MM")
		} else {
			next.DatesheetEntryEndTime = t
		}
	}
	if req.RoomNumber != nil {
		next.DatesheetEntryRoomNumber = strings.TrimSpace(*req.RoomNumber)
	}
	if ve.Empty() && next.DatesheetEntryEndTime.Minutes() <= next.DatesheetEntryStartTime.Minutes() {
		ve.Add("end_time", "must be after start time")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if !next.IsEmpty() {
		siblings, err := s.Repo.ListEntries(ctx, sc.SchoolID, cur.DatesheetEntryDatesheetID, []uuid.UUID{cur.DatesheetEntryClassID})
		if err != nil {
			return nil, err
		}
		for _, o := range siblings {
			if o.DatesheetEntryID != cur.DatesheetEntryID && o.HoldsSubject(*next.DatesheetEntrySubjectID) {
				return nil, errSubjectTaken
			}
		}
	}

	if err := s.Repo.SaveEntry(ctx, &next); err != nil {
		return nil, err
	}
	return s.entryResponse(ctx, sc.SchoolID, next)
}

// ClearEntry: soft clear (subject_id = NULL), baris & slot tanggal tetap.
func (s *Service) ClearEntry(ctx context.Context, sc m.Scope, id uuid.UUID) (*dto.EntryResponse, error) {
	cur, err := s.Repo.GetEntry(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	if !cur.IsEmpty() {
		cur.DatesheetEntrySubjectID = nil
		if err := s.Repo.SaveEntry(ctx, cur); err != nil {
			return nil, err
		}
	}
	r := dto.FromEntryModel(*cur, nil)
	return &r, nil
}

func (s *Service) entryResponse(ctx context.Context, schoolID uuid.UUID, e m.DatesheetEntryModel) (*dto.EntryResponse, error) {
	names, err := s.namesFor(ctx, schoolID, []m.DatesheetEntryModel{e})
	if err != nil {
		return nil, err
	}
	r := dto.FromEntryModel(e, names)
	return &r, nil
}

/* =========================
   Move / Swap / Drop (optimistic + rollback)
   ========================= */

// persistError menandai kegagalan di tahap persist (bukan validasi lokal).
type persistError struct{ err error }

func (e *persistError) Error() string { return e.err.Error() }
func (e *persistError) Unwrap() error { return e.err }

// loadGrid: entry + seluruh jadwal datesheet-nya.
func (s *Service) loadGrid(ctx context.Context, sc m.Scope, id uuid.UUID) (*m.DatesheetEntryModel, *grid.Grid, error) {
	e, err := s.Repo.GetEntry(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.Repo.ListEntries(ctx, sc.SchoolID, e.DatesheetEntryDatesheetID, nil)
	if err != nil {
		return nil, nil, err
	}
	return e, grid.New(entries), nil
}

func (s *Service) mutationErr(ctx context.Context, sc m.Scope, err error, g *grid.Grid, classID uuid.UUID) error {
	var pe *persistError
	if !errors.As(err, &pe) {
		return gridErr(err)
	}
	log.Printf("[Datesheet.Entry] ⚠️ persist failed, rolled back: %v", pe.err)

	restored := make([]m.DatesheetEntryModel, 0)
	for _, e := range g.Entries() {
		if e.DatesheetEntryClassID == classID {
			restored = append(restored, e)
		}
	}
	names, nerr := s.namesFor(ctx, sc.SchoolID, restored)
	if nerr != nil {
		names = dto.SubjectNames{}
	}
	return &RollbackError{Err: pe.err, Restored: dto.FromEntryModels(restored, names)}
}

func (s *Service) result(ctx context.Context, sc m.Scope, action string, changed bool, g *grid.Grid, ids ...uuid.UUID) (*dto.MutationResult, error) {
	rows := make([]m.DatesheetEntryModel, 0, len(ids))
	for _, id := range ids {
		if e, ok := g.Get(id); ok {
			rows = append(rows, e)
		}
	}
	names, err := s.namesFor(ctx, sc.SchoolID, rows)
	if err != nil {
		return nil, err
	}
	return &dto.MutationResult{Action: action, Changed: changed, Entries: dto.FromEntryModels(rows, names)}, nil
}

func (s *Service) move(ctx context.Context, sc m.Scope, g *grid.Grid, e m.DatesheetEntryModel, target time.Time) (*dto.MutationResult, error) {
	id := e.DatesheetEntryID
	changed := false
	err := g.Apply(func(g *grid.Grid) error {
		var err error
		changed, err = g.Move(id, target)
		return err
	}, func() error {
		if !changed {
			return nil
		}
		if err := s.Repo.UpdateEntryDate(ctx, sc.SchoolID, id, target); err != nil {
			return &persistError{err}
		}
		return nil
	})
	if err != nil {
		return nil, s.mutationErr(ctx, sc, err, g, e.DatesheetEntryClassID)
	}
	action := dto.DropMove
	if !changed {
		action = dto.DropNoop
	}
	return s.result(ctx, sc, action, changed, g, id)
}

func (s *Service) swap(ctx context.Context, sc m.Scope, g *grid.Grid, a, b m.DatesheetEntryModel) (*dto.MutationResult, error) {
	err := g.Apply(func(g *grid.Grid) error {
		return g.Swap(a.DatesheetEntryID, b.DatesheetEntryID)
	}, func() error {
		na, _ := g.Get(a.DatesheetEntryID)
		nb, _ := g.Get(b.DatesheetEntryID)
		err := s.Repo.WithTx(ctx, func(tx repository.Repository) error {
			if err := tx.UpdateEntryDate(ctx, sc.SchoolID, na.DatesheetEntryID, na.DatesheetEntryExamDate); err != nil {
				return err
			}
			return tx.UpdateEntryDate(ctx, sc.SchoolID, nb.DatesheetEntryID, nb.DatesheetEntryExamDate)
		})
		if err != nil {
			return &persistError{err}
		}
		return nil
	})
	if err != nil {
		return nil, s.mutationErr(ctx, sc, err, g, a.DatesheetEntryClassID)
	}
	return s.result(ctx, sc, dto.DropSwap, true, g, a.DatesheetEntryID, b.DatesheetEntryID)
}

// MoveEntry: pindah ke tanggal lain yang slot-nya kosong untuk class yang sama.
func (s *Service) MoveEntry(ctx context.Context, sc m.Scope, id uuid.UUID, target time.Time) (*dto.MutationResult, error) {
	e, g, err := s.loadGrid(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, sc, g, *e, target)
}

// SwapEntries: tukar exam_date dua entry (datesheet & class sama) dalam satu transaksi.
func (s *Service) SwapEntries(ctx context.Context, sc m.Scope, aID, bID uuid.UUID) (*dto.MutationResult, error) {
	if aID == bID {
		return nil, helper.FieldError("entry_b_id", "must be different from entry_a_id")
	}
	a, g, err := s.loadGrid(ctx, sc, aID)
	if err != nil {
		return nil, err
	}
	b, ok := g.Get(bID)
	if !ok {
		// entry b ada tapi di datesheet lain → beda blok; tidak ada → 404
		if _, err := s.Repo.GetEntry(ctx, sc.SchoolID, bID); err != nil {
			return nil, err
		}
		return nil, gridErr(grid.ErrDifferentBlock)
	}
	if a.DatesheetEntryClassID != b.DatesheetEntryClassID {
		return nil, gridErr(grid.ErrDifferentBlock)
	}
	return s.swap(ctx, sc, g, *a, b)
}

// Drop: handler drag & drop grid. Tanggal sama → noop, slot kosong → move,
// slot berisi → swap dengan penghuninya.
func (s *Service) Drop(ctx context.Context, sc m.Scope, id uuid.UUID, target time.Time) (*dto.MutationResult, error) {
	e, g, err := s.loadGrid(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if dbtime.SameDate(e.DatesheetEntryExamDate, target) {
		return s.result(ctx, sc, dto.DropNoop, false, g, id)
	}
	if occ, ok := g.Occupant(e.DatesheetEntryClassID, target, id); ok {
		return s.swap(ctx, sc, g, *e, occ)
	}
	return s.move(ctx, sc, g, *e, target)
}

/* =========================
   Available subjects (existing entry)
   ========================= */

// EntryAvailableSubjects: kandidat subject class dikurangi subject entry lain di blok yang sama.
// Subject milik entry ini tetap tersedia.
func (s *Service) EntryAvailableSubjects(ctx context.Context, sc m.Scope, id uuid.UUID) ([]draft.Subject, error) {
	e, err := s.Repo.GetEntry(ctx, sc.SchoolID, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.Repo.ListEntries(ctx, sc.SchoolID, e.DatesheetEntryDatesheetID, []uuid.UUID{e.DatesheetEntryClassID})
	if err != nil {
		return nil, err
	}
	rows, err := s.candidates(ctx, sc.SchoolID, &e.DatesheetEntryClassID)
	if err != nil {
		return nil, err
	}

	d := draft.Draft{Items: make([]draft.Item, 0, len(siblings))}
	for _, o := range siblings {
		if o.IsEmpty() {
			continue
		}
		if o.DatesheetEntryID == e.DatesheetEntryID {
			i := len(d.Items)
			d.EditIndex = &i
		}
		d.Items = append(d.Items, draft.Item{SubjectID: *o.DatesheetEntrySubjectID})
	}
	return d.AvailableSubjects(toDraftSubjects(rows)), nil
}
