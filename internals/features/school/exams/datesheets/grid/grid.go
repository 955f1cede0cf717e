// Package grid: jadwal satu datesheet di memori (class × tanggal) untuk operasi
// move/swap/drop dengan snapshot + rollback.
package grid

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/helpers/dbtime"
)

/* =========================
   Errors
   ========================= */

// SlotConflictError: slot (class, tanggal) tujuan sudah berisi subject lain.
type SlotConflictError struct {
	Message  string                `json:"message"`
	Occupant m.DatesheetEntryModel `json:"occupant"`
}

func (e *SlotConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *SlotConflictError) StatusCode() int { return http.StatusConflict }
func (e *SlotConflictError) ErrorData() any  { return map[string]any{"occupant": e.Occupant} }

var (
	ErrEntryNotInGrid = errors.New("grid: entry not found")
	ErrDifferentBlock = errors.New("grid: entries belong to different datesheet/class")
	ErrUnknownDate    = errors.New("grid: target date is not used by this datesheet")
)

/* =========================
   Grid
   ========================= */

type Grid struct {
	entries []m.DatesheetEntryModel
}

// Snapshot: salinan dalam (deep copy) entries pada satu titik waktu.
type Snapshot struct {
	entries []m.DatesheetEntryModel
}

func cloneAll(in []m.DatesheetEntryModel) []m.DatesheetEntryModel {
	out := make([]m.DatesheetEntryModel, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func New(entries []m.DatesheetEntryModel) *Grid {
	return &Grid{entries: cloneAll(entries)}
}

func (g *Grid) Snapshot() Snapshot { return Snapshot{entries: cloneAll(g.entries)} }

// Restore mengembalikan grid ke snapshot (snapshot tetap bisa dipakai ulang).
func (g *Grid) Restore(s Snapshot) { g.entries = cloneAll(s.entries) }

func (g *Grid) Entries() []m.DatesheetEntryModel { return cloneAll(g.entries) }

func (g *Grid) Len() int { return len(g.entries) }

func (g *Grid) index(id uuid.UUID) int {
	for i := range g.entries {
		if g.entries[i].DatesheetEntryID == id {
			return i
		}
	}
	return -1
}

func (g *Grid) Get(id uuid.UUID) (m.DatesheetEntryModel, bool) {
	if i := g.index(id); i >= 0 {
		return g.entries[i].Clone(), true
	}
	return m.DatesheetEntryModel{}, false
}

// Dates: tanggal unik yang dipakai datesheet (kolom grid), urut naik.
func (g *Grid) Dates() []time.Time {
	seen := map[time.Time]bool{}
	out := make([]time.Time, 0)
	for _, e := range g.entries {
		d := dbtime.DateOnly(e.DatesheetEntryExamDate)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (g *Grid) HasDate(d time.Time) bool {
	for _, x := range g.Dates() {
		if x.Equal(dbtime.DateOnly(d)) {
			return true
		}
	}
	return false
}

// Occupant: entry ber-subject di slot (class, tanggal) selain exclude.
func (g *Grid) Occupant(classID uuid.UUID, date time.Time, exclude uuid.UUID) (m.DatesheetEntryModel, bool) {
	for _, e := range g.entries {
		if e.DatesheetEntryID == exclude || e.IsEmpty() {
			continue
		}
		if e.DatesheetEntryClassID == classID && dbtime.SameDate(e.DatesheetEntryExamDate, date) {
			return e.Clone(), true
		}
	}
	return m.DatesheetEntryModel{}, false
}

// MaxSubjectCount: jumlah subject terbanyak di antara class (hint tampilan kolom).
func (g *Grid) MaxSubjectCount() int {
	per := map[uuid.UUID]int{}
	best := 0
	for _, e := range g.entries {
		if e.IsEmpty() {
			continue
		}
		per[e.DatesheetEntryClassID]++
		if per[e.DatesheetEntryClassID] > best {
			best = per[e.DatesheetEntryClassID]
		}
	}
	return best
}

/* =========================
   Mutations (lokal)
   ========================= */

// Move: ubah exam_date entry ke target. No-op bila tanggal sama.
// Slot tujuan harus kosong, kalau tidak → *SlotConflictError berisi occupant.
func (g *Grid) Move(id uuid.UUID, target time.Time) (changed bool, err error) {
	i := g.index(id)
	if i < 0 {
		return false, ErrEntryNotInGrid
	}
	target = dbtime.DateOnly(target)
	e := g.entries[i]
	if dbtime.SameDate(e.DatesheetEntryExamDate, target) {
		return false, nil
	}
	if !g.HasDate(target) {
		return false, ErrUnknownDate
	}
	if occ, ok := g.Occupant(e.DatesheetEntryClassID, target, e.DatesheetEntryID); ok {
		return false, &SlotConflictError{
			Message:  "Slot tujuan sudah berisi subject lain",
			Occupant: occ,
		}
	}
	g.entries[i].DatesheetEntryExamDate = target
	return true, nil
}

// Swap: tukar exam_date dua entry di datesheet & class yang sama. Field lain tetap.
func (g *Grid) Swap(a, b uuid.UUID) error {
	ia, ib := g.index(a), g.index(b)
	if ia < 0 || ib < 0 {
		return ErrEntryNotInGrid
	}
	ea, eb := g.entries[ia], g.entries[ib]
	if ea.DatesheetEntryDatesheetID != eb.DatesheetEntryDatesheetID || ea.DatesheetEntryClassID != eb.DatesheetEntryClassID {
		return ErrDifferentBlock
	}
	g.entries[ia].DatesheetEntryExamDate, g.entries[ib].DatesheetEntryExamDate =
		eb.DatesheetEntryExamDate, ea.DatesheetEntryExamDate
	return nil
}

/* =========================
   Optimistic transition
   ========================= */

// Apply: snapshot → mutasi lokal → persist. Bila persist gagal, grid dikembalikan
// tepat ke snapshot yang diambil di awal.
func (g *Grid) Apply(local func(*Grid) error, persist func() error) error {
	snap := g.Snapshot()
	if err := local(g); err != nil {
		g.Restore(snap)
		return err
	}
	if err := persist(); err != nil {
		g.Restore(snap)
		return err
	}
	return nil
}
