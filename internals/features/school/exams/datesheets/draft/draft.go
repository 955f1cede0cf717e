// Package draft: staging list subject-slot sebelum datesheet disimpan.
// Semua operasi menerima Draft dan mengembalikan Draft baru (nilai lama tidak diubah).
package draft

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

type Subject struct {
	ID   uuid.UUID `json:"subject_id"`
	Name string    `json:"subject_name"`
}

// Item: satu tuple (subject, tanggal, jam mulai, jam selesai).
type Item struct {
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	ExamDate    string    `json:"exam_date"`  // YYYY-MM-DD
	StartTime   string    `json:"start_time"` // HH:MM
	EndTime     string    `json:"end_time"`   // HH:MM
}

// Input: isi field form (semua opsional di level tipe, divalidasi di Add).
type Input struct {
	SubjectID string `json:"subject_id"`
	ExamDate  string `json:"exam_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type Draft struct {
	Items     []Item `json:"items"`
	EditIndex *int   `json:"edit_index"`
}

func (d Draft) clone() Draft {
	out := Draft{Items: append([]Item{}, d.Items...)}
	if d.EditIndex != nil {
		i := *d.EditIndex
		out.EditIndex = &i
	}
	return out
}

func (d Draft) Editing() bool {
	return d.EditIndex != nil && *d.EditIndex >= 0 && *d.EditIndex < len(d.Items)
}

/* =========================
   Add / Submit
   ========================= */

// Add memvalidasi input, lookup nama subject, lalu append.
// Saat mode edit, tuple di EditIndex yang diganti dan mode edit selesai.
func (d Draft) Add(in Input, subjects []Subject) (Draft, error) {
	item, err := d.validate(in, subjects)
	if err != nil {
		return d, err
	}

	out := d.clone()
	if out.Editing() {
		out.Items[*out.EditIndex] = item
		out.EditIndex = nil
		return out, nil
	}
	out.EditIndex = nil
	out.Items = append(out.Items, item)
	return out, nil
}

func (d Draft) validate(in Input, subjects []Subject) (Item, error) {
	ve := helper.NewValidationError()

	var (
		subjectID uuid.UUID
		name      string
	)
	if s := strings.TrimSpace(in.SubjectID); s == "" {
		ve.Add("subject_id", "Please select a subject")
	} else if id, err := uuid.Parse(s); err != nil {
		ve.Add("subject_id", "must be a valid UUID")
	} else {
		subjectID = id
		found := false
		for _, sub := range subjects {
			if sub.ID == id {
				name, found = sub.Name, true
				break
			}
		}
		switch {
		case !found:
			ve.Add("subject_id", "Subject not found")
		case d.hasSubject(id):
			ve.Add("subject_id", fmt.Sprintf("%s is already in the list", name))
		}
	}

	if s := strings.TrimSpace(in.ExamDate); s == "" {
		ve.Add("exam_date", "Please select a date")
	} else if _, err := dbtime.ParseDate(s); err != nil {
		ve.Add("exam_date", "must match format YYYY-MM-DD")
	}

	var start, end dbtime.Tod
	var startOK, endOK bool
	if s := strings.TrimSpace(in.StartTime); s == "" {
		ve.Add("start_time", "Please select a start time")
	} else if t, err := dbtime.ParseTod(s); err != nil {
		ve.Add("start_time", "must match format HH:MM")
	} else {
		start, startOK = t, true
	}
	if s := strings.TrimSpace(in.EndTime); s == "" {
		ve.Add("end_time", "Please select an end time")
	} else if t, err := dbtime.ParseTod(s); err != nil {
		ve.Add("end_time", "must match format HH:MM")
	} else {
		end, endOK = t, true
	}
	if startOK && endOK && end.Minutes() <= start.Minutes() {
		ve.Add("end_time", "must be after start time")
	}

	if err := ve.OrNil(); err != nil {
		return Item{}, err
	}
	return Item{
		SubjectID:   subjectID,
		SubjectName: name,
		ExamDate:    strings.TrimSpace(in.ExamDate),
		StartTime:   start.String(),
		EndTime:     end.String(),
	}, nil
}

// hasSubject: subject sudah ada di list (tuple yang sedang diedit tidak dihitung).
func (d Draft) hasSubject(id uuid.UUID) bool {
	for i, it := range d.Items {
		if d.Editing() && i == *d.EditIndex {
			continue
		}
		if it.SubjectID == id {
			return true
		}
	}
	return false
}

/* =========================
   Edit-in-place
   ========================= */

// BeginEdit menandai index i dan mengembalikan field form-nya.
func (d Draft) BeginEdit(i int) (Draft, Input, error) {
	if i < 0 || i >= len(d.Items) {
		return d, Input{}, helper.FieldError("index", "out of range")
	}
	out := d.clone()
	out.EditIndex = &i
	it := d.Items[i]
	return out, Input{
		SubjectID: it.SubjectID.String(),
		ExamDate:  it.ExamDate,
		StartTime: it.StartTime,
		EndTime:   it.EndTime,
	}, nil
}

func (d Draft) CancelEdit() Draft {
	out := d.clone()
	out.EditIndex = nil
	return out
}

/* =========================
   Remove
   ========================= */

// Remove menghapus index i dan menjaga EditIndex tetap menunjuk tuple yang sama.
func (d Draft) Remove(i int) (Draft, error) {
	if i < 0 || i >= len(d.Items) {
		return d, helper.FieldError("index", "out of range")
	}
	out := d.clone()
	out.Items = append(out.Items[:i], out.Items[i+1:]...)

	if out.EditIndex != nil {
		switch {
		case *out.EditIndex == i:
			out.EditIndex = nil
		case i < *out.EditIndex:
			*out.EditIndex--
		}
	}
	return out, nil
}

/* =========================
   Available subjects
   ========================= */

// AvailableSubjects: semua subject dikurangi yang sudah di-stage,
// kecuali subject milik tuple yang sedang diedit.
func (d Draft) AvailableSubjects(all []Subject) []Subject {
	out := make([]Subject, 0, len(all))
	for _, s := range all {
		if !d.hasSubject(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// Validate: cek list final sebelum disimpan (≥1 tuple, tanpa subject ganda).
func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return helper.FieldError("entries", "Please add at least one subject")
	}
	seen := map[uuid.UUID]bool{}
	for i, it := range d.Items {
		if seen[it.SubjectID] {
			return helper.FieldError(fmt.Sprintf("entries[%d].subject_id", i), "duplicate subject")
		}
		seen[it.SubjectID] = true
	}
	return nil
}
