package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	acm "schoolku_backend/internals/features/school/academics/model"
	"schoolku_backend/internals/features/school/exams/datesheets/draft"
	m "schoolku_backend/internals/features/school/exams/model"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

/* =========================================================
   PATCH FIELD: tri-state (absent | null | value)
   ========================================================= */

type PatchField[T any] struct {
	Present bool
	Value   *T
}

func (p *PatchField[T]) UnmarshalJSON(b []byte) error {
	p.Present = true
	if string(b) == "null" {
		p.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

func (p PatchField[T]) Get() (*T, bool) { return p.Value, p.Present }

/* =========================================================
   FORM (create & edit pakai bentuk yang sama)
   ========================================================= */

// EntryInput: satu baris subject di form. ClassID kosong = class form.
type EntryInput struct {
	ClassID     string  `json:"class_id,omitempty" validate:"omitempty,uuid"`
	SubjectID   string  `json:"subject_id" validate:"required,uuid"`
	SubjectName string  `json:"subject_name,omitempty"`
	ExamDate    string  `json:"exam_date" validate:"required,datetime=2006-01-02"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	RoomNumber  *string `json:"room_number,omitempty" validate:"omitempty,max=160"`
}

type DatesheetForm struct {
	ClassID    string       `json:"class_id" validate:"required,uuid"`
	Title      string       `json:"title" validate:"required,max=200"`
	Session    string       `json:"session" validate:"omitempty,max=40"`
	ExamCenter string       `json:"exam_center" validate:"max=160"`
	StartDate  string       `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Entries    []EntryInput `json:"entries" validate:"required,min=1,dive"`
}

func (f *DatesheetForm) Normalize() {
	f.ClassID = strings.TrimSpace(f.ClassID)
	f.Title = strings.TrimSpace(f.Title)
	f.Session = strings.TrimSpace(f.Session)
	f.ExamCenter = strings.TrimSpace(f.ExamCenter)
	f.StartDate = strings.TrimSpace(f.StartDate)
	for i := range f.Entries {
		e := &f.Entries[i]
		e.ClassID = strings.TrimSpace(e.ClassID)
		e.SubjectID = strings.TrimSpace(e.SubjectID)
		e.ExamDate = strings.TrimSpace(e.ExamDate)
		e.StartTime = strings.TrimSpace(e.StartTime)
		e.EndTime = strings.TrimSpace(e.EndTime)
		if e.RoomNumber != nil {
			v := strings.TrimSpace(*e.RoomNumber)
			if v == "" {
				e.RoomNumber = nil
			} else {
				e.RoomNumber = &v
			}
		}
	}
}

// ToEntries: EntryInput → model (belum ada datesheet_id). Error = *helper.ValidationError.
func ToEntries(schoolID, defaultClass uuid.UUID, roomDefault string, in []EntryInput) ([]m.DatesheetEntryModel, error) {
	ve := helper.NewValidationError()
	out := make([]m.DatesheetEntryModel, 0, len(in))
	seen := map[string]int{}

	for i, e := range in {
		field := func(name string) string { return fmt.Sprintf("entries[%d].%s", i, name) }

		classID := defaultClass
		if e.ClassID != "" {
			id, err := uuid.Parse(e.ClassID)
			if err != nil {
				ve.Add(field("class_id"), "must be a valid UUID")
				continue
			}
			classID = id
		}
		subjectID, err := uuid.Parse(e.SubjectID)
		if err != nil {
			ve.Add(field("subject_id"), "must be a valid UUID")
			continue
		}
		date, err := dbtime.ParseDate(e.ExamDate)
		if err != nil {
			ve.Add(field("exam_date"), "must match format YYYY-MM-DD")
		}
		start, err1 := dbtime.ParseTod(e.StartTime)
		if err1 != nil {
			ve.Add(field("start_time"), "must match format HH:MM")
		}
		end, err2 := dbtime.ParseTod(e.EndTime)
		if err2 != nil {
			ve.Add(field("end_time"), "must match format HH:MM")
		}
		if err1 == nil && err2 == nil && end.Minutes() <= start.Minutes() {
			ve.Add(field("end_time"), "must be after start time")
		}

		key := classID.String() + "|" + subjectID.String()
		if prev, dup := seen[key]; dup {
			ve.Add(field("subject_id"), fmt.Sprintf("duplicate subject (same as entries[%d])", prev))
		} else {
			seen[key] = i
		}

		room := roomDefault
		if e.RoomNumber != nil {
			room = *e.RoomNumber
		}
		sid := subjectID
		out = append(out, m.DatesheetEntryModel{
			DatesheetEntrySchoolID:   schoolID,
			DatesheetEntryClassID:    classID,
			DatesheetEntrySubjectID:  &sid,
			DatesheetEntryExamDate:   date,
			DatesheetEntryStartTime:  start,
			DatesheetEntryEndTime:    end,
			DatesheetEntryRoomNumber: room,
		})
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

/* =========================================================
   Entry mutation requests
   ========================================================= */

type PatchEntryRequest struct {
	SubjectID  PatchField[string] `json:"subject_id"`
	ExamDate   *string            `json:"exam_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime  *string            `json:"start_time"`
	EndTime    *string            `json:"end_time"`
	RoomNumber *string            `json:"room_number" validate:"omitempty,max=160"`
}

type MoveEntryRequest struct {
	TargetDate string `json:"target_date" validate:"required,datetime=2006-01-02"`
}

type SwapEntriesRequest struct {
	EntryAID string `json:"entry_a_id" validate:"required,uuid"`
	EntryBID string `json:"entry_b_id" validate:"required,uuid"`
}

type ClassBlockRequest struct {
	ClassID string       `json:"class_id" validate:"required,uuid"`
	Entries []EntryInput `json:"entries" validate:"required,min=1,dive"`
}

/* =========================================================
   Draft requests
   ========================================================= */

type DraftAddRequest struct {
	ClassID string      `json:"class_id" validate:"omitempty,uuid"`
	Draft   draft.Draft `json:"draft"`
	Input   draft.Input `json:"input"`
}

type DraftIndexRequest struct {
	ClassID string      `json:"class_id" validate:"omitempty,uuid"`
	Draft   draft.Draft `json:"draft"`
	Index   int         `json:"index"`
}

type DraftAvailableRequest struct {
	ClassID string      `json:"class_id" validate:"omitempty,uuid"`
	Draft   draft.Draft `json:"draft"`
}

// DraftSubmitRequest: header form + list staging, disimpan jadi datesheet baru.
type DraftSubmitRequest struct {
	ClassID    string      `json:"class_id" validate:"required,uuid"`
	Title      string      `json:"title" validate:"required,max=200"`
	Session    string      `json:"session" validate:"omitempty,max=40"`
	ExamCenter string      `json:"exam_center" validate:"max=160"`
	StartDate  string      `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Draft      draft.Draft `json:"draft"`
}

// ToForm: item staging → DatesheetForm (class form dipakai untuk semua baris).
func (r DraftSubmitRequest) ToForm() DatesheetForm {
	f := DatesheetForm{
		ClassID:    r.ClassID,
		Title:      r.Title,
		Session:    r.Session,
		ExamCenter: r.ExamCenter,
		StartDate:  r.StartDate,
		Entries:    make([]EntryInput, 0, len(r.Draft.Items)),
	}
	for _, it := range r.Draft.Items {
		f.Entries = append(f.Entries, EntryInput{
			SubjectID:   it.SubjectID.String(),
			SubjectName: it.SubjectName,
			ExamDate:    it.ExamDate,
			StartTime:   it.StartTime,
			EndTime:     it.EndTime,
		})
	}
	f.Normalize()
	return f
}

type DraftResponse struct {
	Draft             draft.Draft     `json:"draft"`
	Input             *draft.Input    `json:"input,omitempty"`
	AvailableSubjects []draft.Subject `json:"available_subjects"`
}

/* =========================================================
   Responses
   ========================================================= */

type DatesheetResponse struct {
	DatesheetID              uuid.UUID   `json:"datesheet_id"`
	DatesheetSchoolID        uuid.UUID   `json:"datesheet_school_id"`
	DatesheetSession         string      `json:"datesheet_session"`
	DatesheetTitle           string      `json:"datesheet_title"`
	DatesheetStartDate       string      `json:"datesheet_start_date"`
	DatesheetExamCenter      string      `json:"datesheet_exam_center"`
	DatesheetClassIDs        []uuid.UUID `json:"datesheet_class_ids"`
	DatesheetCreatedByUserID *uuid.UUID  `json:"datesheet_created_by_user_id,omitempty"`
	DatesheetCreatedAt       time.Time   `json:"datesheet_created_at"`
	DatesheetUpdatedAt       time.Time   `json:"datesheet_updated_at"`
}

func FromDatesheetModel(row m.DatesheetModel) DatesheetResponse {
	return DatesheetResponse{
		DatesheetID:              row.DatesheetID,
		DatesheetSchoolID:        row.DatesheetSchoolID,
		DatesheetSession:         row.DatesheetSession,
		DatesheetTitle:           row.DatesheetTitle,
		DatesheetStartDate:       dbtime.FormatDate(row.DatesheetStartDate),
		DatesheetExamCenter:      row.DatesheetExamCenter,
		DatesheetClassIDs:        row.ClassUUIDs(),
		DatesheetCreatedByUserID: row.DatesheetCreatedByUserID,
		DatesheetCreatedAt:       row.DatesheetCreatedAt,
		DatesheetUpdatedAt:       row.DatesheetUpdatedAt,
	}
}

func FromDatesheetModels(rows []m.DatesheetModel) []DatesheetResponse {
	out := make([]DatesheetResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDatesheetModel(r))
	}
	return out
}

type EntryResponse struct {
	DatesheetEntryID          uuid.UUID  `json:"datesheet_entry_id"`
	DatesheetEntryDatesheetID uuid.UUID  `json:"datesheet_entry_datesheet_id"`
	DatesheetEntryClassID     uuid.UUID  `json:"datesheet_entry_class_id"`
	DatesheetEntrySubjectID   *uuid.UUID `json:"datesheet_entry_subject_id"`
	SubjectName               string     `json:"subject_name,omitempty"`
	DatesheetEntryExamDate    string     `json:"datesheet_entry_exam_date"`
	DatesheetEntryStartTime   string     `json:"datesheet_entry_start_time"`
	DatesheetEntryEndTime     string     `json:"datesheet_entry_end_time"`
	DatesheetEntryRoomNumber  string     `json:"datesheet_entry_room_number"`
}

// SubjectNames: lookup id → nama subject.
type SubjectNames map[uuid.UUID]string

func NamesOf(subjects []acm.SubjectModel) SubjectNames {
	out := make(SubjectNames, len(subjects))
	for _, s := range subjects {
		out[s.SubjectID] = s.SubjectName
	}
	return out
}

func FromEntryModel(row m.DatesheetEntryModel, names SubjectNames) EntryResponse {
	r := EntryResponse{
		DatesheetEntryID:          row.DatesheetEntryID,
		DatesheetEntryDatesheetID: row.DatesheetEntryDatesheetID,
		DatesheetEntryClassID:     row.DatesheetEntryClassID,
		DatesheetEntryExamDate:    dbtime.FormatDate(row.DatesheetEntryExamDate),
		DatesheetEntryStartTime:   row.DatesheetEntryStartTime.String(),
		DatesheetEntryEndTime:     row.DatesheetEntryEndTime.String(),
		DatesheetEntryRoomNumber:  row.DatesheetEntryRoomNumber,
	}
	if !row.IsEmpty() {
		id := *row.DatesheetEntrySubjectID
		r.DatesheetEntrySubjectID = &id
		r.SubjectName = names[id]
	}
	return r
}

func FromEntryModels(rows []m.DatesheetEntryModel, names SubjectNames) []EntryResponse {
	out := make([]EntryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromEntryModel(r, names))
	}
	return out
}

// DatesheetDetail: datesheet + entries, plus bentuk form untuk halaman edit.
type DatesheetDetail struct {
	Datesheet DatesheetResponse `json:"datesheet"`
	Entries   []EntryResponse   `json:"entries"`
	Form      DatesheetForm     `json:"form"`
}

// FormFrom membangun ulang form create dari datesheet yang tersimpan.
// Entry kosong (subject NULL) tidak bisa dinyatakan di form sehingga dilewati.
func FormFrom(ds m.DatesheetModel, entries []m.DatesheetEntryModel, names SubjectNames) DatesheetForm {
	f := DatesheetForm{
		Title:      ds.DatesheetTitle,
		Session:    ds.DatesheetSession,
		ExamCenter: ds.DatesheetExamCenter,
		StartDate:  dbtime.FormatDate(ds.DatesheetStartDate),
		Entries:    make([]EntryInput, 0, len(entries)),
	}
	if ids := ds.ClassUUIDs(); len(ids) > 0 {
		f.ClassID = ids[0].String()
	}
	for _, e := range entries {
		if e.IsEmpty() {
			continue
		}
		in := EntryInput{
			ClassID:     e.DatesheetEntryClassID.String(),
			SubjectID:   e.DatesheetEntrySubjectID.String(),
			SubjectName: names[*e.DatesheetEntrySubjectID],
			ExamDate:    dbtime.FormatDate(e.DatesheetEntryExamDate),
			StartTime:   e.DatesheetEntryStartTime.String(),
			EndTime:     e.DatesheetEntryEndTime.String(),
		}
		if e.DatesheetEntryRoomNumber != ds.DatesheetExamCenter {
			room := e.DatesheetEntryRoomNumber
			in.RoomNumber = &room
		}
		f.Entries = append(f.Entries, in)
	}
	return f
}

/* =========================================================
   Grid view
   ========================================================= */

type GridCell struct {
	Date    string          `json:"date"`
	Entries []EntryResponse `json:"entries"`
}

type GridRow struct {
	ClassID   uuid.UUID  `json:"class_id"`
	ClassName string     `json:"class_name"`
	Cells     []GridCell `json:"cells"`
}

type GridResponse struct {
	DatesheetID     uuid.UUID `json:"datesheet_id"`
	Title           string    `json:"title"`
	Dates           []string  `json:"dates"`
	MaxSubjectCount int       `json:"max_subject_count"`
	Rows            []GridRow `json:"rows"`
}

/* =========================================================
   Mutation results
   ========================================================= */

const (
	DropNoop = "noop"
	DropMove = "move"
	DropSwap = "swap"
)

type MutationResult struct {
	Action  string          `json:"action"`
	Changed bool            `json:"changed"`
	Entries []EntryResponse `json:"entries"`
}

type ClassBlockDeleted struct {
	DatesheetID    uuid.UUID     `json:"datesheet_id"`
	ClassID        uuid.UUID     `json:"class_id"`
	DeletedEntries int64         `json:"deleted_entries"`
	Grid           *GridResponse `json:"grid"`
}

/* =========================
   Export
   ========================= */

type PublishResponse struct {
	DatesheetID uuid.UUID `json:"datesheet_id"`
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	Size        int       `json:"size"`
}
