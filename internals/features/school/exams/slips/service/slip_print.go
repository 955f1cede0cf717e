package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/features/school/exams/exports"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	"schoolku_backend/internals/features/school/exams/slips/dto"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/dbtime"
)

type File struct {
	Name        string
	ContentType string
	Body        []byte
}

func toDoc(v dto.SlipView) exports.SlipDoc {
	doc := exports.SlipDoc{
		SlipNumber:     v.Slip.ExamSlipNumber,
		SlipLabel:      v.SlipLabel,
		StudentName:    v.Student.FullName,
		FatherName:     v.Student.FatherName,
		AdmissionNo:    v.Student.AdmissionNumber,
		ClassName:      v.ClassName,
		DatesheetTitle: v.Datesheet.Title,
		Session:        v.Datesheet.Session,
		ExamCenter:     v.Datesheet.ExamCenter,
		Rows:           make([]exports.Row, 0, len(v.Schedule)),
	}
	for _, r := range v.Schedule {
		doc.Rows = append(doc.Rows, exports.Row{
			ClassName:   v.ClassName,
			SubjectName: r.SubjectName,
			Date:        r.ExamDate,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			Room:        r.RoomNumber,
		})
	}
	return doc
}

// PrintOne: PDF satu slip.
func (s *Service) PrintOne(ctx context.Context, sc m.Scope, id uuid.UUID) (*File, error) {
	v, err := s.Render(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	body, err := exports.SlipsPDF([]exports.SlipDoc{toDoc(*v)})
	if err != nil {
		return nil, err
	}
	return &File{Name: helper.SafeFilename(v.Slip.ExamSlipNumber, "pdf"), ContentType: "application/pdf", Body: body}, nil
}

// PrintClass: PDF gabungan semua slip class tsb (satu halaman per siswa).
func (s *Service) PrintClass(ctx context.Context, sc m.Scope, datesheetID, classID uuid.UUID, typ m.ExamSlipType) (*File, error) {
	if typ == "" {
		typ = m.SlipAdmitCard
	}
	if !typ.Valid() {
		return nil, helper.FieldError("slip_type", "must be one of [roll_no_slip admit_card]")
	}
	ds, err := s.Repo.GetDatesheet(ctx, sc.SchoolID, datesheetID)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.Repo.ListSlips(ctx, repository.SlipFilter{
		SchoolID:    sc.SchoolID,
		DatesheetID: &datesheetID,
		ClassID:     &classID,
		Type:        typ,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fiber.NewError(fiber.StatusNotFound, WarnNoSlip)
	}

	docs := make([]exports.SlipDoc, 0, len(rows))
	for _, row := range rows {
		v, err := s.render(ctx, row, ds, nil)
		if err != nil {
			return nil, err
		}
		docs = append(docs, toDoc(*v))
	}
	body, err := exports.SlipsPDF(docs)
	if err != nil {
		return nil, err
	}
	name := helper.SafeFilename(fmt.Sprintf("%s %s %s", ds.DatesheetTitle, typ, classID.String()[:8]), "pdf")
	return &File{Name: name, ContentType: "application/pdf", Body: body}, nil
}

/* =========================
   Auto-generate (job terjadwal)
   ========================= */

// GenerateMissingForUpcoming: admit card untuk semua class pada datesheet yang
// mulai dalam [hari ini, hari ini + daysAhead], "hari ini" menurut timezone sekolah (loc).
// Error per class dicatat, tidak menghentikan putaran.
func (s *Service) GenerateMissingForUpcoming(ctx context.Context, now time.Time, loc *time.Location, daysAhead int) (*dto.AutogenReport, error) {
	if daysAhead < 0 {
		daysAhead = 0
	}
	from := dbtime.TodayIn(loc, now)
	to := from.AddDate(0, 0, daysAhead)

	list, err := s.Repo.ListUpcomingDatesheets(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rep := &dto.AutogenReport{Datesheets: len(list)}
	for _, ds := range list {
		for _, classID := range ds.ClassUUIDs() {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			rep.Classes++
			res, err := s.bulk(ctx, ds, classID, m.SlipAdmitCard, m.SlipSourceCron, nil)
			if err != nil {
				rep.Failed++
				log.Printf("[SLIP-AUTOGEN] datesheet=%s class=%s error: %v", ds.DatesheetID, classID, err)
				continue
			}
			rep.Created += res.Created
			rep.Skipped += res.Skipped
		}
	}
	return rep, nil
}
