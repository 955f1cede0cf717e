package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	"schoolku_backend/internals/features/school/exams/exports"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/helpers/dbtime"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportDoc: datesheet + entry ber-subject, siap dirender.
func (s *Service) ExportDoc(ctx context.Context, sc m.Scope, id uuid.UUID) (*exports.DatesheetDoc, error) {
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
	classes, err := s.Repo.ListClassesByIDs(ctx, sc.SchoolID, ds.ClassUUIDs())
	if err != nil {
		return nil, err
	}
	classNames := map[uuid.UUID]string{}
	for _, c := range classes {
		classNames[c.ClassID] = c.DisplayName()
	}

	doc := &exports.DatesheetDoc{
		Title:      ds.DatesheetTitle,
		Session:    ds.DatesheetSession,
		ExamCenter: ds.DatesheetExamCenter,
		Rows:       make([]exports.Row, 0, len(entries)),
	}
	for _, e := range entries {
		if e.IsEmpty() {
			continue
		}
		doc.Rows = append(doc.Rows, exports.Row{
			ClassName:   classNames[e.DatesheetEntryClassID],
			SubjectName: names[*e.DatesheetEntrySubjectID],
			Date:        dbtime.FormatDate(e.DatesheetEntryExamDate),
			StartTime:   e.DatesheetEntryStartTime.String(),
			EndTime:     e.DatesheetEntryEndTime.String(),
			Room:        e.DatesheetEntryRoomNumber,
		})
	}
	return doc, nil
}

// File hasil export.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

func (s *Service) ExportPDF(ctx context.Context, sc m.Scope, id uuid.UUID) (*File, error) {
	doc, err := s.ExportDoc(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	body, err := exports.DatesheetPDF(*doc)
	if err != nil {
		return nil, err
	}
	return &File{Name: doc.Filename("pdf"), ContentType: mimePDF, Body: body}, nil
}

func (s *Service) ExportXLSX(ctx context.Context, sc m.Scope, id uuid.UUID) (*File, error) {
	doc, err := s.ExportDoc(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	body, err := exports.DatesheetXLSX(*doc)
	if err != nil {
		return nil, err
	}
	return &File{Name: doc.Filename("xlsx"), ContentType: mimeXLSX, Body: body}, nil
}

// Publish: render PDF lalu upload ke object storage.
// Key: <school>/datesheets/<id>/<nama>-<unix>.pdf
func (s *Service) Publish(ctx context.Context, sc m.Scope, id uuid.UUID) (*dto.PublishResponse, error) {
	if s.Publisher == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Object storage belum dikonfigurasi")
	}
	f, err := s.ExportPDF(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s/datesheets/%s/%d-%s", sc.SchoolID, id, time.Now().Unix(), f.Name)
	url, err := s.Publisher.Publish(ctx, key, f.ContentType, f.Body)
	if err != nil {
		log.Printf("[Datesheet.Publish] %s upload gagal: %v", id, err)
		return nil, fiber.NewError(fiber.StatusBadGateway, "Gagal upload file export")
	}
	log.Printf("[Datesheet.Publish] 📤 %s → %s", id, url)
	return &dto.PublishResponse{DatesheetID: id, URL: url, Key: key, Size: len(f.Body)}, nil
}
