package service

import (
	"context"

	"github.com/google/uuid"

	acm "schoolku_backend/internals/features/school/academics/model"
	"schoolku_backend/internals/features/school/exams/datesheets/draft"
	"schoolku_backend/internals/features/school/exams/datesheets/dto"
	m "schoolku_backend/internals/features/school/exams/model"
	helper "schoolku_backend/internals/helpers"
)

func toDraftSubjects(rows []acm.SubjectModel) []draft.Subject {
	out := make([]draft.Subject, 0, len(rows))
	for _, r := range rows {
		out = append(out, draft.Subject{ID: r.SubjectID, Name: r.SubjectName})
	}
	return out
}

func (s *Service) draftSubjects(ctx context.Context, sc m.Scope, classID string) ([]draft.Subject, error) {
	var cid *uuid.UUID
	if id, err := uuid.Parse(classID); err == nil {
		cid = &id
	}
	rows, err := s.candidates(ctx, sc.SchoolID, cid)
	if err != nil {
		return nil, err
	}
	return toDraftSubjects(rows), nil
}

// DraftAdd: Add/Submit tuple (append, atau replace saat mode edit).
func (s *Service) DraftAdd(ctx context.Context, sc m.Scope, req dto.DraftAddRequest) (*dto.DraftResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	subjects, err := s.draftSubjects(ctx, sc, req.ClassID)
	if err != nil {
		return nil, err
	}
	next, err := req.Draft.Add(req.Input, subjects)
	if err != nil {
		return nil, err
	}
	return &dto.DraftResponse{Draft: next, AvailableSubjects: next.AvailableSubjects(subjects)}, nil
}

func (s *Service) DraftBeginEdit(ctx context.Context, sc m.Scope, req dto.DraftIndexRequest) (*dto.DraftResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	subjects, err := s.draftSubjects(ctx, sc, req.ClassID)
	if err != nil {
		return nil, err
	}
	next, input, err := req.Draft.BeginEdit(req.Index)
	if err != nil {
		return nil, err
	}
	return &dto.DraftResponse{Draft: next, Input: &input, AvailableSubjects: next.AvailableSubjects(subjects)}, nil
}

func (s *Service) DraftRemove(ctx context.Context, sc m.Scope, req dto.DraftIndexRequest) (*dto.DraftResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	subjects, err := s.draftSubjects(ctx, sc, req.ClassID)
	if err != nil {
		return nil, err
	}
	next, err := req.Draft.Remove(req.Index)
	if err != nil {
		return nil, err
	}
	return &dto.DraftResponse{Draft: next, AvailableSubjects: next.AvailableSubjects(subjects)}, nil
}

func (s *Service) DraftAvailableSubjects(ctx context.Context, sc m.Scope, req dto.DraftAvailableRequest) (*dto.DraftResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	subjects, err := s.draftSubjects(ctx, sc, req.ClassID)
	if err != nil {
		return nil, err
	}
	return &dto.DraftResponse{Draft: req.Draft, AvailableSubjects: req.Draft.AvailableSubjects(subjects)}, nil
}

// DraftCancel: keluar dari mode edit tanpa mengubah list.
func (s *Service) DraftCancel(ctx context.Context, sc m.Scope, req dto.DraftAvailableRequest) (*dto.DraftResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	subjects, err := s.draftSubjects(ctx, sc, req.ClassID)
	if err != nil {
		return nil, err
	}
	next := req.Draft.CancelEdit()
	return &dto.DraftResponse{Draft: next, AvailableSubjects: next.AvailableSubjects(subjects)}, nil
}

// DraftSubmit: cek list final lalu simpan lewat jalur Create biasa.
func (s *Service) DraftSubmit(ctx context.Context, sc m.Scope, req dto.DraftSubmitRequest) (*dto.DatesheetDetail, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.Draft.Editing() {
		return nil, helper.FieldError("draft.edit_index", "Finish or cancel the edit first")
	}
	if err := req.Draft.Validate(); err != nil {
		return nil, err
	}
	return s.Create(ctx, sc, req.ToForm())
}
