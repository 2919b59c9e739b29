package facility

import (
	"context"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Facility, error) {
	req.Name = validate.CleanText(req.Name)
	req.Description = validate.CleanOptional(req.Description)
	req.Location = validate.CleanOptional(req.Location)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	f := &Facility{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Location:    req.Location,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Facility, error) {
	if filter.Type != "" && filter.Type != TypeMedical && filter.Type != TypeGeneral {
		return nil, apperr.Validation("Validation failed", "type must be one of: medical, general")
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Facility, error) {
	if req.Name != nil {
		name := validate.CleanText(*req.Name)
		req.Name = &name
	}
	if req.Description != nil {
		desc := validate.CleanText(*req.Description)
		req.Description = &desc
	}
	if req.Location != nil {
		loc := validate.CleanText(*req.Location)
		req.Location = &loc
	}
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(f)
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Exists reports whether id names a facility. It is used by the complaint
// engine before a complaint is written.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return false, nil
	}
	return err == nil, err
}
