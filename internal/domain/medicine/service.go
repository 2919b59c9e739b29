// Package medicine is the medicine inventory and availability checker.
package medicine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseExpiry accepts an RFC 3339 timestamp or a plain date. Blank means
// no expiry date.
func parseExpiry(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*s)); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("Validation failed", "expiryDate must be a valid date")
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Medicine, error) {
	f.Search = strings.TrimSpace(f.Search)
	switch f.Availability {
	case "", InStock, LowStock, OutOfStock:
	default:
		return nil, apperr.Validation("Validation failed", "availability must be one of: in_stock, low_stock, out_of_stock")
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Medicine, error) {
	req.Name = validate.CleanText(req.Name)
	req.Unit = validate.CleanText(req.Unit)
	req.Description = validate.CleanOptional(req.Description)
	req.Location = validate.CleanOptional(req.Location)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	expiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	m := &Medicine{
		Name:        req.Name,
		Description: req.Description,
		StockLevel:  *req.StockLevel,
		Unit:        req.Unit,
		ExpiryDate:  expiry,
		Location:    req.Location,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update applies the fields present in req. An absent or blank expiryDate
// keeps the stored one.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Medicine, error) {
	for _, p := range []*string{req.Name, req.Unit, req.Description, req.Location} {
		if p != nil {
			*p = validate.CleanText(*p)
		}
	}
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	expiry, err := parseExpiry(req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.StockLevel != nil {
		m.StockLevel = *req.StockLevel
	}
	if req.Unit != nil {
		m.Unit = *req.Unit
	}
	if expiry != nil {
		m.ExpiryDate = expiry
	}
	if req.Location != nil {
		m.Location = req.Location
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
