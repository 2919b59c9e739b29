// Package medical keeps residents' medical records and the consultation log
// written by medical staff.
package medical

import (
	"context"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
)

const recordNotFoundForLogging = "Medical record not found for logging."

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, userID uuid.UUID) (*Record, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// UpdateRecord changes the fields present in req. The record must exist.
func (s *Service) UpdateRecord(ctx context.Context, userID uuid.UUID, req UpdateRecordRequest) (*Record, error) {
	for _, p := range []*string{req.BloodType, req.Allergies, req.ChronicConditions, req.EmergencyContact} {
		if p != nil {
			*p = validate.CleanText(*p)
		}
	}
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.BloodType != nil {
		rec.BloodType = req.BloodType
	}
	if req.Allergies != nil {
		rec.Allergies = req.Allergies
	}
	if req.ChronicConditions != nil {
		rec.ChronicConditions = req.ChronicConditions
	}
	if req.EmergencyContact != nil {
		rec.EmergencyContact = req.EmergencyContact
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Logs(ctx context.Context, userID uuid.UUID) ([]*Log, error) {
	rec, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.Logs(ctx, rec.ID)
}

// AddLog writes a consultation for userID authored by staffID.
func (s *Service) AddLog(ctx context.Context, userID, staffID uuid.UUID, req CreateLogRequest) (*Log, error) {
	req.Diagnosis = validate.CleanText(req.Diagnosis)
	req.Treatment = validate.CleanText(req.Treatment)
	req.Medication = validate.CleanOptional(req.Medication)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound(recordNotFoundForLogging)
		}
		return nil, err
	}
	l := &Log{
		RecordID:   rec.ID,
		StaffID:    staffID,
		Diagnosis:  req.Diagnosis,
		Treatment:  req.Treatment,
		Medication: req.Medication,
	}
	if err := s.repo.CreateLog(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}
