package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hostelcare/hostelcare/internal/domain/complaint"
	"github.com/hostelcare/hostelcare/internal/domain/facility"
	"github.com/hostelcare/hostelcare/internal/domain/identity"
	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

type seedUser struct {
	Email    string
	Password string
	Name     string
	Role     auth.Role
}

var seedUsers = []seedUser{
	{Email: "admin@medical.com", Password: "admin123", Name: "System Admin", Role: auth.RoleAdmin},
	{Email: "manager@medical.com", Password: "manager123", Name: "Facility Manager", Role: auth.RoleFacilityManager},
	{Email: "resident@medical.com", Password: "resident123", Name: "John Resident", Role: auth.RoleResident},
}

func strPtr(s string) *string { return &s }

var seedFacilities = []facility.CreateRequest{
	{Name: "Emergency Department", Type: facility.TypeMedical, Description: strPtr("Emergency medical services and trauma care"), Location: strPtr("Building A, Ground Floor")},
	{Name: "Radiology Department", Type: facility.TypeMedical, Description: strPtr("X-Ray, CT Scan, MRI services"), Location: strPtr("Building B, 2nd Floor")},
	{Name: "Cafeteria", Type: facility.TypeGeneral, Description: strPtr("Main dining facility"), Location: strPtr("Building C, Ground Floor")},
	{Name: "Parking Lot", Type: facility.TypeGeneral, Description: strPtr("Patient and visitor parking"), Location: strPtr("North Side")},
	{Name: "Laboratory", Type: facility.TypeMedical, Description: strPtr("Blood tests, urinalysis, pathology"), Location: strPtr("Building A, 3rd Floor")},
}

const (
	sampleFacility = "Emergency Department"
	sampleResident = "resident@medical.com"
)

var sampleComplaint = complaint.CreateRequest{
	Title:       "Broken AC unit in waiting area",
	Description: "The air conditioning unit is not working properly, making the waiting area uncomfortable for patients.",
	Priority:    string(complaint.PriorityHigh),
}

type seedReport struct {
	Users      int
	Facilities int
	Complaints int
}

type (
	userCreator interface {
		CreateUser(ctx context.Context, in identity.NewUser) (*identity.User, error)
	}
	userLookup interface {
		GetByEmail(ctx context.Context, email string) (*identity.User, error)
	}
	facilityStore interface {
		Create(ctx context.Context, req facility.CreateRequest) (*facility.Facility, error)
	}
	complaintCreator interface {
		Create(ctx context.Context, requester complaint.Requester, req complaint.CreateRequest, upload *complaint.Upload) (*complaint.Complaint, error)
	}
)

// seeder inserts the default accounts and facilities. Existing rows are
// left untouched, so running it twice is safe. The sample complaint is only
// filed when the sample facility was created by this run.
type seeder struct {
	users      userCreator
	lookup     userLookup
	facilities facilityStore
	complaints complaintCreator
	logger     zerolog.Logger
}

func (s *seeder) run(ctx context.Context) (seedReport, error) {
	var report seedReport

	ids := make(map[string]uuid.UUID, len(seedUsers))
	for _, su := range seedUsers {
		u, err := s.users.CreateUser(ctx, identity.NewUser{
			Email:    su.Email,
			Password: su.Password,
			Name:     su.Name,
			Role:     su.Role,
		})
		switch {
		case err == nil:
			report.Users++
			s.logger.Info().Str("email", su.Email).Str("role", string(su.Role)).Msg("seeded user")
		case apperr.Is(err, apperr.KindConflict):
			u, err = s.lookup.GetByEmail(ctx, su.Email)
			if err != nil {
				return report, fmt.Errorf("look up %s: %w", su.Email, err)
			}
		default:
			return report, fmt.Errorf("create user %s: %w", su.Email, err)
		}
		ids[su.Email] = u.ID
	}

	var fresh *facility.Facility
	for _, req := range seedFacilities {
		f, err := s.facilities.Create(ctx, req)
		if apperr.Is(err, apperr.KindConflict) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("create facility %s: %w", req.Name, err)
		}
		report.Facilities++
		s.logger.Info().Str("facility", f.Name).Msg("seeded facility")
		if f.Name == sampleFacility {
			fresh = f
		}
	}

	if fresh == nil {
		return report, nil
	}
	req := sampleComplaint
	req.FacilityID = fresh.ID.String()
	if _, err := s.complaints.Create(ctx, complaint.Requester{ID: ids[sampleResident], Role: auth.RoleResident}, req, nil); err != nil {
		return report, fmt.Errorf("create sample complaint: %w", err)
	}
	report.Complaints++
	return report, nil
}
