package dashboard

import (
	"context"

	"github.com/hostelcare/hostelcare/internal/domain/complaint"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Stats computes the dashboard for requester. Residents only count the
// complaints they filed.
func (s *Service) Stats(ctx context.Context, requester complaint.Requester) (Stats, error) {
	var createdBy = &requester.ID
	if requester.Role != auth.RoleResident {
		createdBy = nil
	}
	summaries, err := s.repo.Summaries(ctx, createdBy)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(summaries), nil
}
