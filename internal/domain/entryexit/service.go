// Package entryexit records residents' gate entries and exits and serves the
// history to facility managers.
package entryexit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/reporting"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
	"github.com/hostelcare/hostelcare/pkg/pagination"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "entryexit").Logger()}
}

// Record appends a log for userID.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, req CreateRequest) (*Log, error) {
	req.Location = validate.CleanText(req.Location)
	req.Notes = validate.CleanOptional(req.Notes)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	l := &Log{UserID: userID, Type: Type(req.Type), Location: req.Location, Notes: req.Notes}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("user_id", userID.String()).Str("type", string(l.Type)).Msg("gate movement recorded")
	return l, nil
}

func checkFilter(f Filter) error {
	if f.Type != "" && f.Type != TypeEntry && f.Type != TypeExit {
		return apperr.Validation("Validation failed", "type must be one of: Entry, Exit")
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return apperr.Validation("Validation failed", "endDate must not be before startDate")
	}
	return nil
}

// History returns one page of logs, newest first, and the unpaged total.
func (s *Service) History(ctx context.Context, f Filter, page pagination.Params) ([]*Log, int, error) {
	if err := checkFilter(f); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, f, page)
}

var exportColumns = []reporting.Column{
	{Header: "Timestamp", Width: 20},
	{Header: "Type", Width: 8},
	{Header: "Name", Width: 24},
	{Header: "Email", Width: 30},
	{Header: "Role", Width: 16},
	{Header: "Location", Width: 24},
	{Header: "Notes", Width: 40},
}

// Export renders every log matching f as an XLSX workbook.
func (s *Service) Export(ctx context.Context, f Filter) ([]byte, error) {
	items, _, err := s.History(ctx, f, pagination.Params{})
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(items))
	for _, l := range items {
		var name, email, role string
		if l.User != nil {
			name, email, role = l.User.Name, l.User.Email, string(l.User.Role)
		}
		rows = append(rows, []any{l.Timestamp, string(l.Type), name, email, role, l.Location, l.Notes})
	}
	return reporting.Build(reporting.Sheet{Name: "Entry-Exit", Columns: exportColumns, Rows: rows})
}
