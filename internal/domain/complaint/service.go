// Package complaint implements the complaint lifecycle: creation against a
// facility, assignment to staff, forward-only status changes with an
// append-only history, and role-scoped queries.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hostelcare/hostelcare/internal/domain/facility"
	"github.com/hostelcare/hostelcare/internal/domain/identity"
	"github.com/hostelcare/hostelcare/internal/domain/notification"
	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/blobstore"
	"github.com/hostelcare/hostelcare/internal/platform/db"
	"github.com/hostelcare/hostelcare/internal/platform/telemetry"
	"github.com/hostelcare/hostelcare/internal/platform/validate"
)

const (
	facilityNotFound = "Facility not found"
	assigneeNotFound = "Assigned user not found"
)

// Facilities resolves the facility a complaint is filed against.
type Facilities interface {
	Get(ctx context.Context, id uuid.UUID) (*facility.Facility, error)
}

// Directory resolves users and notification audiences.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
	NotifyRecipients(ctx context.Context, role auth.Role) ([]uuid.UUID, error)
}

// Upload is an attachment received with a new complaint.
type Upload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

type Service struct {
	repo       Repository
	tx         db.Transactor
	facilities Facilities
	users      Directory
	notifier   notification.Notifier
	files      blobstore.Store
	metrics    *telemetry.Metrics
	logger     zerolog.Logger
}

func NewService(
	repo Repository,
	tx db.Transactor,
	facilities Facilities,
	users Directory,
	notifier notification.Notifier,
	files blobstore.Store,
	metrics *telemetry.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		tx:         tx,
		facilities: facilities,
		users:      users,
		notifier:   notifier,
		files:      files,
		metrics:    metrics,
		logger:     logger.With().Str("component", "complaint").Logger(),
	}
}

// Create files a new complaint. The facility is checked before anything is
// stored; the complaint row and its first history entry commit together.
func (s *Service) Create(ctx context.Context, requester Requester, req CreateRequest, upload *Upload) (c *Complaint, err error) {
	ctx, span := telemetry.StartSpan(ctx, "complaint.create")
	defer func() { telemetry.RecordError(span, err); span.End() }()

	req.Title = validate.CleanText(req.Title)
	req.Description = validate.CleanText(req.Description)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	priority := PriorityMedium
	if req.Priority != "" {
		priority, _ = ParsePriority(req.Priority)
	}
	facilityID := uuid.MustParse(req.FacilityID)

	fac, err := s.facilities.Get(ctx, facilityID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound(facilityNotFound)
		}
		return nil, err
	}

	var stored *blobstore.Attachment
	if upload != nil {
		stored, err = s.files.Save(ctx, upload.FileName, upload.ContentType, upload.Content)
		if err != nil {
			return nil, uploadError(err)
		}
	}

	c = &Complaint{
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Status:      StatusNew,
		FacilityID:  facilityID,
		CreatedByID: requester.ID,
	}
	if stored != nil {
		c.Attachment = &stored.Path
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}
		return s.repo.AddHistory(ctx, &StatusChange{
			ComplaintID: c.ID,
			ToStatus:    StatusNew,
			Notes:       strPtr("Complaint created"),
		})
	})
	if err != nil {
		if stored != nil {
			if derr := s.files.Delete(ctx, stored.Name); derr != nil {
				s.logger.Warn().Err(derr).Str("file", stored.Name).Msg("failed to remove orphaned attachment")
			}
		}
		return nil, err
	}

	s.metrics.RecordTransition(ctx, "", string(StatusNew))
	s.notifyRole(ctx, auth.RoleFacilityManager, "New Complaint",
		fmt.Sprintf("New complaint: %s at %s", c.Title, fac.Name))

	c.Facility = fac
	if creator, err := s.users.GetUser(ctx, requester.ID); err == nil {
		ref := creator.Ref()
		c.CreatedBy = &ref
	}
	s.logger.Info().Str("complaint_id", c.ID.String()).Str("facility_id", facilityID.String()).Msg("complaint created")
	return c, nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return apperr.Validation(blobstore.ErrInvalidContentType.Error())
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return apperr.Validation("File too large")
	case errors.Is(err, blobstore.ErrMissingFileName):
		return apperr.Validation("Attachment file name is required")
	}
	return apperr.Internal("store attachment", err)
}

// Assign hands the complaint to a user, replacing any active assignment.
// A complaint still in new advances to assigned.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, req AssignRequest) (c *Complaint, err error) {
	ctx, span := telemetry.StartSpan(ctx, "complaint.assign", attribute.String("complaint.id", id.String()))
	defer func() { telemetry.RecordError(span, err); span.End() }()

	req.Notes = validate.CleanOptional(req.Notes)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	assigneeID := uuid.MustParse(req.AssignedToID)

	var (
		assignee *identity.User
		advanced bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		assignee, err = s.users.GetUser(ctx, assigneeID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return apperr.NotFound(assigneeNotFound)
			}
			return err
		}
		if _, err := s.repo.DeactivateAssignments(ctx, id); err != nil {
			return err
		}
		if err := s.repo.CreateAssignment(ctx, &Assignment{
			ComplaintID:  id,
			AssignedToID: assigneeID,
			Notes:        req.Notes,
		}); err != nil {
			return err
		}
		if c.Status != StatusNew {
			return nil
		}
		if c, err = s.advance(ctx, id, StatusNew, StatusAssigned); err != nil {
			return err
		}
		advanced = true
		return s.repo.AddHistory(ctx, &StatusChange{
			ComplaintID: id,
			FromStatus:  statusPtr(StatusNew),
			ToStatus:    StatusAssigned,
			Notes:       strPtr("Assigned to " + assignee.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	if advanced {
		s.metrics.RecordTransition(ctx, string(StatusNew), string(StatusAssigned))
	}
	s.notifier.Notify(ctx, assigneeID, "Complaint Assigned", "You have been assigned to: "+c.Title)
	s.logger.Info().Str("complaint_id", id.String()).Str("assignee_id", assigneeID.String()).Msg("complaint assigned")
	return s.detail(ctx, id)
}

// UpdateStatus moves the complaint one step along the lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req StatusRequest) (c *Complaint, err error) {
	ctx, span := telemetry.StartSpan(ctx, "complaint.update_status", attribute.String("complaint.id", id.String()))
	defer func() { telemetry.RecordError(span, err); span.End() }()

	req.Notes = validate.CleanOptional(req.Notes)
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	target, _ := ParseStatus(req.Status)

	var from Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		from = current.Status
		if !CanTransition(from, target) {
			return apperr.InvalidTransition(string(from), string(target))
		}
		if c, err = s.advance(ctx, id, from, target); err != nil {
			return err
		}
		return s.repo.AddHistory(ctx, &StatusChange{
			ComplaintID: id,
			FromStatus:  statusPtr(from),
			ToStatus:    target,
			Notes:       req.Notes,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(ctx, string(from), string(target))
	s.notifier.Notify(ctx, c.CreatedByID, "Complaint Status Updated",
		fmt.Sprintf(`Your complaint "%s" status changed to %s`, c.Title, target))
	s.logger.Info().Str("complaint_id", id.String()).Str("from", string(from)).Str("to", string(target)).Msg("complaint status changed")
	return s.detail(ctx, id)
}

// advance runs the guarded status update. Losing the race to another
// writer surfaces as an invalid transition from the status now stored.
func (s *Service) advance(ctx context.Context, id uuid.UUID, from, to Status) (*Complaint, error) {
	c, err := s.repo.UpdateStatus(ctx, id, from, to)
	if errors.Is(err, ErrStaleStatus) {
		current, gerr := s.repo.GetByID(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.InvalidTransition(string(current.Status), string(to))
	}
	return c, err
}

// List returns the complaints visible to requester, newest first.
func (s *Service) List(ctx context.Context, requester Requester, f Filter) ([]*Complaint, error) {
	if f.Status != "" {
		if _, ok := ParseStatus(string(f.Status)); !ok {
			return nil, apperr.Validation("Validation failed", "status must be one of: new, assigned, in_progress, resolved, closed")
		}
	}
	if f.Priority != "" {
		if _, ok := ParsePriority(string(f.Priority)); !ok {
			return nil, apperr.Validation("Validation failed", "priority must be one of: low, medium, high, critical")
		}
	}
	scope(requester, &f)
	return s.repo.List(ctx, f)
}

// scope narrows f to what the requester may see. Residents see what they
// filed and medical staff what is actively assigned to them.
func scope(requester Requester, f *Filter) {
	f.CreatedByID, f.AssignedToID = nil, nil
	switch requester.Role {
	case auth.RoleResident:
		f.CreatedByID = &requester.ID
	case auth.RoleMedicalStaff:
		f.AssignedToID = &requester.ID
	}
}

// Get returns the complaint detail. Complaints outside the requester's
// scope are reported as not found.
func (s *Service) Get(ctx context.Context, requester Requester, id uuid.UUID) (*Complaint, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch requester.Role {
	case auth.RoleResident:
		if c.CreatedByID != requester.ID {
			return nil, apperr.NotFound(notFoundMsg)
		}
	case auth.RoleMedicalStaff:
		ok, err := s.repo.HasActiveAssignment(ctx, id, requester.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NotFound(notFoundMsg)
		}
	}
	return s.detail(ctx, id)
}

func (s *Service) detail(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	c, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Assignments, err = s.repo.Assignments(ctx, id); err != nil {
		return nil, err
	}
	if c.StatusHistory, err = s.repo.History(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) notifyRole(ctx context.Context, role auth.Role, title, message string) {
	ids, err := s.users.NotifyRecipients(ctx, role)
	if err != nil {
		s.logger.Error().Err(err).Str("role", string(role)).Msg("failed to resolve notification recipients")
		return
	}
	for _, id := range ids {
		s.notifier.Notify(ctx, id, title, message)
	}
}

func strPtr(s string) *string { return &s }

func statusPtr(s Status) *Status { return &s }
