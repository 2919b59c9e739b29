package complaint

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrStaleStatus is returned by UpdateStatus when the row no longer holds
// the expected status.
var ErrStaleStatus = errors.New("complaint status changed concurrently")

type Repository interface {
	Create(ctx context.Context, c *Complaint) error
	GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error)
	// GetForUpdate reads the row and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Complaint, error)
	// GetDetail returns the complaint with facility and creator loaded.
	GetDetail(ctx context.Context, id uuid.UUID) (*Complaint, error)
	// List returns complaints newest first with facility, creator and the
	// active assignment loaded.
	List(ctx context.Context, f Filter) ([]*Complaint, error)
	// UpdateStatus moves the complaint from -> to only while it is still in
	// from, stamping resolved_at/closed_at the first time they are entered.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Complaint, error)

	AddHistory(ctx context.Context, h *StatusChange) error
	History(ctx context.Context, complaintID uuid.UUID) ([]*StatusChange, error)

	DeactivateAssignments(ctx context.Context, complaintID uuid.UUID) (int64, error)
	CreateAssignment(ctx context.Context, a *Assignment) error
	// Assignments returns every assignment of the complaint, newest first.
	Assignments(ctx context.Context, complaintID uuid.UUID) ([]*Assignment, error)
	HasActiveAssignment(ctx context.Context, complaintID, userID uuid.UUID) (bool, error)
}
