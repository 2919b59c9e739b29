package complaint

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/domain/facility"
	"github.com/hostelcare/hostelcare/internal/domain/identity"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func ParsePriority(s string) (Priority, bool) {
	for _, p := range priorities {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Complaint is a ticket raised against a facility. Facility, CreatedBy,
// Assignments and StatusHistory are populated by read projections only.
type Complaint struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Priority    Priority   `db:"priority" json:"priority"`
	Status      Status     `db:"status" json:"status"`
	FacilityID  uuid.UUID  `db:"facility_id" json:"facilityId"`
	CreatedByID uuid.UUID  `db:"created_by_id" json:"createdById"`
	Attachment  *string    `db:"attachment" json:"attachment"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolvedAt"`
	ClosedAt    *time.Time `db:"closed_at" json:"closedAt"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`

	Facility      *facility.Facility `json:"facility,omitempty"`
	CreatedBy     *identity.Ref      `json:"createdBy,omitempty"`
	Assignments   []*Assignment      `json:"assignments,omitempty"`
	StatusHistory []*StatusChange    `json:"statusHistory,omitempty"`
}

// ActiveAssignment returns the active assignment among those loaded, if any.
func (c *Complaint) ActiveAssignment() *Assignment {
	for _, a := range c.Assignments {
		if a.IsActive {
			return a
		}
	}
	return nil
}

type Assignment struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	ComplaintID  uuid.UUID     `db:"complaint_id" json:"complaintId"`
	AssignedToID uuid.UUID     `db:"assigned_to_id" json:"assignedToId"`
	IsActive     bool          `db:"is_active" json:"isActive"`
	Notes        *string       `db:"notes" json:"notes"`
	AssignedAt   time.Time     `db:"assigned_at" json:"assignedAt"`
	AssignedTo   *identity.Ref `json:"assignedTo,omitempty"`
}

// StatusChange is one row of the append-only status history.
type StatusChange struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ComplaintID uuid.UUID `db:"complaint_id" json:"complaintId"`
	FromStatus  *Status   `db:"from_status" json:"fromStatus"`
	ToStatus    Status    `db:"to_status" json:"toStatus"`
	Notes       *string   `db:"notes" json:"notes"`
	ChangedAt   time.Time `db:"changed_at" json:"changedAt"`
}

// Filter narrows complaint listings. CreatedByID and AssignedToID carry the
// role scoping and are never taken from the query string.
type Filter struct {
	Status       Status
	Priority     Priority
	FacilityID   *uuid.UUID
	CreatedByID  *uuid.UUID
	AssignedToID *uuid.UUID
}

// Requester is the authenticated caller of a lifecycle operation.
type Requester struct {
	ID   uuid.UUID
	Role auth.Role
}

type CreateRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=255"`
	Description string `json:"description" form:"description" validate:"required"`
	FacilityID  string `json:"facilityId" form:"facilityId" validate:"required,uuid"`
	Priority    string `json:"priority" form:"priority" validate:"omitempty,oneof=low medium high critical"`
}

type AssignRequest struct {
	AssignedToID string  `json:"assignedToId" validate:"required,uuid"`
	Notes        *string `json:"notes"`
}

type StatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=new assigned in_progress resolved closed"`
	Notes  *string `json:"notes"`
}
