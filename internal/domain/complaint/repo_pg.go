package complaint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelcare/hostelcare/internal/domain/facility"
	"github.com/hostelcare/hostelcare/internal/domain/identity"
	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/db"
)

const notFoundMsg = "Complaint not found"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, title, description, priority, status, facility_id, created_by_id,
	attachment, resolved_at, closed_at, created_at, updated_at`

func scan(row pgx.Row) (*Complaint, error) {
	var c Complaint
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Priority, &c.Status, &c.FacilityID, &c.CreatedByID,
		&c.Attachment, &c.ResolvedAt, &c.ClosedAt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

// projection joins the facility, the creator and the active assignment.
var projection = []any{
	goqu.I("c.id"), goqu.I("c.title"), goqu.I("c.description"), goqu.I("c.priority"), goqu.I("c.status"),
	goqu.I("c.facility_id"), goqu.I("c.created_by_id"), goqu.I("c.attachment"), goqu.I("c.resolved_at"),
	goqu.I("c.closed_at"), goqu.I("c.created_at"), goqu.I("c.updated_at"),
	goqu.I("f.id"), goqu.I("f.name"), goqu.I("f.type"), goqu.I("f.description"), goqu.I("f.location"),
	goqu.I("f.is_active"), goqu.I("f.created_at"), goqu.I("f.updated_at"),
	goqu.I("u.id"), goqu.I("u.name"), goqu.I("u.email"), goqu.I("u.role"),
	goqu.I("a.id"), goqu.I("a.assigned_to_id"), goqu.I("a.notes"), goqu.I("a.assigned_at"),
	goqu.I("au.name"), goqu.I("au.email"), goqu.I("au.role"),
}

func scanProjection(row pgx.Row) (*Complaint, error) {
	var (
		c          Complaint
		f          facility.Facility
		creator    identity.Ref
		assignID   *uuid.UUID
		assigneeID *uuid.UUID
		notes      *string
		assignedAt *time.Time
		aName      *string
		aEmail     *string
		aRole      *string
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Priority, &c.Status, &c.FacilityID, &c.CreatedByID,
		&c.Attachment, &c.ResolvedAt, &c.ClosedAt, &c.CreatedAt, &c.UpdatedAt,
		&f.ID, &f.Name, &f.Type, &f.Description, &f.Location, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
		&creator.ID, &creator.Name, &creator.Email, &creator.Role,
		&assignID, &assigneeID, &notes, &assignedAt, &aName, &aEmail, &aRole)
	if err != nil {
		return nil, err
	}
	c.Facility = &f
	c.CreatedBy = &creator
	if assignID != nil && assigneeID != nil {
		a := &Assignment{
			ID:           *assignID,
			ComplaintID:  c.ID,
			AssignedToID: *assigneeID,
			IsActive:     true,
			Notes:        notes,
		}
		if assignedAt != nil {
			a.AssignedAt = *assignedAt
		}
		if aName != nil {
			a.AssignedTo = &identity.Ref{ID: *assigneeID, Name: *aName}
			if aEmail != nil {
				a.AssignedTo.Email = *aEmail
			}
			if aRole != nil {
				a.AssignedTo.Role = auth.Role(*aRole)
			}
		}
		c.Assignments = []*Assignment{a}
	}
	return &c, nil
}

func (r *repoPG) projected() *goqu.SelectDataset {
	return db.From(goqu.T("complaints").As("c")).
		Select(projection...).
		Join(goqu.T("facilities").As("f"), goqu.On(goqu.I("f.id").Eq(goqu.I("c.facility_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("c.created_by_id")))).
		LeftJoin(goqu.T("complaint_assignments").As("a"), goqu.On(
			goqu.I("a.complaint_id").Eq(goqu.I("c.id")),
			goqu.I("a.is_active").IsTrue(),
		)).
		LeftJoin(goqu.T("users").As("au"), goqu.On(goqu.I("au.id").Eq(goqu.I("a.assigned_to_id"))))
}

func (r *repoPG) Create(ctx context.Context, c *Complaint) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO complaints (title, description, priority, status, facility_id, created_by_id, attachment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		c.Title, c.Description, c.Priority, c.Status, c.FacilityID, c.CreatedByID, c.Attachment,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return apperr.FromStore(err, notFoundMsg, "")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	c, err := scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM complaints WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, notFoundMsg, "")
	}
	return c, nil
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	c, err := scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM complaints WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromStore(err, notFoundMsg, "")
	}
	return c, nil
}

func (r *repoPG) GetDetail(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	query, args, err := db.Build("complaint detail", r.projected().Where(goqu.I("c.id").Eq(id)))
	if err != nil {
		return nil, apperr.Internal("get complaint", err)
	}
	c, err := scanProjection(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, apperr.FromStore(err, notFoundMsg, "")
	}
	// the detail view loads the full assignment list separately
	c.Assignments = nil
	return c, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Complaint, error) {
	ds := r.projected().Order(goqu.I("c.created_at").Desc())
	if f.Status != "" {
		ds = ds.Where(goqu.I("c.status").Eq(f.Status))
	}
	if f.Priority != "" {
		ds = ds.Where(goqu.I("c.priority").Eq(f.Priority))
	}
	if f.FacilityID != nil {
		ds = ds.Where(goqu.I("c.facility_id").Eq(*f.FacilityID))
	}
	if f.CreatedByID != nil {
		ds = ds.Where(goqu.I("c.created_by_id").Eq(*f.CreatedByID))
	}
	if f.AssignedToID != nil {
		ds = ds.Where(goqu.I("a.assigned_to_id").Eq(*f.AssignedToID))
	}
	query, args, err := db.Build("complaints", ds)
	if err != nil {
		return nil, apperr.Internal("list complaints", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*Complaint
	for rows.Next() {
		c, err := scanProjection(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		items = append(items, c)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Complaint, error) {
	c, err := scan(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE complaints SET
			status = $3::varchar,
			resolved_at = CASE WHEN $3::varchar = 'resolved' THEN COALESCE(resolved_at, NOW()) ELSE resolved_at END,
			closed_at = CASE WHEN $3::varchar = 'closed' THEN COALESCE(closed_at, NOW()) ELSE closed_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+cols,
		id, from, to,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStaleStatus
	}
	if err != nil {
		return nil, apperr.FromStore(err, notFoundMsg, "")
	}
	return c, nil
}

func (r *repoPG) AddHistory(ctx context.Context, h *StatusChange) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO complaint_status_history (complaint_id, from_status, to_status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, changed_at`,
		h.ComplaintID, h.FromStatus, h.ToStatus, h.Notes,
	).Scan(&h.ID, &h.ChangedAt)
	return apperr.FromStore(err, notFoundMsg, "")
}

func (r *repoPG) History(ctx context.Context, complaintID uuid.UUID) ([]*StatusChange, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, complaint_id, from_status, to_status, notes, changed_at
		FROM complaint_status_history
		WHERE complaint_id = $1
		ORDER BY changed_at ASC, id ASC`, complaintID)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*StatusChange
	for rows.Next() {
		var h StatusChange
		if err := rows.Scan(&h.ID, &h.ComplaintID, &h.FromStatus, &h.ToStatus, &h.Notes, &h.ChangedAt); err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		items = append(items, &h)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}

func (r *repoPG) DeactivateAssignments(ctx context.Context, complaintID uuid.UUID) (int64, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE complaint_assignments SET is_active = FALSE WHERE complaint_id = $1 AND is_active`, complaintID)
	if err != nil {
		return 0, apperr.FromStore(err, "", "")
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) CreateAssignment(ctx context.Context, a *Assignment) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO complaint_assignments (complaint_id, assigned_to_id, is_active, notes)
		VALUES ($1, $2, TRUE, $3)
		RETURNING id, is_active, assigned_at`,
		a.ComplaintID, a.AssignedToID, a.Notes,
	).Scan(&a.ID, &a.IsActive, &a.AssignedAt)
	if apperr.IsUniqueViolation(err) {
		return fmt.Errorf("complaint %s already has an active assignment: %w", a.ComplaintID, err)
	}
	return apperr.FromStore(err, notFoundMsg, "")
}

func (r *repoPG) Assignments(ctx context.Context, complaintID uuid.UUID) ([]*Assignment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT a.id, a.complaint_id, a.assigned_to_id, a.is_active, a.notes, a.assigned_at,
			u.id, u.name, u.email, u.role
		FROM complaint_assignments a
		JOIN users u ON u.id = a.assigned_to_id
		WHERE a.complaint_id = $1
		ORDER BY a.assigned_at DESC`, complaintID)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		var (
			a   Assignment
			ref identity.Ref
		)
		if err := rows.Scan(&a.ID, &a.ComplaintID, &a.AssignedToID, &a.IsActive, &a.Notes, &a.AssignedAt,
			&ref.ID, &ref.Name, &ref.Email, &ref.Role); err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		a.AssignedTo = &ref
		items = append(items, &a)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}

func (r *repoPG) HasActiveAssignment(ctx context.Context, complaintID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM complaint_assignments
			WHERE complaint_id = $1 AND assigned_to_id = $2 AND is_active
		)`, complaintID, userID).Scan(&ok)
	if err != nil {
		return false, apperr.FromStore(err, "", "")
	}
	return ok, nil
}
