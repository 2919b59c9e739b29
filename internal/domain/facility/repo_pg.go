package facility

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/db"
)

const (
	notFoundMsg = "Facility not found"
	conflictMsg = "Facility name already exists."
	inUseMsg    = "Facility has complaints and cannot be deleted"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, name, type, description, location, is_active, created_at, updated_at`

var columns = []any{"id", "name", "type", "description", "location", "is_active", "created_at", "updated_at"}

func scan(row pgx.Row) (*Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.Type, &f.Description, &f.Location, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *repoPG) Create(ctx context.Context, f *Facility) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO facilities (name, type, description, location, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		f.Name, f.Type, f.Description, f.Location, f.IsActive,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	return apperr.FromStore(err, notFoundMsg, conflictMsg)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	f, err := scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM facilities WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, notFoundMsg, "")
	}
	return f, nil
}

func (r *repoPG) List(ctx context.Context, filter Filter) ([]*Facility, error) {
	ds := db.From("facilities").Select(columns...).Order(goqu.I("name").Asc())
	if filter.Type != "" {
		ds = ds.Where(goqu.Ex{"type": filter.Type})
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}
	query, args, err := db.Build("facilities", ds)
	if err != nil {
		return nil, apperr.Internal("list facilities", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*Facility
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		items = append(items, f)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}

func (r *repoPG) Update(ctx context.Context, f *Facility) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE facilities SET name = $2, type = $3, description = $4, location = $5,
			is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		f.ID, f.Name, f.Type, f.Description, f.Location, f.IsActive,
	).Scan(&f.UpdatedAt)
	return apperr.FromStore(err, notFoundMsg, conflictMsg)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if apperr.IsForeignKeyViolation(err) {
		return apperr.Conflict(inUseMsg)
	}
	if err != nil {
		return apperr.FromStore(err, notFoundMsg, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(notFoundMsg)
	}
	return nil
}
