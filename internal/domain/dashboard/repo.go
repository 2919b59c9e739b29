package dashboard

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/db"
)

// Repository returns the complaint summaries the dashboard reduces. A
// non-nil createdBy restricts them to one creator.
type Repository interface {
	Summaries(ctx context.Context, createdBy *uuid.UUID) ([]Summary, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Summaries(ctx context.Context, createdBy *uuid.UUID) ([]Summary, error) {
	ds := db.From("complaints").Select("status", "priority", "created_at", "resolved_at")
	if createdBy != nil {
		ds = ds.Where(goqu.Ex{"created_by_id": *createdBy})
	}
	query, args, err := db.Build("dashboard summaries", ds)
	if err != nil {
		return nil, apperr.Internal("dashboard summaries", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Status, &s.Priority, &s.CreatedAt, &s.ResolvedAt); err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		out = append(out, s)
	}
	return out, apperr.FromStore(rows.Err(), "", "")
}
