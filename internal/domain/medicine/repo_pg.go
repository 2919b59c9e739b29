package medicine

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
	notFoundMsg = "Medicine not found"
	conflictMsg = "Medicine name already exists."
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, name, description, stock_level, unit, expiry_date, location, created_at, updated_at`

var columns = []any{"id", "name", "description", "stock_level", "unit", "expiry_date", "location", "created_at", "updated_at"}

func scan(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.StockLevel, &m.Unit, &m.ExpiryDate, &m.Location, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Medicine) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medicines (name, description, stock_level, unit, expiry_date, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		m.Name, m.Description, m.StockLevel, m.Unit, m.ExpiryDate, m.Location,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return apperr.FromStore(err, notFoundMsg, conflictMsg)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM medicines WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, notFoundMsg, "")
	}
	return m, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Medicine, error) {
	ds := db.From("medicines").Select(columns...).Order(goqu.I("name").Asc())
	if f.Search != "" {
		ds = ds.Where(goqu.Or(
			db.ContainsFold("name", f.Search),
			db.ContainsFold("description", f.Search),
		))
	}
	switch f.Availability {
	case InStock:
		ds = ds.Where(goqu.C("stock_level").Gt(0))
	case LowStock:
		ds = ds.Where(goqu.C("stock_level").Gt(0), goqu.C("stock_level").Lte(LowStockThreshold))
	case OutOfStock:
		ds = ds.Where(goqu.C("stock_level").Eq(0))
	}
	query, args, err := db.Build("medicines", ds)
	if err != nil {
		return nil, apperr.Internal("list medicines", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		items = append(items, m)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}

func (r *repoPG) Update(ctx context.Context, m *Medicine) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE medicines SET name = $2, description = $3, stock_level = $4, unit = $5,
			expiry_date = $6, location = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.Name, m.Description, m.StockLevel, m.Unit, m.ExpiryDate, m.Location,
	).Scan(&m.UpdatedAt)
	return apperr.FromStore(err, notFoundMsg, conflictMsg)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStore(err, notFoundMsg, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(notFoundMsg)
	}
	return nil
}
