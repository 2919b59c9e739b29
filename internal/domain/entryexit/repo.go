package entryexit

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelcare/hostelcare/internal/domain/identity"
	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/db"
	"github.com/hostelcare/hostelcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, l *Log) error
	// List returns the page of logs matching f, newest first, together with
	// the unpaged total.
	List(ctx context.Context, f Filter, page pagination.Params) ([]*Log, int, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, l *Log) error {
	l.User = &identity.Ref{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO entry_exit_logs (user_id, type, location, notes)
			VALUES ($1, $2, $3, $4)
			RETURNING id, timestamp, user_id
		)
		SELECT i.id, i.timestamp, u.id, u.name, u.email, u.role
		FROM inserted i JOIN users u ON u.id = i.user_id`,
		l.UserID, l.Type, l.Location, l.Notes,
	).Scan(&l.ID, &l.Timestamp, &l.User.ID, &l.User.Name, &l.User.Email, &l.User.Role)
	return apperr.FromStore(err, "User not found", "")
}

func where(ds *goqu.SelectDataset, f Filter) *goqu.SelectDataset {
	if f.UserID != nil {
		ds = ds.Where(goqu.I("l.user_id").Eq(*f.UserID))
	}
	if f.Type != "" {
		ds = ds.Where(goqu.I("l.type").Eq(f.Type))
	}
	if f.Start != nil {
		ds = ds.Where(goqu.I("l.timestamp").Gte(*f.Start))
	}
	if f.End != nil {
		ds = ds.Where(goqu.I("l.timestamp").Lte(*f.End))
	}
	return ds
}

func (r *repoPG) List(ctx context.Context, f Filter, page pagination.Params) ([]*Log, int, error) {
	base := db.From(goqu.T("entry_exit_logs").As("l")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("l.user_id"))))
	base = where(base, f)

	countSQL, countArgs, err := db.Build("entry/exit count", base.Select(goqu.COUNT("*")))
	if err != nil {
		return nil, 0, apperr.Internal("count entry/exit logs", err)
	}
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperr.FromStore(err, "", "")
	}

	ds := base.Select(
		goqu.I("l.id"), goqu.I("l.user_id"), goqu.I("l.type"), goqu.I("l.location"), goqu.I("l.notes"), goqu.I("l.timestamp"),
		goqu.I("u.id"), goqu.I("u.name"), goqu.I("u.email"), goqu.I("u.role"),
	).Order(goqu.I("l.timestamp").Desc())
	query, args, err := db.Build("entry/exit logs", page.Apply(ds))
	if err != nil {
		return nil, 0, apperr.Internal("list entry/exit logs", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*Log
	for rows.Next() {
		l := &Log{User: &identity.Ref{}}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Type, &l.Location, &l.Notes, &l.Timestamp,
			&l.User.ID, &l.User.Name, &l.User.Email, &l.User.Role); err != nil {
			return nil, 0, apperr.FromStore(err, "", "")
		}
		items = append(items, l)
	}
	return items, total, apperr.FromStore(rows.Err(), "", "")
}
