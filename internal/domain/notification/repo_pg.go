package notification

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

var columns = []any{"id", "user_id", "title", "message", "is_read", "created_at"}

func scan(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at`,
		n.UserID, n.Title, n.Message,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	return apperr.FromStore(err, "", "")
}

func (r *repoPG) ListForUser(ctx context.Context, userID uuid.UUID, f ListFilter) ([]*Notification, error) {
	ds := db.From("notifications").Select(columns...).
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc())
	if f.IsRead != nil {
		ds = ds.Where(goqu.Ex{"is_read": *f.IsRead})
	}
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	query, args, err := db.Build("notifications", ds)
	if err != nil {
		return nil, apperr.Internal("list notifications", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		items = append(items, n)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}

func (r *repoPG) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, apperr.FromStore(err, "", "")
}

func (r *repoPG) MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, apperr.FromStore(err, "", "")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, apperr.FromStore(err, "", "")
	}
	return tag.RowsAffected(), nil
}
