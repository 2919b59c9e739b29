package identity

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
	"github.com/hostelcare/hostelcare/internal/platform/db"
)

const (
	userNotFound  = "User not found"
	emailConflict = "Email already registered"
)

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

const userCols = `id, email, password_hash, name, role, created_at, updated_at`

var userColumns = []any{"id", "email", "password_hash", "name", "role", "created_at", "updated_at"}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.Name, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return apperr.FromStore(err, userNotFound, emailConflict)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, userNotFound, "")
	}
	return u, nil
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, apperr.FromStore(err, userNotFound, "")
	}
	return u, nil
}

func (r *userRepoPG) List(ctx context.Context, f UserFilter) ([]*User, error) {
	ds := db.From("users").Select(userColumns...).Order(goqu.I("name").Asc())
	if len(f.Roles) > 0 {
		roles := make([]string, len(f.Roles))
		for i, role := range f.Roles {
			roles[i] = string(role)
		}
		ds = ds.Where(goqu.Ex{"role": roles})
	}
	query, args, err := db.Build("users", ds)
	if err != nil {
		return nil, apperr.Internal("list users", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		items = append(items, u)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE users SET name = $2, role = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.Name, u.Role,
	).Scan(&u.UpdatedAt)
	return apperr.FromStore(err, userNotFound, "")
}

func (r *userRepoPG) IDsByRole(ctx context.Context, role auth.Role) ([]uuid.UUID, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT id FROM users WHERE role = $1`, role)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	return ids, nil
}
