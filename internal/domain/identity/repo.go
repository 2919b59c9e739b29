package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, f UserFilter) ([]*User, error)
	Update(ctx context.Context, u *User) error
	IDsByRole(ctx context.Context, role auth.Role) ([]uuid.UUID, error)
}
