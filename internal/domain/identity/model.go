package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

// User is an account holder. The password hash never leaves the package in
// JSON.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         auth.Role `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Ref is the public projection of a user embedded in other resources.
type Ref struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  auth.Role `json:"role"`
}

func (u *User) Ref() Ref {
	return Ref{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (u *User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID.String(), Email: u.Email, Role: u.Role}
}

// UserFilter restricts List. An empty Roles slice matches every role.
type UserFilter struct {
	Roles []auth.Role
}

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	User *User `json:"user"`
	auth.TokenPair
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Valid email is required"`
	Password string `json:"password" validate:"required,min=6" msg:"Password must be at least 6 characters"`
	Name     string `json:"name" validate:"required" msg:"Name is required"`
	Role     string `json:"role" validate:"omitempty,oneof=medical_staff resident" msg:"Invalid role for public registration"`
}

type AdminRegisterRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Valid email is required"`
	Password string `json:"password" validate:"required,min=6" msg:"Password must be at least 6 characters"`
	Name     string `json:"name" validate:"required" msg:"Name is required"`
	Role     string `json:"role" validate:"required,oneof=medical_staff facility_manager resident" msg:"A valid staff/resident role is required for admin creation"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Valid email is required"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type UpdateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

// NewUser carries the fields needed to create an account.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Role     auth.Role
}
