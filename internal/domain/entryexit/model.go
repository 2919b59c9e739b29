package entryexit

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/domain/identity"
)

type Type string

const (
	TypeEntry Type = "Entry"
	TypeExit  Type = "Exit"
)

// Log is one gate movement. Logs are append-only.
type Log struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	UserID    uuid.UUID     `db:"user_id" json:"userId"`
	Type      Type          `db:"type" json:"type"`
	Location  string        `db:"location" json:"location"`
	Notes     *string       `db:"notes" json:"notes"`
	Timestamp time.Time     `db:"timestamp" json:"timestamp"`
	User      *identity.Ref `json:"user,omitempty"`
}

// Filter narrows the log history. Start and End are inclusive.
type Filter struct {
	UserID *uuid.UUID
	Type   Type
	Start  *time.Time
	End    *time.Time
}

type CreateRequest struct {
	Type     string  `json:"type" validate:"required,oneof=Entry Exit" msg:"Type must be Entry or Exit"`
	Location string  `json:"location" validate:"required,max=255" msg:"Location is required"`
	Notes    *string `json:"notes"`
}
