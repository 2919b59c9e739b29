package facility

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeMedical = "medical"
	TypeGeneral = "general"
)

type Facility struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Type        string    `db:"type" json:"type"`
	Description *string   `db:"description" json:"description"`
	Location    *string   `db:"location" json:"location"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type Filter struct {
	Type     string
	IsActive *bool
}

type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Type        string  `json:"type" validate:"required,oneof=medical general"`
	Description *string `json:"description"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
}

type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Type        *string `json:"type" validate:"omitempty,oneof=medical general"`
	Description *string `json:"description"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	IsActive    *bool   `json:"isActive"`
}

// Apply copies the fields set in r onto f.
func (r UpdateRequest) Apply(f *Facility) {
	if r.Name != nil {
		f.Name = *r.Name
	}
	if r.Type != nil {
		f.Type = *r.Type
	}
	if r.Description != nil {
		f.Description = r.Description
	}
	if r.Location != nil {
		f.Location = r.Location
	}
	if r.IsActive != nil {
		f.IsActive = *r.IsActive
	}
}
