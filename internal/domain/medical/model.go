package medical

import (
	"time"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

// Record holds a user's baseline medical data. There is at most one per
// user and it is created on first access.
type Record struct {
	ID                uuid.UUID `db:"id" json:"id"`
	UserID            uuid.UUID `db:"user_id" json:"userId"`
	BloodType         *string   `db:"blood_type" json:"bloodType"`
	Allergies         *string   `db:"allergies" json:"allergies"`
	ChronicConditions *string   `db:"chronic_conditions" json:"chronicConditions"`
	EmergencyContact  *string   `db:"emergency_contact" json:"emergencyContact"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

type Staff struct {
	Name string    `json:"name"`
	Role auth.Role `json:"role"`
}

// Log is one consultation written against a record by a staff member.
type Log struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RecordID   uuid.UUID `db:"record_id" json:"recordId"`
	StaffID    uuid.UUID `db:"staff_id" json:"staffId"`
	Diagnosis  string    `db:"diagnosis" json:"diagnosis"`
	Treatment  string    `db:"treatment" json:"treatment"`
	Medication *string   `db:"medication" json:"medication"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	Staff      *Staff    `json:"staff,omitempty"`
}

type UpdateRecordRequest struct {
	BloodType         *string `json:"bloodType" validate:"omitempty,max=8"`
	Allergies         *string `json:"allergies"`
	ChronicConditions *string `json:"chronicConditions"`
	EmergencyContact  *string `json:"emergencyContact" validate:"omitempty,max=255"`
}

type CreateLogRequest struct {
	Diagnosis  string  `json:"diagnosis" validate:"required" msg:"Diagnosis is required"`
	Treatment  string  `json:"treatment" validate:"required" msg:"Treatment is required"`
	Medication *string `json:"medication"`
}
