package medicine

import (
	"time"

	"github.com/google/uuid"
)

// LowStockThreshold is the highest stock level still reported as low.
const LowStockThreshold = 10

type Availability string

const (
	InStock    Availability = "in_stock"
	LowStock   Availability = "low_stock"
	OutOfStock Availability = "out_of_stock"
)

type Medicine struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description"`
	StockLevel  int        `db:"stock_level" json:"stockLevel"`
	Unit        string     `db:"unit" json:"unit"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiryDate"`
	Location    *string    `db:"location" json:"location"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

type Filter struct {
	Search       string
	Availability Availability
}

type CreateRequest struct {
	Name        string  `json:"name" validate:"required,max=255" msg:"Name is required"`
	Description *string `json:"description"`
	StockLevel  *int    `json:"stockLevel" validate:"required,gte=0,max=2147483647" msg:"Stock level must be a non-negative integer"`
	Unit        string  `json:"unit" validate:"required,max=64" msg:"Unit is required"`
	ExpiryDate  *string `json:"expiryDate"`
	Location    *string `json:"location"`
}

type UpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255" msg:"Name must not be empty"`
	Description *string `json:"description"`
	StockLevel  *int    `json:"stockLevel" validate:"omitempty,gte=0,max=2147483647" msg:"Stock level must be a non-negative integer"`
	Unit        *string `json:"unit" validate:"omitempty,min=1,max=64" msg:"Unit must not be empty"`
	ExpiryDate  *string `json:"expiryDate"`
	Location    *string `json:"location"`
}
