package notification

import (
	"time"

	"github.com/google/uuid"
)

// RecentLimit caps the notification listing.
const RecentLimit = 20

type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"isRead"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ListFilter narrows a user's listing by read state when IsRead is set.
type ListFilter struct {
	IsRead *bool
	Limit  int
}
