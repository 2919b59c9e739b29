package medical

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetOrCreate returns the user's record, creating an empty one first if
	// needed.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Record, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	CreateLog(ctx context.Context, l *Log) error
	// Logs returns the record's logs, newest first, with staff loaded.
	Logs(ctx context.Context, recordID uuid.UUID) ([]*Log, error)
}
