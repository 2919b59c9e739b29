package medical

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/db"
)

const (
	recordNotFound = "Medical record not found for this user."
	userNotFound   = "User not found"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, user_id, blood_type, allergies, chronic_conditions, emergency_contact, created_at, updated_at`

func scan(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.BloodType, &r.Allergies, &r.ChronicConditions, &r.EmergencyContact, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (r *repoPG) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Record, error) {
	rec, err := scan(db.Conn(ctx, r.pool).QueryRow(ctx, `
		WITH created AS (
			INSERT INTO medical_records (user_id) VALUES ($1)
			ON CONFLICT (user_id) DO NOTHING
			RETURNING `+cols+`
		)
		SELECT `+cols+` FROM created
		UNION ALL
		SELECT `+cols+` FROM medical_records WHERE user_id = $1
		LIMIT 1`, userID))
	if apperr.IsForeignKeyViolation(err) {
		return nil, apperr.NotFound(userNotFound)
	}
	// A concurrent insert that won the conflict is invisible to this
	// statement's snapshot; a fresh read sees it.
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByUser(ctx, userID)
	}
	if err != nil {
		return nil, apperr.FromStore(err, recordNotFound, "")
	}
	return rec, nil
}

func (r *repoPG) GetByUser(ctx context.Context, userID uuid.UUID) (*Record, error) {
	rec, err := scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM medical_records WHERE user_id = $1`, userID))
	if err != nil {
		return nil, apperr.FromStore(err, recordNotFound, "")
	}
	return rec, nil
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE medical_records SET blood_type = $2, allergies = $3, chronic_conditions = $4,
			emergency_contact = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		rec.ID, rec.BloodType, rec.Allergies, rec.ChronicConditions, rec.EmergencyContact,
	).Scan(&rec.UpdatedAt)
	return apperr.FromStore(err, recordNotFound, "")
}

func (r *repoPG) CreateLog(ctx context.Context, l *Log) error {
	l.Staff = &Staff{}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO medical_logs (record_id, staff_id, diagnosis, treatment, medication)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, timestamp, staff_id
		)
		SELECT i.id, i.timestamp, u.name, u.role
		FROM inserted i JOIN users u ON u.id = i.staff_id`,
		l.RecordID, l.StaffID, l.Diagnosis, l.Treatment, l.Medication,
	).Scan(&l.ID, &l.Timestamp, &l.Staff.Name, &l.Staff.Role)
	return apperr.FromStore(err, recordNotFound, "")
}

func (r *repoPG) Logs(ctx context.Context, recordID uuid.UUID) ([]*Log, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT l.id, l.record_id, l.staff_id, l.diagnosis, l.treatment, l.medication, l.timestamp,
			u.name, u.role
		FROM medical_logs l
		JOIN users u ON u.id = l.staff_id
		WHERE l.record_id = $1
		ORDER BY l.timestamp DESC`, recordID)
	if err != nil {
		return nil, apperr.FromStore(err, "", "")
	}
	defer rows.Close()
	var items []*Log
	for rows.Next() {
		l := &Log{Staff: &Staff{}}
		if err := rows.Scan(&l.ID, &l.RecordID, &l.StaffID, &l.Diagnosis, &l.Treatment, &l.Medication, &l.Timestamp,
			&l.Staff.Name, &l.Staff.Role); err != nil {
			return nil, apperr.FromStore(err, "", "")
		}
		items = append(items, l)
	}
	return items, apperr.FromStore(rows.Err(), "", "")
}
