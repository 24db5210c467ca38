package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/velta-dev/afisha-bot/internal/domain"
)

// Registration outcome sentinels. Callers translate these into user-facing
// messages; anything else is an infrastructure failure.
var (
	ErrAlreadyRegistered = errors.New("user already registered for event")
	ErrNotRegistered     = errors.New("user not registered for event")
	ErrEventFull         = errors.New("event has reached its participant limit")
	ErrRegistrationShut  = errors.New("event registration is closed")
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// RegistrationRepository defines persistence operations for event registrations.
type RegistrationRepository interface {
	Register(ctx context.Context, userID, eventID int64) error
	Unregister(ctx context.Context, userID, eventID int64) error
	Exists(ctx context.Context, userID, eventID int64) (bool, error)
	Count(ctx context.Context, eventID int64) (int, error)
	ListParticipants(ctx context.Context, eventID int64) ([]*domain.User, error)
	ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error)
}

type registrationRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRegistrationRepository creates a new SQL-backed registration repository.
func NewRegistrationRepository(db *sql.DB, log *slog.Logger) RegistrationRepository {
	return &registrationRepository{
		db:  db,
		log: log,
	}
}

// Register inserts a registration after re-checking the event under a row
// lock. The event row is locked for the duration of the transaction so two
// concurrent registrations for the last slot cannot both pass the capacity
// check. The unique index on (user_id, event_id) backs the duplicate rule.
func (r *registrationRepository) Register(ctx context.Context, userID, eventID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback()

	const lockQuery = `
		SELECT COALESCE(max_participants, 0), registration_open
		FROM events WHERE id = $1 FOR UPDATE
	`

	var maxParticipants int
	var open bool
	if err := tx.QueryRowContext(ctx, lockQuery, eventID).Scan(&maxParticipants, &open); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	if !open {
		return ErrRegistrationShut
	}

	if maxParticipants > 0 {
		var count int
		const countQuery = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`
		if err := tx.QueryRowContext(ctx, countQuery, eventID).Scan(&count); err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if count >= maxParticipants {
			return ErrEventFull
		}
	}

	const insertQuery = `INSERT INTO event_registrations (user_id, event_id) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, insertQuery, userID, eventID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}

	if r.log != nil {
		r.log.Info("registration created",
			slog.Int64("user_id", userID),
			slog.Int64("event_id", eventID))
	}
	return nil
}

// Unregister removes the user's registration for the event.
func (r *registrationRepository) Unregister(ctx context.Context, userID, eventID int64) error {
	const query = `DELETE FROM event_registrations WHERE user_id = $1 AND event_id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, eventID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotRegistered
	}

	return nil
}

// Exists reports whether the user is registered for the event.
func (r *registrationRepository) Exists(ctx context.Context, userID, eventID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM event_registrations WHERE user_id = $1 AND event_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}

	return exists, nil
}

// Count returns the number of registrations for the event.
func (r *registrationRepository) Count(ctx context.Context, eventID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}

	return count, nil
}

// ListParticipants returns the registered users ordered by registration time.
func (r *registrationRepository) ListParticipants(ctx context.Context, eventID int64) ([]*domain.User, error) {
	const query = `
		SELECT u.id, u.telegram_id, u.username, u.first_name, u.last_name, u.role, COALESCE(u.city, ''), u.is_active, u.created_at
		FROM users u
		JOIN event_registrations er ON er.user_id = u.id
		WHERE er.event_id = $1
		ORDER BY er.registered_at
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows.Scan, &user); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	return users, nil
}

// ListParticipantIDs returns just the user ids registered for the event.
func (r *registrationRepository) ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error) {
	const query = `SELECT user_id FROM event_registrations WHERE event_id = $1 ORDER BY registered_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("select participant ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant ids: %w", err)
	}

	return ids, nil
}
