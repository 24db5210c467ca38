package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/velta-dev/afisha-bot/internal/domain"
)

// EventRepository defines persistence operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	FindByID(ctx context.Context, id int64) (*domain.Event, error)
	ListVisibleUpcoming(ctx context.Context, city string, now time.Time) ([]*domain.Event, error)
	ListAll(ctx context.Context) ([]*domain.Event, error)
	ListCreatedBy(ctx context.Context, creatorID int64) ([]*domain.Event, error)
	ListRegisteredBy(ctx context.Context, userID int64, now time.Time) ([]*domain.Event, error)
	SetVisible(ctx context.Context, id int64, visible bool) error
	SetRegistrationOpen(ctx context.Context, id int64, open bool) error
	Delete(ctx context.Context, id int64) (int64, error)
	PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const eventColumns = `id, title, COALESCE(description, ''), COALESCE(location, ''), city, date_time,
	creator_id, COALESCE(max_participants, 0), registration_required, registration_open, is_visible,
	COALESCE(photo_file_id, ''), COALESCE(video_file_id, ''), COALESCE(media_type, ''),
	reminder_hours, created_at, updated_at`

type eventRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewEventRepository creates a new SQL-backed event repository.
func NewEventRepository(db *sql.DB, log *slog.Logger) EventRepository {
	return &eventRepository{
		db:  db,
		log: log,
	}
}

// Create persists a new event and fills in the generated id and timestamps.
func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
		INSERT INTO events (title, description, location, city, date_time, creator_id,
			max_participants, registration_required, registration_open, is_visible,
			photo_file_id, video_file_id, media_type, reminder_hours)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6,
			NULLIF($7, 0), $8, $9, $10,
			NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''), $14)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Location,
		event.City,
		event.DateTime,
		event.CreatorID,
		event.MaxParticipants,
		event.RegistrationRequired,
		event.RegistrationOpen,
		event.IsVisible,
		event.PhotoFileID,
		event.VideoFileID,
		string(event.MediaType),
		event.ReminderHours,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt); err != nil {
		if r.log != nil {
			r.log.Error("failed to create event", slog.String("title", event.Title), slog.Any("error", err))
		}
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// FindByID retrieves an event by id.
func (r *eventRepository) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var event domain.Event
	if err := scanEvent(row.Scan, &event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select event: %w", err)
	}

	return &event, nil
}

// ListVisibleUpcoming returns visible future events ordered by start time.
// A non-empty city narrows the result to that city.
func (r *eventRepository) ListVisibleUpcoming(ctx context.Context, city string, now time.Time) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_visible AND date_time > $1`
	args := []interface{}{now}
	if city != "" {
		query += ` AND city = $2`
		args = append(args, city)
	}
	query += ` ORDER BY date_time`

	return r.scanMany(ctx, query, args...)
}

// ListAll returns every event regardless of visibility or date, newest
// first. Management screens need hidden and past events too.
func (r *eventRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date_time DESC`

	return r.scanMany(ctx, query)
}

// ListCreatedBy returns every event created by the given user, newest first.
func (r *eventRepository) ListCreatedBy(ctx context.Context, creatorID int64) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE creator_id = $1 ORDER BY date_time DESC`

	return r.scanMany(ctx, query, creatorID)
}

// ListRegisteredBy returns upcoming events the user is registered for.
func (r *eventRepository) ListRegisteredBy(ctx context.Context, userID int64, now time.Time) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + ` FROM events
		WHERE date_time > $2 AND id IN (SELECT event_id FROM event_registrations WHERE user_id = $1)
		ORDER BY date_time
	`

	return r.scanMany(ctx, query, userID, now)
}

// SetVisible toggles the event's catalog visibility.
func (r *eventRepository) SetVisible(ctx context.Context, id int64, visible bool) error {
	const query = `UPDATE events SET is_visible = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, visible)
	if err != nil {
		return fmt.Errorf("update event visibility: %w", err)
	}

	return requireRow(res)
}

// SetRegistrationOpen toggles whether new registrations are accepted.
func (r *eventRepository) SetRegistrationOpen(ctx context.Context, id int64, open bool) error {
	const query = `UPDATE events SET registration_open = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, open)
	if err != nil {
		return fmt.Errorf("update event registration flag: %w", err)
	}

	return requireRow(res)
}

// Delete removes the event and, through the cascade, its registrations.
// It returns the number of registrations released.
func (r *eventRepository) Delete(ctx context.Context, id int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete event: %w", err)
	}
	defer tx.Rollback()

	var released int64
	const countQuery = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`
	if err := tx.QueryRowContext(ctx, countQuery, id).Scan(&released); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete event: %w", err)
	}
	if err := requireRow(res); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete event: %w", err)
	}

	if r.log != nil {
		r.log.Info("event deleted", slog.Int64("event_id", id), slog.Int64("registrations_released", released))
	}
	return released, nil
}

// PurgeEndedBefore removes events that started before cutoff. The cascade
// drops their registrations. Returns the number of events removed.
func (r *eventRepository) PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM events WHERE date_time < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge events rows affected: %w", err)
	}

	if r.log != nil && purged > 0 {
		r.log.Info("past events purged",
			slog.Time("cutoff", cutoff),
			slog.Int64("events", purged),
		)
	}
	return purged, nil
}

func (r *eventRepository) scanMany(ctx context.Context, query string, args ...interface{}) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var event domain.Event
		if err := scanEvent(rows.Scan, &event); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func scanEvent(scan func(...interface{}) error, event *domain.Event) error {
	var mediaType string
	if err := scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.City,
		&event.DateTime,
		&event.CreatorID,
		&event.MaxParticipants,
		&event.RegistrationRequired,
		&event.RegistrationOpen,
		&event.IsVisible,
		&event.PhotoFileID,
		&event.VideoFileID,
		&mediaType,
		&event.ReminderHours,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return err
	}
	event.MediaType = domain.MediaType(mediaType)
	return nil
}
