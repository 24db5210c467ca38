// Package registration enforces the rules around signing up for events.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/repository"
	"github.com/velta-dev/afisha-bot/pkg/metrics"
)

// Outcome sentinels, checked in precondition order. The repository layer
// reports its own sentinels for races the preconditions could not see.
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrEventPassed        = errors.New("event already started")
	ErrAlreadyRegistered  = repository.ErrAlreadyRegistered
	ErrNotRegistered      = repository.ErrNotRegistered
	ErrEventFull          = repository.ErrEventFull
)

// Manager coordinates event registrations.
type Manager struct {
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	now           func() time.Time
	log           *slog.Logger
}

// NewManager constructs a registration Manager.
func NewManager(events repository.EventRepository, registrations repository.RegistrationRepository, log *slog.Logger) *Manager {
	return &Manager{
		events:        events,
		registrations: registrations,
		now:           time.Now,
		log:           log,
	}
}

// Register signs the user up for the event. Preconditions are checked in
// order and the first failure wins: the event must exist, accept
// registrations, lie in the future, and the user must not hold a
// registration already. The capacity check itself happens inside the
// repository transaction, so two users racing for the last slot cannot
// both win.
func (m *Manager) Register(ctx context.Context, user *domain.User, eventID int64) error {
	err := m.register(ctx, user, eventID)
	metrics.RecordRegistration(registerOutcome(err))
	return err
}

func (m *Manager) register(ctx context.Context, user *domain.User, eventID int64) error {
	event, err := m.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("load event: %w", err)
	}

	if !event.RegistrationOpen {
		return ErrRegistrationClosed
	}

	if !event.Upcoming(m.now()) {
		return ErrEventPassed
	}

	exists, err := m.registrations.Exists(ctx, user.ID, eventID)
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if exists {
		return ErrAlreadyRegistered
	}

	if err := m.registrations.Register(ctx, user.ID, eventID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrEventNotFound
		case errors.Is(err, repository.ErrRegistrationShut):
			return ErrRegistrationClosed
		case errors.Is(err, repository.ErrAlreadyRegistered),
			errors.Is(err, repository.ErrEventFull):
			return err
		default:
			return fmt.Errorf("register: %w", err)
		}
	}

	m.log.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.Int64("event_id", eventID),
	)
	return nil
}

func registerOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEventFull):
		return "full"
	case errors.Is(err, ErrAlreadyRegistered):
		return "duplicate"
	case errors.Is(err, ErrRegistrationClosed):
		return "closed"
	case errors.Is(err, ErrEventPassed):
		return "passed"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Unregister removes the user's registration. Returns ErrNotRegistered
// when there was nothing to remove.
func (m *Manager) Unregister(ctx context.Context, user *domain.User, eventID int64) error {
	if err := m.registrations.Unregister(ctx, user.ID, eventID); err != nil {
		if errors.Is(err, repository.ErrNotRegistered) {
			return ErrNotRegistered
		}
		return fmt.Errorf("unregister: %w", err)
	}

	m.log.Info("user unregistered",
		slog.Int64("user_id", user.ID),
		slog.Int64("event_id", eventID),
	)
	return nil
}

// IsRegistered reports whether the user holds a registration for the event.
func (m *Manager) IsRegistered(ctx context.Context, user *domain.User, eventID int64) (bool, error) {
	return m.registrations.Exists(ctx, user.ID, eventID)
}

// Count returns the current number of registrations for the event.
func (m *Manager) Count(ctx context.Context, eventID int64) (int, error) {
	return m.registrations.Count(ctx, eventID)
}
