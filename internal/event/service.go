// Package event holds the mutation side of event management.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/repository"
	"github.com/velta-dev/afisha-bot/internal/role"
)

var (
	ErrNotFound   = errors.New("event not found")
	ErrNotAllowed = errors.New("not allowed to manage this event")
)

// Service executes staff-side event mutations. Every mutation re-checks
// the caller's rights against the freshly loaded event.
type Service struct {
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	log           *slog.Logger
}

// NewService constructs an event Service.
func NewService(events repository.EventRepository, registrations repository.RegistrationRepository, log *slog.Logger) *Service {
	return &Service{
		events:        events,
		registrations: registrations,
		log:           log,
	}
}

// Create persists a new event for the given creator.
func (s *Service) Create(ctx context.Context, event *domain.Event) error {
	if err := s.events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	s.log.Info("event created",
		slog.Int64("event_id", event.ID),
		slog.String("title", event.Title),
		slog.Int64("creator_id", event.CreatorID),
	)
	return nil
}

// ToggleVisibility flips the event's catalog visibility and returns the
// new value.
func (s *Service) ToggleVisibility(ctx context.Context, actor *domain.User, eventID int64) (bool, error) {
	event, err := s.authorize(ctx, actor, eventID)
	if err != nil {
		return false, err
	}

	next := !event.IsVisible
	if err := s.events.SetVisible(ctx, eventID, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle visibility: %w", err)
	}

	return next, nil
}

// ToggleRegistration flips whether the event accepts registrations and
// returns the new value.
func (s *Service) ToggleRegistration(ctx context.Context, actor *domain.User, eventID int64) (bool, error) {
	event, err := s.authorize(ctx, actor, eventID)
	if err != nil {
		return false, err
	}

	next := !event.RegistrationOpen
	if err := s.events.SetRegistrationOpen(ctx, eventID, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle registration: %w", err)
	}

	return next, nil
}

// Delete removes the event together with its registrations and returns
// how many registrations were released.
func (s *Service) Delete(ctx context.Context, actor *domain.User, eventID int64) (int64, error) {
	if _, err := s.authorize(ctx, actor, eventID); err != nil {
		return 0, err
	}

	released, err := s.events.Delete(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("delete event: %w", err)
	}

	return released, nil
}

// Participants lists the users registered for the event.
func (s *Service) Participants(ctx context.Context, actor *domain.User, eventID int64) ([]*domain.User, error) {
	if _, err := s.authorize(ctx, actor, eventID); err != nil {
		return nil, err
	}

	participants, err := s.registrations.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	return participants, nil
}

func (s *Service) authorize(ctx context.Context, actor *domain.User, eventID int64) (*domain.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	if !role.CanManageEvent(actor, event) {
		s.log.Warn("event mutation denied",
			slog.Int64("user_id", actor.ID),
			slog.Int64("event_id", eventID),
		)
		return nil, ErrNotAllowed
	}

	return event, nil
}
