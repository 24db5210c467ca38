// Package catalog provides read-only queries over the event catalog.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/velta-dev/afisha-bot/internal/domain"
	apperrors "github.com/velta-dev/afisha-bot/internal/errors"
	"github.com/velta-dev/afisha-bot/internal/repository"
)

// Service answers catalog queries. All operations are read-only and
// idempotent; list queries degrade to an empty result when the store
// is unavailable so browsing never shows an error screen.
type Service struct {
	events repository.EventRepository
	now    func() time.Time
	log    *slog.Logger
}

// NewService constructs a catalog Service.
func NewService(events repository.EventRepository, log *slog.Logger) *Service {
	return &Service{
		events: events,
		now:    time.Now,
		log:    log,
	}
}

// ListVisibleUpcoming returns visible future events, newest start last.
// An empty city means all cities.
func (s *Service) ListVisibleUpcoming(ctx context.Context, city string) []*domain.Event {
	var result []*domain.Event
	err := apperrors.WithRetry(ctx, func() error {
		var err error
		result, err = s.events.ListVisibleUpcoming(ctx, city, s.now())
		if err != nil {
			return apperrors.NewDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("catalog list failed", slog.String("city", city), slog.Any("error", err))
		return nil
	}

	return result
}

// NextUpcomingForUser finds the soonest visible event for the user's city,
// falling back to any city when theirs has nothing scheduled. Returns nil
// when no upcoming event exists at all.
func (s *Service) NextUpcomingForUser(ctx context.Context, user *domain.User) *domain.Event {
	if user != nil && user.City != "" {
		if events := s.ListVisibleUpcoming(ctx, user.City); len(events) > 0 {
			return events[0]
		}
	}

	if events := s.ListVisibleUpcoming(ctx, ""); len(events) > 0 {
		return events[0]
	}

	return nil
}

// ListAll returns every event, hidden and past ones included. It backs the
// admin management screen, which must still show events after they were
// hidden from the public catalog.
func (s *Service) ListAll(ctx context.Context) []*domain.Event {
	var result []*domain.Event
	err := apperrors.WithRetry(ctx, func() error {
		var err error
		result, err = s.events.ListAll(ctx)
		if err != nil {
			return apperrors.NewDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("catalog full list failed", slog.Any("error", err))
		return nil
	}

	return result
}

// ListCreatedBy returns every event created by the user.
func (s *Service) ListCreatedBy(ctx context.Context, user *domain.User) []*domain.Event {
	if user == nil {
		return nil
	}

	var result []*domain.Event
	err := apperrors.WithRetry(ctx, func() error {
		var err error
		result, err = s.events.ListCreatedBy(ctx, user.ID)
		if err != nil {
			return apperrors.NewDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("catalog created-by list failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil
	}

	return result
}

// ListRegisteredBy returns upcoming events the user holds a registration for.
func (s *Service) ListRegisteredBy(ctx context.Context, user *domain.User) []*domain.Event {
	if user == nil {
		return nil
	}

	var result []*domain.Event
	err := apperrors.WithRetry(ctx, func() error {
		var err error
		result, err = s.events.ListRegisteredBy(ctx, user.ID, s.now())
		if err != nil {
			return apperrors.NewDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("catalog registered-by list failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
		return nil
	}

	return result
}

// FindByID fetches a single event. Unlike the list queries this surfaces
// the error so callers can tell missing from broken.
func (s *Service) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	return s.events.FindByID(ctx, id)
}
