package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/repository"
)

// ProfileCache caches user profiles keyed by telegram ID. A nil cache
// disables caching.
type ProfileCache interface {
	Get(ctx context.Context, telegramID int64) (*domain.User, error)
	Set(ctx context.Context, telegramID int64, user *domain.User, ttl time.Duration) error
	Invalidate(ctx context.Context, telegramID int64) error
}

const profileCacheTTL = 5 * time.Minute

// Service provides business operations over users.
type Service struct {
	repo    repository.UserRepository
	cache   ProfileCache
	adminID int64
	log     *slog.Logger
}

// NewService constructs a new Service instance. adminID names the Telegram
// account promoted to admin when it first contacts the bot; zero disables
// the bootstrap. cache may be nil.
func NewService(repo repository.UserRepository, cache ProfileCache, adminID int64, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, adminID: adminID, log: log}
}

// GetOrCreate fetches a user by telegram ID or creates a new profile when
// missing. The bootstrap admin promotion happens only at creation time;
// an existing row keeps whatever role it already has.
func (s *Service) GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.User, error) {
	if telegramUser == nil {
		return nil, errors.New("telegram user is nil")
	}

	if cached, err := s.cacheGet(ctx, telegramUser.ID); err == nil && cached != nil {
		return cached, nil
	}

	user, err := s.repo.FindByTelegramID(ctx, telegramUser.ID)
	if err == nil {
		s.cacheSet(ctx, user)
		return user, nil
	}

	if !errors.Is(err, repository.ErrNotFound) {
		s.logError("get_or_create.find", telegramUser.ID, err)
		return nil, fmt.Errorf("get user: %w", err)
	}

	role := domain.RoleUser
	if s.adminID != 0 && telegramUser.ID == s.adminID {
		role = domain.RoleAdmin
	}

	newUser := &domain.User{
		TelegramID: telegramUser.ID,
		FirstName:  telegramUser.FirstName,
		LastName:   telegramUser.LastName,
		Username:   telegramUser.Username,
		Role:       role,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logError("get_or_create.create", telegramUser.ID, err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	if role == domain.RoleAdmin {
		s.log.Info("bootstrap admin created", slog.Int64("telegram_id", telegramUser.ID))
	}

	s.cacheSet(ctx, newUser)
	return newUser, nil
}

// SetCity stores the user's chosen city.
func (s *Service) SetCity(ctx context.Context, telegramID int64, city string) error {
	if err := s.repo.UpdateCity(ctx, telegramID, city); err != nil {
		s.logError("set_city", telegramID, err)
		return err
	}

	s.cacheInvalidate(ctx, telegramID)
	return nil
}

// SetRole changes the target user's permission level.
func (s *Service) SetRole(ctx context.Context, telegramID int64, role domain.Role) error {
	switch role {
	case domain.RoleUser, domain.RoleModerator, domain.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	if err := s.repo.UpdateRole(ctx, telegramID, role); err != nil {
		s.logError("set_role", telegramID, err)
		return err
	}

	s.cacheInvalidate(ctx, telegramID)
	s.log.Info("role updated",
		slog.Int64("telegram_id", telegramID),
		slog.String("role", string(role)),
	)
	return nil
}

// Find returns the user stored for the given telegram ID.
func (s *Service) Find(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := s.repo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logError("find", telegramID, err)
		}
		return nil, err
	}

	return user, nil
}

// ListStaff returns all moderators and admins.
func (s *Service) ListStaff(ctx context.Context) ([]*domain.User, error) {
	moderators, err := s.repo.ListByRole(ctx, domain.RoleModerator)
	if err != nil {
		return nil, fmt.Errorf("list moderators: %w", err)
	}

	admins, err := s.repo.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	return append(moderators, admins...), nil
}

// Cache failures never fail the operation, they only cost a DB round trip.

func (s *Service) cacheGet(ctx context.Context, telegramID int64) (*domain.User, error) {
	if s.cache == nil {
		return nil, nil
	}
	return s.cache.Get(ctx, telegramID)
}

func (s *Service) cacheSet(ctx context.Context, user *domain.User) {
	if s.cache == nil || user == nil {
		return
	}
	if err := s.cache.Set(ctx, user.TelegramID, user, profileCacheTTL); err != nil {
		s.logError("cache.set", user.TelegramID, err)
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, telegramID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, telegramID); err != nil {
		s.logError("cache.invalidate", telegramID, err)
	}
}

func (s *Service) logError(operation string, telegramID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("user service operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
