package user

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	byTelegramID map[int64]*domain.User
	nextID       int64
	creates      int
	finds        int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byTelegramID: make(map[int64]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	f.finds++
	user, ok := f.byTelegramID[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, user := range f.byTelegramID {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.creates++
	user.ID = f.nextID
	f.nextID++
	stored := *user
	f.byTelegramID[user.TelegramID] = &stored
	return nil
}

func (f *fakeUserRepo) UpdateCity(ctx context.Context, telegramID int64, city string) error {
	user, ok := f.byTelegramID[telegramID]
	if !ok {
		return repository.ErrNotFound
	}
	user.City = city
	return nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, telegramID int64, role domain.Role) error {
	user, ok := f.byTelegramID[telegramID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Role = role
	return nil
}

func (f *fakeUserRepo) ListActive(ctx context.Context, city string) ([]*domain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	var users []*domain.User
	for _, user := range f.byTelegramID {
		if user.Role == role {
			copied := *user
			users = append(users, &copied)
		}
	}
	return users, nil
}

type memoryCache struct {
	entries map[int64]*domain.User
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[int64]*domain.User)}
}

func (c *memoryCache) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, ok := c.entries[telegramID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (c *memoryCache) Set(ctx context.Context, telegramID int64, user *domain.User, ttl time.Duration) error {
	copied := *user
	c.entries[telegramID] = &copied
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, telegramID int64) error {
	delete(c.entries, telegramID)
	return nil
}

func TestService_GetOrCreate_BootstrapAdmin(t *testing.T) {
	const adminID = int64(777)

	repo := newFakeUserRepo()
	svc := NewService(repo, nil, adminID, testLogger())
	ctx := context.Background()

	admin, err := svc.GetOrCreate(ctx, &telebot.User{ID: adminID, FirstName: "Root"})
	if err != nil {
		t.Fatalf("get or create admin: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("bootstrap admin role = %q, want %q", admin.Role, domain.RoleAdmin)
	}

	regular, err := svc.GetOrCreate(ctx, &telebot.User{ID: 1001, FirstName: "Guest"})
	if err != nil {
		t.Fatalf("get or create regular: %v", err)
	}
	if regular.Role != domain.RoleUser {
		t.Fatalf("regular role = %q, want %q", regular.Role, domain.RoleUser)
	}
}

func TestService_GetOrCreate_PromotionOnlyAtCreation(t *testing.T) {
	const adminID = int64(777)

	repo := newFakeUserRepo()
	repo.byTelegramID[adminID] = &domain.User{ID: 1, TelegramID: adminID, Role: domain.RoleUser}

	svc := NewService(repo, nil, adminID, testLogger())

	user, err := svc.GetOrCreate(context.Background(), &telebot.User{ID: adminID})
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("existing row promoted to %q, want role kept as %q", user.Role, domain.RoleUser)
	}
	if repo.creates != 0 {
		t.Fatalf("creates = %d, want 0", repo.creates)
	}
}

func TestService_GetOrCreate_UsesCache(t *testing.T) {
	repo := newFakeUserRepo()
	cache := newMemoryCache()
	svc := NewService(repo, cache, 0, testLogger())
	ctx := context.Background()

	tgUser := &telebot.User{ID: 55, FirstName: "Ann"}
	if _, err := svc.GetOrCreate(ctx, tgUser); err != nil {
		t.Fatalf("first call: %v", err)
	}

	findsBefore := repo.finds
	if _, err := svc.GetOrCreate(ctx, tgUser); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if repo.finds != findsBefore {
		t.Fatalf("cached profile still hit the repository (%d -> %d finds)", findsBefore, repo.finds)
	}
}

func TestService_SetRole_InvalidatesCache(t *testing.T) {
	repo := newFakeUserRepo()
	cache := newMemoryCache()
	svc := NewService(repo, cache, 0, testLogger())
	ctx := context.Background()

	tgUser := &telebot.User{ID: 55}
	if _, err := svc.GetOrCreate(ctx, tgUser); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := svc.SetRole(ctx, 55, domain.RoleModerator); err != nil {
		t.Fatalf("set role: %v", err)
	}

	fresh, err := svc.GetOrCreate(ctx, tgUser)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if fresh.Role != domain.RoleModerator {
		t.Fatalf("role after update = %q, want %q", fresh.Role, domain.RoleModerator)
	}
}

func TestService_SetRole_RejectsUnknownRole(t *testing.T) {
	svc := NewService(newFakeUserRepo(), nil, 0, testLogger())

	if err := svc.SetRole(context.Background(), 55, domain.Role("owner")); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
