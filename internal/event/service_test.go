package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeFake keeps events and registrations in memory with the same
// observable behavior as the SQL repositories: toggles bump updated_at,
// delete cascades and reports the released registration count.
type storeFake struct {
	mu            sync.Mutex
	events        map[int64]*domain.Event
	registrations map[int64][]int64 // eventID -> userIDs
	clock         time.Time
}

func newStoreFake(events ...*domain.Event) *storeFake {
	f := &storeFake{
		events:        make(map[int64]*domain.Event),
		registrations: make(map[int64][]int64),
		clock:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *storeFake) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *storeFake) Create(ctx context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = int64(len(f.events) + 1)
	event.CreatedAt = f.tick()
	event.UpdatedAt = event.CreatedAt
	f.events[event.ID] = event
	return nil
}

func (f *storeFake) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (f *storeFake) ListVisibleUpcoming(ctx context.Context, city string, now time.Time) ([]*domain.Event, error) {
	return nil, nil
}

func (f *storeFake) ListAll(ctx context.Context) ([]*domain.Event, error) {
	return nil, nil
}

func (f *storeFake) ListCreatedBy(ctx context.Context, creatorID int64) ([]*domain.Event, error) {
	return nil, nil
}

func (f *storeFake) ListRegisteredBy(ctx context.Context, userID int64, now time.Time) ([]*domain.Event, error) {
	return nil, nil
}

func (f *storeFake) PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for id, event := range f.events {
		if event.DateTime.Before(cutoff) {
			delete(f.events, id)
			delete(f.registrations, id)
			purged++
		}
	}
	return purged, nil
}

func (f *storeFake) SetVisible(ctx context.Context, id int64, visible bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	event.IsVisible = visible
	event.UpdatedAt = f.tick()
	return nil
}

func (f *storeFake) SetRegistrationOpen(ctx context.Context, id int64, open bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	event.RegistrationOpen = open
	event.UpdatedAt = f.tick()
	return nil
}

func (f *storeFake) Delete(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return 0, repository.ErrNotFound
	}
	released := int64(len(f.registrations[id]))
	delete(f.events, id)
	delete(f.registrations, id)
	return released, nil
}

// Registration side of the fake.

func (f *storeFake) Register(ctx context.Context, userID, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registrations[eventID] = append(f.registrations[eventID], userID)
	return nil
}

func (f *storeFake) Unregister(ctx context.Context, userID, eventID int64) error {
	return nil
}

func (f *storeFake) Exists(ctx context.Context, userID, eventID int64) (bool, error) {
	return false, nil
}

func (f *storeFake) Count(ctx context.Context, eventID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registrations[eventID]), nil
}

func (f *storeFake) ListParticipants(ctx context.Context, eventID int64) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]*domain.User, 0, len(f.registrations[eventID]))
	for _, id := range f.registrations[eventID] {
		users = append(users, &domain.User{ID: id})
	}
	return users, nil
}

func (f *storeFake) ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.registrations[eventID]...), nil
}

func staffUser() *domain.User {
	return &domain.User{ID: 1, Role: domain.RoleAdmin}
}

func seedEvent() *domain.Event {
	return &domain.Event{
		ID:               10,
		Title:            "Open Air",
		City:             "Kazan",
		CreatorID:        99,
		DateTime:         time.Date(2025, 7, 1, 19, 0, 0, 0, time.UTC),
		RegistrationOpen: true,
		IsVisible:        true,
	}
}

func TestService_ToggleVisibility_DoubleToggleRestores(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake(seedEvent())
	s := NewService(store, store, testLogger())

	before, err := store.FindByID(ctx, 10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	hidden, err := s.ToggleVisibility(ctx, staffUser(), 10)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if hidden {
		t.Fatalf("expected event to be hidden after first toggle")
	}

	afterFirst, _ := store.FindByID(ctx, 10)
	if !afterFirst.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected updated_at bump after first toggle")
	}

	visible, err := s.ToggleVisibility(ctx, staffUser(), 10)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !visible {
		t.Fatalf("expected visibility restored after second toggle")
	}

	afterSecond, _ := store.FindByID(ctx, 10)
	if afterSecond.IsVisible != before.IsVisible {
		t.Fatalf("double toggle did not restore visibility")
	}
	if !afterSecond.UpdatedAt.After(afterFirst.UpdatedAt) {
		t.Fatalf("expected updated_at bump after second toggle")
	}
}

func TestService_ToggleRegistration_DoubleToggleRestores(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake(seedEvent())
	s := NewService(store, store, testLogger())

	closed, err := s.ToggleRegistration(ctx, staffUser(), 10)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if closed {
		t.Fatalf("expected registration closed after first toggle")
	}

	open, err := s.ToggleRegistration(ctx, staffUser(), 10)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !open {
		t.Fatalf("expected registration reopened after second toggle")
	}
}

func TestService_Delete_ReportsReleasedRegistrations(t *testing.T) {
	ctx := context.Background()
	store := newStoreFake(seedEvent())
	s := NewService(store, store, testLogger())

	const registered = 7
	for i := 0; i < registered; i++ {
		if err := store.Register(ctx, int64(100+i), 10); err != nil {
			t.Fatalf("seed registration: %v", err)
		}
	}

	released, err := s.Delete(ctx, staffUser(), 10)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if released != registered {
		t.Fatalf("expected %d released registrations, got %d", registered, released)
	}

	if _, err := store.FindByID(ctx, 10); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected event gone, got %v", err)
	}
	if count, _ := store.Count(ctx, 10); count != 0 {
		t.Fatalf("expected registrations removed, got %d", count)
	}
}

func TestService_Mutations_Authorization(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		actor     *domain.User
		expectErr error
	}{
		{
			name:      "plain user denied",
			actor:     &domain.User{ID: 50, Role: domain.RoleUser},
			expectErr: ErrNotAllowed,
		},
		{
			name:      "creator allowed",
			actor:     &domain.User{ID: 99, Role: domain.RoleUser},
			expectErr: nil,
		},
		{
			name:      "moderator allowed",
			actor:     &domain.User{ID: 2, Role: domain.RoleModerator},
			expectErr: nil,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			store := newStoreFake(seedEvent())
			s := NewService(store, store, testLogger())

			_, err := s.ToggleVisibility(ctx, tc.actor, 10)

			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("expected %v, got %v", tc.expectErr, err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestService_Delete_MissingEvent(t *testing.T) {
	store := newStoreFake()
	s := NewService(store, store, testLogger())

	if _, err := s.Delete(context.Background(), staffUser(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
