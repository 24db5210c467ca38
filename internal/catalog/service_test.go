package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/velta-dev/afisha-bot/internal/domain"
)

var errStoreDown = errors.New("store down")

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventRepo) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*domain.Event)
	return event, args.Error(1)
}

func (m *mockEventRepo) ListVisibleUpcoming(ctx context.Context, city string, now time.Time) ([]*domain.Event, error) {
	args := m.Called(ctx, city, now)
	events, _ := args.Get(0).([]*domain.Event)
	return events, args.Error(1)
}

func (m *mockEventRepo) ListAll(ctx context.Context) ([]*domain.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]*domain.Event)
	return events, args.Error(1)
}

func (m *mockEventRepo) ListCreatedBy(ctx context.Context, creatorID int64) ([]*domain.Event, error) {
	args := m.Called(ctx, creatorID)
	events, _ := args.Get(0).([]*domain.Event)
	return events, args.Error(1)
}

func (m *mockEventRepo) ListRegisteredBy(ctx context.Context, userID int64, now time.Time) ([]*domain.Event, error) {
	args := m.Called(ctx, userID, now)
	events, _ := args.Get(0).([]*domain.Event)
	return events, args.Error(1)
}

func (m *mockEventRepo) PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEventRepo) SetVisible(ctx context.Context, id int64, visible bool) error {
	args := m.Called(ctx, id, visible)
	return args.Error(0)
}

func (m *mockEventRepo) SetRegistrationOpen(ctx context.Context, id int64, open bool) error {
	args := m.Called(ctx, id, open)
	return args.Error(0)
}

func (m *mockEventRepo) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *mockEventRepo) *Service {
	s := NewService(repo, testLogger())
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestService_NextUpcomingForUser(t *testing.T) {
	ctx := context.Background()
	moscowEvent := &domain.Event{ID: 1, Title: "Moscow Jazz", City: "Moscow"}
	kazanEvent := &domain.Event{ID: 2, Title: "Kazan Open Air", City: "Kazan"}

	testCases := []struct {
		name       string
		user       *domain.User
		setupMocks func(repo *mockEventRepo)
		expectID   int64
	}{
		{
			name: "city preference wins",
			user: &domain.User{ID: 1, City: "Moscow"},
			setupMocks: func(repo *mockEventRepo) {
				repo.On("ListVisibleUpcoming", mock.Anything, "Moscow", mock.Anything).
					Return([]*domain.Event{moscowEvent}, nil).Once()
			},
			expectID: 1,
		},
		{
			name: "empty city falls back to any",
			user: &domain.User{ID: 1, City: "Moscow"},
			setupMocks: func(repo *mockEventRepo) {
				repo.On("ListVisibleUpcoming", mock.Anything, "Moscow", mock.Anything).
					Return([]*domain.Event(nil), nil).Once()
				repo.On("ListVisibleUpcoming", mock.Anything, "", mock.Anything).
					Return([]*domain.Event{kazanEvent}, nil).Once()
			},
			expectID: 2,
		},
		{
			name: "no city set skips the city query",
			user: &domain.User{ID: 1},
			setupMocks: func(repo *mockEventRepo) {
				repo.On("ListVisibleUpcoming", mock.Anything, "", mock.Anything).
					Return([]*domain.Event{kazanEvent}, nil).Once()
			},
			expectID: 2,
		},
		{
			name: "nothing anywhere",
			user: &domain.User{ID: 1, City: "Moscow"},
			setupMocks: func(repo *mockEventRepo) {
				repo.On("ListVisibleUpcoming", mock.Anything, "Moscow", mock.Anything).
					Return([]*domain.Event(nil), nil).Once()
				repo.On("ListVisibleUpcoming", mock.Anything, "", mock.Anything).
					Return([]*domain.Event(nil), nil).Once()
			},
			expectID: 0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockEventRepo{}
			tc.setupMocks(repo)
			s := newTestService(repo)

			event := s.NextUpcomingForUser(ctx, tc.user)

			if tc.expectID == 0 {
				if event != nil {
					t.Fatalf("expected no event, got %+v", event)
				}
			} else if event == nil || event.ID != tc.expectID {
				t.Fatalf("expected event %d, got %+v", tc.expectID, event)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_ListVisibleUpcoming_DegradesToEmpty(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("ListVisibleUpcoming", mock.Anything, "Moscow", mock.Anything).
		Return([]*domain.Event(nil), errStoreDown)
	s := newTestService(repo)

	events := s.ListVisibleUpcoming(context.Background(), "Moscow")

	if len(events) != 0 {
		t.Fatalf("expected empty result on store failure, got %d events", len(events))
	}
}

func TestService_ListAll_IncludesHiddenAndPast(t *testing.T) {
	repo := &mockEventRepo{}
	everything := []*domain.Event{
		{ID: 1, Title: "Hidden jam", IsVisible: false},
		{ID: 2, Title: "Last month", IsVisible: true},
	}
	repo.On("ListAll", mock.Anything).Return(everything, nil).Once()
	s := newTestService(repo)

	events := s.ListAll(context.Background())

	if len(events) != 2 {
		t.Fatalf("expected the full catalog, got %d events", len(events))
	}
	repo.AssertExpectations(t)
}

func TestService_ListAll_DegradesToEmpty(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("ListAll", mock.Anything).Return([]*domain.Event(nil), errStoreDown)
	s := newTestService(repo)

	if events := s.ListAll(context.Background()); len(events) != 0 {
		t.Fatalf("expected empty result on store failure, got %d events", len(events))
	}
}

func TestService_ListCreatedBy_RetriesTransientFailure(t *testing.T) {
	repo := &mockEventRepo{}
	owned := []*domain.Event{{ID: 5, Title: "Meetup"}}
	repo.On("ListCreatedBy", mock.Anything, int64(9)).Return([]*domain.Event(nil), errStoreDown).Once()
	repo.On("ListCreatedBy", mock.Anything, int64(9)).Return(owned, nil).Once()
	s := newTestService(repo)

	events := s.ListCreatedBy(context.Background(), &domain.User{ID: 9})

	if len(events) != 1 || events[0].ID != 5 {
		t.Fatalf("expected the retry to recover, got %+v", events)
	}
	repo.AssertExpectations(t)
}

func TestService_ListCreatedBy(t *testing.T) {
	repo := &mockEventRepo{}
	owned := []*domain.Event{{ID: 5, Title: "Meetup"}}
	repo.On("ListCreatedBy", mock.Anything, int64(9)).Return(owned, nil).Once()
	s := newTestService(repo)

	events := s.ListCreatedBy(context.Background(), &domain.User{ID: 9})

	if len(events) != 1 || events[0].ID != 5 {
		t.Fatalf("unexpected result: %+v", events)
	}
	repo.AssertExpectations(t)
}
