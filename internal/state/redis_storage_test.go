package state

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStorage_RoundTrip(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)
	ctx := context.Background()
	userID := int64(5)

	if _, err := storage.GetState(ctx, userID); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}

	in := &UserState{
		UserID:       userID,
		CurrentState: StateEventCity,
		Context: map[string]interface{}{
			KeyTitle:       "Jazz night",
			KeyDescription: "Live trio",
		},
	}
	if err := storage.SetState(ctx, userID, in); err != nil {
		t.Fatalf("set state: %v", err)
	}

	out, err := storage.GetState(ctx, userID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if out.CurrentState != StateEventCity {
		t.Fatalf("unexpected state %s", out.CurrentState)
	}
	if out.StringValue(KeyTitle) != "Jazz night" {
		t.Fatalf("scratch lost in round trip: %+v", out.Context)
	}
	if out.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be stamped")
	}

	if err := storage.ClearState(ctx, userID); err != nil {
		t.Fatalf("clear state: %v", err)
	}
	if _, err := storage.GetState(ctx, userID); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after clear, got %v", err)
	}
}

func TestRedisStorage_SessionExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	storage := NewRedisStorage(client, testLogger(), time.Minute)
	ctx := context.Background()

	if err := storage.SetState(ctx, 9, &UserState{UserID: 9, CurrentState: StateEventTitle}); err != nil {
		t.Fatalf("set state: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := storage.GetState(ctx, 9); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected abandoned session to expire, got %v", err)
	}
}

func TestRedisStorage_GetAllStates(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		if err := storage.SetState(ctx, id, &UserState{UserID: id, CurrentState: StateEventTitle}); err != nil {
			t.Fatalf("set state %d: %v", id, err)
		}
	}

	states, err := storage.GetAllStates(ctx)
	if err != nil {
		t.Fatalf("get all states: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
}
