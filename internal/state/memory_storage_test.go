package state

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStorage_RoundTrip(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	if _, err := storage.GetState(ctx, 1); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}

	in := &UserState{
		UserID:       1,
		CurrentState: StateBroadcastMessage,
		Context:      map[string]interface{}{KeyBroadcastTarget: "Moscow"},
	}
	if err := storage.SetState(ctx, 1, in); err != nil {
		t.Fatalf("set state: %v", err)
	}

	out, err := storage.GetState(ctx, 1)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if out.StringValue(KeyBroadcastTarget) != "Moscow" {
		t.Fatalf("unexpected scratch: %+v", out.Context)
	}

	// Mutating the returned copy must not leak back into the store.
	out.Context[KeyBroadcastTarget] = "Kazan"
	again, _ := storage.GetState(ctx, 1)
	if again.StringValue(KeyBroadcastTarget) != "Moscow" {
		t.Fatalf("stored state mutated through a returned copy")
	}

	if err := storage.ClearState(ctx, 1); err != nil {
		t.Fatalf("clear state: %v", err)
	}
	if _, err := storage.GetState(ctx, 1); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after clear, got %v", err)
	}
}

func TestMemoryStorage_GetAllStates(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	for _, id := range []int64{10, 20} {
		if err := storage.SetState(ctx, id, &UserState{UserID: id, CurrentState: StateRoleUserID}); err != nil {
			t.Fatalf("set state %d: %v", id, err)
		}
	}

	states, err := storage.GetAllStates(ctx)
	if err != nil {
		t.Fatalf("get all states: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d", len(states))
	}
}
