package wizard

import (
	"testing"
	"time"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/state"
)

func TestBuildEventDraft(t *testing.T) {
	userState := &state.UserState{
		UserID:       1,
		CurrentState: state.StateEventMedia,
		Context: map[string]interface{}{
			state.KeyTitle:           "Jazz night",
			state.KeyDescription:     "Live trio",
			state.KeyLocation:        "Main hall",
			state.KeyCity:            "Moscow",
			state.KeyDateTime:        "25.12.2024 18:30",
			state.KeyMaxParticipants: "50",
			state.KeyRegRequired:     true,
		},
	}

	draft, err := BuildEventDraft(userState, Media{PhotoFileID: "photo-1"})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}

	if draft.Title != "Jazz night" || draft.City != "Moscow" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.MaxParticipants != 50 {
		t.Fatalf("expected participant cap 50, got %d", draft.MaxParticipants)
	}
	want := time.Date(2024, 12, 25, 18, 30, 0, 0, time.Local)
	if !draft.DateTime.Equal(want) {
		t.Fatalf("expected %v, got %v", want, draft.DateTime)
	}
	if !draft.RegistrationRequired {
		t.Fatalf("expected registration required")
	}
}

func TestBuildEventDraft_ScratchSurvivesJSONTypes(t *testing.T) {
	// After a Redis round trip every scratch value comes back as a string
	// or bool; the empty cap means unlimited.
	userState := &state.UserState{
		Context: map[string]interface{}{
			state.KeyTitle:    "Open air",
			state.KeyCity:     "Kazan",
			state.KeyDateTime: "01.06.2025 20:00",
		},
	}

	draft, err := BuildEventDraft(userState, Media{})
	if err != nil {
		t.Fatalf("build draft: %v", err)
	}
	if draft.MaxParticipants != 0 {
		t.Fatalf("expected unlimited cap, got %d", draft.MaxParticipants)
	}
}

func TestBuildEventDraft_CorruptScratch(t *testing.T) {
	userState := &state.UserState{
		Context: map[string]interface{}{
			state.KeyDateTime: "not a date",
		},
	}

	if _, err := BuildEventDraft(userState, Media{}); err == nil {
		t.Fatalf("expected error for corrupt scratch date")
	}
}

func TestEventDraft_ToEvent(t *testing.T) {
	draft := EventDraft{
		Title:                "Jazz night",
		City:                 "Moscow",
		DateTime:             time.Date(2024, 12, 25, 18, 30, 0, 0, time.Local),
		MaxParticipants:      50,
		RegistrationRequired: true,
		Media:                Media{VideoFileID: "vid-1"},
	}

	event := draft.ToEvent(7)

	if event.CreatorID != 7 {
		t.Fatalf("expected creator 7, got %d", event.CreatorID)
	}
	if !event.RegistrationOpen || !event.IsVisible {
		t.Fatalf("new events must start open and visible: %+v", event)
	}
	if event.MediaType != domain.MediaVideo {
		t.Fatalf("expected video media type, got %q", event.MediaType)
	}
}
