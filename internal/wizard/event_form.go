package wizard

import (
	"strconv"
	"time"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/state"
)

// EventDraft is the assembled result of a completed create-event wizard,
// ready to be persisted.
type EventDraft struct {
	Title                string
	Description          string
	Location             string
	City                 string
	DateTime             time.Time
	MaxParticipants      int
	RegistrationRequired bool
	Media                Media
}

// BuildEventDraft reassembles the wizard answers from session scratch state.
// Scratch values are strings and bools (they must survive a JSON round-trip),
// so the date and the participant cap are re-parsed here.
func BuildEventDraft(s *state.UserState, media Media) (EventDraft, error) {
	dateTime, err := time.ParseInLocation(DateTimeLayout, s.StringValue(state.KeyDateTime), time.Local)
	if err != nil {
		return EventDraft{}, err
	}

	maxParticipants := 0
	if raw := s.StringValue(state.KeyMaxParticipants); raw != "" {
		maxParticipants, err = strconv.Atoi(raw)
		if err != nil {
			return EventDraft{}, err
		}
	}

	return EventDraft{
		Title:                s.StringValue(state.KeyTitle),
		Description:          s.StringValue(state.KeyDescription),
		Location:             s.StringValue(state.KeyLocation),
		City:                 s.StringValue(state.KeyCity),
		DateTime:             dateTime,
		MaxParticipants:      maxParticipants,
		RegistrationRequired: s.BoolValue(state.KeyRegRequired),
		Media:                media,
	}, nil
}

// ToEvent converts the draft into a domain event owned by the given creator.
func (d EventDraft) ToEvent(creatorID int64) *domain.Event {
	mediaType := domain.MediaNone
	switch {
	case d.Media.PhotoFileID != "":
		mediaType = domain.MediaPhoto
	case d.Media.VideoFileID != "":
		mediaType = domain.MediaVideo
	}

	return &domain.Event{
		Title:                d.Title,
		Description:          d.Description,
		Location:             d.Location,
		City:                 d.City,
		DateTime:             d.DateTime,
		CreatorID:            creatorID,
		MaxParticipants:      d.MaxParticipants,
		RegistrationRequired: d.RegistrationRequired,
		RegistrationOpen:     true,
		IsVisible:            true,
		PhotoFileID:          d.Media.PhotoFileID,
		VideoFileID:          d.Media.VideoFileID,
		MediaType:            mediaType,
		ReminderHours:        24,
	}
}
