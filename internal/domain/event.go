package domain

import "time"

// MediaType identifies the kind of media attached to an event.
type MediaType string

const (
	MediaNone  MediaType = ""
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// Event represents a published event users can register for.
type Event struct {
	ID                   int64
	Title                string
	Description          string // empty when skipped
	Location             string // empty when skipped
	City                 string
	DateTime             time.Time
	CreatorID            int64
	MaxParticipants      int // 0 means unlimited
	RegistrationRequired bool
	RegistrationOpen     bool
	IsVisible            bool
	PhotoFileID          string
	VideoFileID          string
	MediaType            MediaType
	ReminderHours        int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Unlimited reports whether the event has no participant cap.
func (e *Event) Unlimited() bool {
	return e.MaxParticipants <= 0
}

// Upcoming reports whether the event starts after the given instant.
func (e *Event) Upcoming(now time.Time) bool {
	return e.DateTime.After(now)
}

// Registration joins a user to an event.
type Registration struct {
	ID           int64
	UserID       int64
	EventID      int64
	RegisteredAt time.Time
}
