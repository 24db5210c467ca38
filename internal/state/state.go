package state

import "time"

// State represents a finite-state machine state.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next user command.
	StateIdle State = "idle"

	// Create-event wizard: one state per question, in order.
	StateEventTitle        State = "event_title"
	StateEventDescription  State = "event_description"
	StateEventLocation     State = "event_location"
	StateEventCity         State = "event_city"
	StateEventDateTime     State = "event_date_time"
	StateEventParticipants State = "event_participants"
	StateEventRegRequired  State = "event_reg_required"
	StateEventMedia        State = "event_media"

	// Role-management wizard: the chosen action waits for a Telegram ID.
	StateRoleUserID State = "role_user_id"

	// Broadcast wizard: compose the message, then confirm.
	StateBroadcastMessage State = "broadcast_message"
	StateBroadcastConfirm State = "broadcast_confirm"

	// StateError indicates that the bot is in an error state and requires recovery.
	StateError State = "error"
)

// Scratch keys used in UserState.Context while a wizard is in flight.
// Values survive a JSON round-trip through Redis, so everything is stored
// as strings or bools and parsed at commit time.
const (
	KeyTitle           = "title"
	KeyDescription     = "description"
	KeyLocation        = "location"
	KeyCity            = "city"
	KeyDateTime        = "date_time"
	KeyMaxParticipants = "max_participants"
	KeyRegRequired     = "registration_required"
	KeyRoleAction      = "role_action"
	KeyBroadcastTarget = "broadcast_target"
	KeyBroadcastText   = "broadcast_text"
)

// UserState captures the current FSM state for a Telegram user.
type UserState struct {
	UserID       int64                  `json:"user_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// StringValue returns the scratch value under key as a string.
func (s *UserState) StringValue(key string) string {
	if s == nil || s.Context == nil {
		return ""
	}

	v, _ := s.Context[key].(string)
	return v
}

// BoolValue returns the scratch value under key as a bool.
func (s *UserState) BoolValue(key string) bool {
	if s == nil || s.Context == nil {
		return false
	}

	v, _ := s.Context[key].(bool)
	return v
}
