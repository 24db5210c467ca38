package state

// validTransitions contains the permitted non-emergency transitions in the FSM.
// Each wizard advances strictly forward; cancellation goes through StateIdle,
// which is always reachable.
var validTransitions = map[State][]State{
	StateIdle: {
		StateEventTitle,
		StateRoleUserID,
		StateBroadcastMessage,
	},
	StateEventTitle: {
		StateEventDescription,
	},
	StateEventDescription: {
		StateEventLocation,
	},
	StateEventLocation: {
		StateEventCity,
	},
	StateEventCity: {
		StateEventDateTime,
	},
	StateEventDateTime: {
		StateEventParticipants,
	},
	StateEventParticipants: {
		StateEventRegRequired,
	},
	StateEventRegRequired: {
		StateEventMedia,
	},
	StateEventMedia: {
		StateIdle,
	},
	StateRoleUserID: {
		StateIdle,
	},
	StateBroadcastMessage: {
		StateBroadcastConfirm,
	},
	StateBroadcastConfirm: {
		StateIdle,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateError || to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
