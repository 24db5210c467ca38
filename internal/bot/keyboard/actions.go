package keyboard

// Callback action identifiers. Buttons carry "action:payload" strings built
// by EncodeCallback; the router matches on the decoded action.
const (
	ActionPickCity   = "pick_city"
	ActionChangeCity = "change_city"
	ActionEventsAll  = "events_all"
	ActionEventsCity = "events_city"
	ActionEventsMy   = "events_my"
	ActionEvent      = "event"
	ActionEventPage  = "event_page"

	ActionRegister   = "register"
	ActionUnregister = "unregister"

	ActionAdminPanel    = "admin_panel"
	ActionCreateEvent   = "create_event"
	ActionManageEvents  = "manage_events"
	ActionManageEvent   = "manage_event"
	ActionToggleVisible = "toggle_visibility"
	ActionToggleRegOpen = "toggle_registration"
	ActionParticipants  = "participants"
	ActionDeleteEvent   = "delete_event"
	ActionConfirmDelete = "confirm_delete_event"

	ActionRoles         = "roles"
	ActionMakeAdmin     = "make_admin"
	ActionMakeModerator = "make_moderator"
	ActionMakeUser      = "make_user"

	ActionBroadcast       = "broadcast"
	ActionBroadcastAll    = "broadcast_all"
	ActionBroadcastCity   = "broadcast_city"
	ActionBroadcastSend   = "broadcast_send"
	ActionBroadcastCancel = "broadcast_cancel"

	ActionQuestions = "questions"
	ActionDonate    = "donate"
)
