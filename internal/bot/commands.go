package bot

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandEvents   = "/events"
	CommandMyEvents = "/myevents"
	CommandProfile  = "/profile"
	CommandAdmin    = "/admin"
	CommandCancel   = "/cancel"
	CommandHelp     = "/help"
)
