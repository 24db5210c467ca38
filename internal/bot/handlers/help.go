package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/role"
)

// NewHelpHandler lists the available commands, tailored to the user's role.
func NewHelpHandler() Handler {
	return func(c telebot.Context) error {
		text := "Here is what I can do:\n\n" +
			"/start - main menu\n" +
			"/events - browse upcoming events\n" +
			"/myevents - your registrations\n" +
			"/profile - your profile\n" +
			"/cancel - abandon the current dialog\n" +
			"/help - this message"

		if role.HasStaffAccess(CurrentUser(c)) {
			text += "\n\nStaff:\n/admin - admin panel"
		}

		return c.Send(text)
	}
}
