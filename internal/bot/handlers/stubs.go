package handlers

import (
	telebot "gopkg.in/telebot.v3"
)

// Placeholder screens for flows that are not live yet. The tables behind
// them already exist in the schema.

// NewQuestionsHandler answers the questions button.
func NewQuestionsHandler() CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)
		return c.Send("❓ Q&A is coming soon. For now, reach out to the event organizers directly.")
	}
}

// NewDonateHandler answers the donation button.
func NewDonateHandler() CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)
		return c.Send("💝 Donations are coming soon. Thank you for wanting to support us!")
	}
}
