package handlers

import (
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/domain"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// userContextKey is where the auth middleware stashes the resolved user.
const userContextKey = "current_user"

// SetCurrentUser stores the resolved user on the update context.
func SetCurrentUser(c telebot.Context, user *domain.User) {
	if c != nil {
		c.Set(userContextKey, user)
	}
}

// CurrentUser returns the user resolved by the auth middleware, or nil.
func CurrentUser(c telebot.Context) *domain.User {
	if c == nil {
		return nil
	}

	user, _ := c.Get(userContextKey).(*domain.User)
	return user
}

// CallbackPayload extracts the payload part of the pressed button's data.
// Malformed data yields an empty payload.
func CallbackPayload(c telebot.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}

	_, data, err := keyboard.DecodeCallback(cb.Data)
	if err != nil {
		return ""
	}
	return data
}

// CallbackEventID parses the payload as an event id.
func CallbackEventID(c telebot.Context) (int64, bool) {
	id, err := strconv.ParseInt(CallbackPayload(c), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ack answers the callback so the client stops showing the spinner.
func ack(c telebot.Context) {
	if c != nil && c.Callback() != nil {
		_ = c.Respond()
	}
}
