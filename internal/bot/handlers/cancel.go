package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/state"
)

// NewCancelHandler abandons any in-flight wizard, clears its scratch, and
// returns the user to the main menu.
func NewCancelHandler(fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		user := CurrentUser(c)
		if user == nil {
			log.Warn("cancel handler invoked without resolved user")
			return nil
		}

		ctx := context.Background()

		if err := fsm.ClearState(ctx, user.TelegramID); err != nil {
			log.Error("failed to clear user state",
				slog.Int64("telegram_id", user.TelegramID), slog.Any("error", err))
			return err
		}

		return c.Send("Cancelled. Back to the main menu.", kb.MainMenu(user))
	}
}
