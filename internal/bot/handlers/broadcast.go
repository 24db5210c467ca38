package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/broadcast"
	"github.com/velta-dev/afisha-bot/internal/role"
	"github.com/velta-dev/afisha-bot/internal/state"
)

// Broadcast wizard: pick an audience, compose the message, confirm, send.

// NewBroadcastMenuHandler opens the audience selection. Admin only.
func NewBroadcastMenuHandler(kb *keyboard.Builder, cities []string, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		if !role.HasAdminAccess(CurrentUser(c)) {
			return c.Send("This action is available to admins only.")
		}

		return c.Send("📣 Who should receive the broadcast?", kb.BroadcastAudiences(cities))
	}
}

// NewBroadcastAudienceHandler stores the chosen audience and asks for the text.
// An empty city in the payload means everyone.
func NewBroadcastAudienceHandler(fsm state.StateMachine, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		if !role.HasAdminAccess(user) {
			return c.Send("This action is available to admins only.")
		}

		city := CallbackPayload(c)
		scratch := map[string]interface{}{state.KeyBroadcastTarget: city}
		if err := fsm.Advance(context.Background(), user.TelegramID, state.StateBroadcastMessage, scratch); err != nil {
			if errors.Is(err, state.ErrInvalidTransition) {
				return c.Send("Finish or /cancel the current dialog first.")
			}
			return err
		}

		audience := "everyone"
		if city != "" {
			audience = city
		}
		return c.Send(fmt.Sprintf("Sending to %s. Now write the message:", audience))
	}
}

// NewBroadcastMessageHandler is the state handler that captures the text and
// asks for confirmation.
func NewBroadcastMessageHandler(fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return nil
		}

		text := c.Text()
		if text == "" {
			return c.Send("The broadcast message cannot be empty. Write the message, or /cancel:")
		}

		ctx := context.Background()
		userState, err := fsm.GetState(ctx, user.TelegramID)
		if err != nil {
			return err
		}

		scratch := map[string]interface{}{
			state.KeyBroadcastTarget: userState.StringValue(state.KeyBroadcastTarget),
			state.KeyBroadcastText:   text,
		}
		if err := fsm.Advance(ctx, user.TelegramID, state.StateBroadcastConfirm, scratch); err != nil {
			return err
		}

		return c.Send(
			fmt.Sprintf("Here is what will be sent:\n\n%s\n\nSend it?", text),
			kb.BroadcastConfirm(),
		)
	}
}

// NewBroadcastSendHandler runs the fan-out and reports delivery counts.
func NewBroadcastSendHandler(fsm state.StateMachine, dispatcher *broadcast.Dispatcher, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		if !role.HasAdminAccess(user) {
			return c.Send("This action is available to admins only.")
		}

		ctx := context.Background()

		userState, err := fsm.GetState(ctx, user.TelegramID)
		if err != nil {
			if errors.Is(err, state.ErrStateNotFound) {
				return c.Send("This broadcast has expired. Start over from the admin panel.")
			}
			return err
		}
		if userState.CurrentState != state.StateBroadcastConfirm {
			return c.Send("This broadcast has expired. Start over from the admin panel.")
		}

		city := userState.StringValue(state.KeyBroadcastTarget)
		text := userState.StringValue(state.KeyBroadcastText)

		if clearErr := fsm.ClearState(ctx, user.TelegramID); clearErr != nil {
			log.Error("failed to clear broadcast state", slog.Any("error", clearErr))
		}

		if text == "" {
			return c.Send("This broadcast has expired. Start over from the admin panel.")
		}

		if err := c.Send("Sending... 📣"); err != nil {
			return err
		}

		report, err := dispatcher.Broadcast(ctx, city, text)
		if err != nil {
			log.Error("broadcast failed", slog.Any("error", err))
			return c.Send("The broadcast could not be completed.")
		}

		return c.Send(report.Describe())
	}
}

// NewBroadcastCancelHandler abandons the pending broadcast.
func NewBroadcastCancelHandler(fsm state.StateMachine, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		if user == nil {
			return nil
		}

		if err := fsm.ClearState(context.Background(), user.TelegramID); err != nil {
			log.Error("failed to clear broadcast state", slog.Any("error", err))
		}

		return c.Send("Broadcast cancelled. Nothing was sent.")
	}
}
