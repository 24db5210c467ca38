package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/catalog"
	"github.com/velta-dev/afisha-bot/internal/event"
	"github.com/velta-dev/afisha-bot/internal/role"
)

// NewAdminPanelHandler opens the staff panel. Access is re-checked on every
// entry so a demoted user loses the panel immediately.
func NewAdminPanelHandler(kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		if !role.HasStaffAccess(user) {
			return c.Send("This action is available to staff only.")
		}

		return c.Send("🛠 Admin panel", kb.AdminPanel(user))
	}
}

// NewManageEventsHandler lists the events the caller may manage: admins see
// every event including hidden and past ones, a moderator sees their own.
// The public catalog query is not used here, otherwise a hidden event would
// vanish from the only screen that can un-hide it.
func NewManageEventsHandler(catalogSvc *catalog.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		if !role.HasStaffAccess(user) {
			return c.Send("This action is available to staff only.")
		}

		events := catalogSvc.ListCreatedBy(context.Background(), user)
		if role.HasAdminAccess(user) {
			events = catalogSvc.ListAll(context.Background())
		}
		if len(events) == 0 {
			return c.Send("Nothing to manage yet. Create your first event!")
		}

		return c.EditOrSend("📋 Events you can manage:", kb.ManageList(events))
	}
}

// NewManageEventHandler shows the management screen for one event.
func NewManageEventHandler(catalogSvc *catalog.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		eventID, ok := CallbackEventID(c)
		if !ok {
			return nil
		}

		ev, err := catalogSvc.FindByID(context.Background(), eventID)
		if err != nil {
			return c.Send("This event is no longer available.")
		}

		text := fmt.Sprintf("🎭 %s\n🗓 %s\n🏙 %s\n\nVisible: %s\nRegistration: %s",
			ev.Title,
			ev.DateTime.Format("02.01.2006 15:04"),
			ev.City,
			yesNo(ev.IsVisible),
			openClosed(ev.RegistrationOpen),
		)

		return c.EditOrSend(text, kb.ManageActions(ev))
	}
}

// NewToggleVisibilityHandler flips an event's visibility.
func NewToggleVisibilityHandler(events *event.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		eventID, ok := CallbackEventID(c)
		if !ok {
			return nil
		}

		visible, err := events.ToggleVisibility(context.Background(), user, eventID)
		if err != nil {
			return manageError(c, err)
		}

		if visible {
			return c.Send("The event is visible again. 👁")
		}
		return c.Send("The event is now hidden from the catalog. 🙈")
	}
}

// NewToggleRegistrationHandler flips whether an event accepts registrations.
func NewToggleRegistrationHandler(events *event.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		eventID, ok := CallbackEventID(c)
		if !ok {
			return nil
		}

		open, err := events.ToggleRegistration(context.Background(), user, eventID)
		if err != nil {
			return manageError(c, err)
		}

		if open {
			return c.Send("Registration is open again. 🔓")
		}
		return c.Send("Registration is now closed. 🔒")
	}
}

// NewParticipantsHandler lists who registered for an event.
func NewParticipantsHandler(events *event.Service, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		eventID, ok := CallbackEventID(c)
		if !ok {
			return nil
		}

		participants, err := events.Participants(context.Background(), user, eventID)
		if err != nil {
			return manageError(c, err)
		}
		if len(participants) == 0 {
			return c.Send("Nobody has registered yet.")
		}

		var b strings.Builder
		fmt.Fprintf(&b, "👥 Participants (%d):\n", len(participants))
		for i, p := range participants {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p.DisplayName())
		}
		return c.Send(b.String())
	}
}

// NewDeleteEventHandler asks for confirmation before the destructive delete.
func NewDeleteEventHandler(catalogSvc *catalog.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		eventID, ok := CallbackEventID(c)
		if !ok {
			return nil
		}

		ev, err := catalogSvc.FindByID(context.Background(), eventID)
		if err != nil {
			return c.Send("This event is no longer available.")
		}

		return c.EditOrSend(
			fmt.Sprintf("Delete \"%s\"?\nAll registrations for it will be removed as well.", ev.Title),
			kb.ConfirmDelete(eventID),
		)
	}
}

// NewConfirmDeleteHandler performs the delete after explicit confirmation.
func NewConfirmDeleteHandler(events *event.Service, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		eventID, ok := CallbackEventID(c)
		if !ok {
			return nil
		}

		released, err := events.Delete(context.Background(), user, eventID)
		if err != nil {
			return manageError(c, err)
		}

		return c.Send(fmt.Sprintf("The event was deleted. %d registrations released.", released))
	}
}

func manageError(c telebot.Context, err error) error {
	switch {
	case errors.Is(err, event.ErrNotFound):
		return c.Send("This event is no longer available.")
	case errors.Is(err, event.ErrNotAllowed):
		return c.Send("You cannot manage this event.")
	default:
		return err
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func openClosed(v bool) string {
	if v {
		return "open"
	}
	return "closed"
}
