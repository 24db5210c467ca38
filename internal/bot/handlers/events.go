package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/catalog"
	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/registration"
	"github.com/velta-dev/afisha-bot/internal/repository"
)

const eventsPerPage = 5

// The browse scope is part of the page-flip payload ("scope:page").
const (
	eventsScopeAll  = "all"
	eventsScopeCity = "city"
)

// NewEventsListHandler shows the visible upcoming events. With allCities the
// city preference is ignored; otherwise the list narrows to the user's city
// when one is set.
func NewEventsListHandler(catalogSvc *catalog.Service, kb *keyboard.Builder, allCities bool, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)
		return renderEventsPage(c, catalogSvc, kb, 1, allCities)
	}
}

// NewEventsPageHandler flips between pages of the events list, staying in
// the all-cities or own-city view the list was opened with.
func NewEventsPageHandler(catalogSvc *catalog.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		scope, rawPage := keyboard.DecodeCallbackScope(CallbackPayload(c))
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			page = 1
		}
		return renderEventsPage(c, catalogSvc, kb, page, scope == eventsScopeAll)
	}
}

// NewChangeCityHandler re-opens the city picker for a user who moved.
func NewChangeCityHandler(kb *keyboard.Builder, cities []string, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)
		return c.Send("Pick your city:", kb.Cities(cities))
	}
}

func renderEventsPage(c telebot.Context, catalogSvc *catalog.Service, kb *keyboard.Builder, page int, allCities bool) error {
	user := CurrentUser(c)

	city := ""
	scope := eventsScopeAll
	if !allCities && user != nil && user.City != "" {
		city = user.City
		scope = eventsScopeCity
	}

	events := catalogSvc.ListVisibleUpcoming(context.Background(), city)
	if len(events) == 0 {
		return c.Send("No upcoming events right now. Check back soon! 🎭")
	}

	totalPages := (len(events) + eventsPerPage - 1) / eventsPerPage
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * eventsPerPage
	end := start + eventsPerPage
	if end > len(events) {
		end = len(events)
	}

	header := "🎭 Upcoming events"
	if city != "" {
		header += " in " + city
	}

	return c.EditOrSend(header+":", kb.EventsList(events[start:end], scope, page, totalPages))
}

// NewMyEventsHandler lists the upcoming events the user registered for.
func NewMyEventsHandler(catalogSvc *catalog.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		events := catalogSvc.ListRegisteredBy(context.Background(), user)
		if len(events) == 0 {
			return c.Send("You are not registered for any upcoming events yet.")
		}

		return c.EditOrSend("🎟 Your events:", kb.EventsList(events, "", 1, 1))
	}
}

// NewEventDetailsHandler renders one event with its media and actions.
func NewEventDetailsHandler(
	catalogSvc *catalog.Service,
	regs *registration.Manager,
	kb *keyboard.Builder,
	log *slog.Logger,
) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		eventID, ok := CallbackEventID(c)
		if !ok {
			return nil
		}

		ctx := context.Background()
		event, err := catalogSvc.FindByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.Send("This event is no longer available.")
			}
			return err
		}

		user := CurrentUser(c)
		registered := false
		if user != nil && event.RegistrationRequired {
			registered, err = regs.IsRegistered(ctx, user, eventID)
			if err != nil {
				log.Error("failed to check registration",
					slog.Int64("event_id", eventID), slog.Any("error", err))
			}
		}

		text := formatEvent(ctx, event, regs)
		markup := kb.EventActions(event, registered)

		switch event.MediaType {
		case domain.MediaPhoto:
			return c.Send(&telebot.Photo{File: telebot.File{FileID: event.PhotoFileID}, Caption: text}, markup)
		case domain.MediaVideo:
			return c.Send(&telebot.Video{File: telebot.File{FileID: event.VideoFileID}, Caption: text}, markup)
		default:
			return c.Send(text, markup)
		}
	}
}

func formatEvent(ctx context.Context, event *domain.Event, regs *registration.Manager) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎭 %s\n", event.Title)
	if event.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", event.Description)
	}
	fmt.Fprintf(&b, "\n🗓 %s", event.DateTime.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "\n🏙 %s", event.City)
	if event.Location != "" {
		fmt.Fprintf(&b, "\n📍 %s", event.Location)
	}

	if event.RegistrationRequired {
		count, err := regs.Count(ctx, event.ID)
		if err == nil {
			if event.Unlimited() {
				fmt.Fprintf(&b, "\n👥 %d registered", count)
			} else {
				fmt.Fprintf(&b, "\n👥 %d/%d registered", count, event.MaxParticipants)
			}
		}
		if !event.RegistrationOpen {
			b.WriteString("\n🔒 Registration is closed")
		}
	}

	return b.String()
}

// NewRegisterHandler signs the user up and reports the outcome.
func NewRegisterHandler(regs *registration.Manager, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		eventID, ok := CallbackEventID(c)
		if user == nil || !ok {
			return nil
		}

		err := regs.Register(context.Background(), user, eventID)
		switch {
		case err == nil:
			return c.Send("You're in! 🎉 See you at the event.")
		case errors.Is(err, registration.ErrEventNotFound):
			return c.Send("This event is no longer available.")
		case errors.Is(err, registration.ErrRegistrationClosed):
			return c.Send("Registration for this event is closed.")
		case errors.Is(err, registration.ErrEventPassed):
			return c.Send("This event has already started.")
		case errors.Is(err, registration.ErrAlreadyRegistered):
			return c.Send("You are already registered for this event.")
		case errors.Is(err, registration.ErrEventFull):
			return c.Send("Sorry, this event is full. 😔")
		default:
			return err
		}
	}
}

// NewUnregisterHandler removes the user's registration.
func NewUnregisterHandler(regs *registration.Manager, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		eventID, ok := CallbackEventID(c)
		if user == nil || !ok {
			return nil
		}

		err := regs.Unregister(context.Background(), user, eventID)
		switch {
		case err == nil:
			return c.Send("Your registration has been cancelled.")
		case errors.Is(err, registration.ErrNotRegistered):
			return c.Send("You were not registered for this event.")
		default:
			return err
		}
	}
}
