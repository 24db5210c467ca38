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
	apperrors "github.com/velta-dev/afisha-bot/internal/errors"
	"github.com/velta-dev/afisha-bot/internal/event"
	"github.com/velta-dev/afisha-bot/internal/role"
	"github.com/velta-dev/afisha-bot/internal/state"
	"github.com/velta-dev/afisha-bot/internal/wizard"
)

// CreateEventWizard bundles the dependencies of the multi-step event form.
type CreateEventWizard struct {
	fsm    state.StateMachine
	events *event.Service
	kb     *keyboard.Builder
	limits wizard.Limits
	log    *slog.Logger
}

// NewCreateEventWizard constructs the wizard handler set.
func NewCreateEventWizard(
	fsm state.StateMachine,
	events *event.Service,
	kb *keyboard.Builder,
	limits wizard.Limits,
	log *slog.Logger,
) *CreateEventWizard {
	if log == nil {
		log = slog.Default()
	}

	return &CreateEventWizard{
		fsm:    fsm,
		events: events,
		kb:     kb,
		limits: limits,
		log:    log,
	}
}

// Register wires the wizard's state handlers into the dispatcher.
func (w *CreateEventWizard) Register(register func(state.State, Handler)) {
	register(state.StateEventTitle, w.handleTitle)
	register(state.StateEventDescription, w.handleDescription)
	register(state.StateEventLocation, w.handleLocation)
	register(state.StateEventCity, w.handleCity)
	register(state.StateEventDateTime, w.handleDateTime)
	register(state.StateEventParticipants, w.handleParticipants)
	register(state.StateEventRegRequired, w.handleRegRequired)
	register(state.StateEventMedia, w.handleMedia)
}

// Start is the callback handler that opens the wizard.
func (w *CreateEventWizard) Start(c telebot.Context) error {
	defer ack(c)

	user := CurrentUser(c)
	if !role.HasStaffAccess(user) {
		return c.Send("This action is available to staff only.")
	}

	if err := w.fsm.Advance(context.Background(), user.TelegramID, state.StateEventTitle, nil); err != nil {
		if errors.Is(err, state.ErrInvalidTransition) {
			return c.Send("Finish or /cancel the current dialog first.")
		}
		return err
	}

	return c.Send("Let's create an event! 🎭\n\nStep 1/8. Enter the event title:")
}

func (w *CreateEventWizard) handleTitle(c telebot.Context) error {
	title, err := wizard.Title(c.Text(), w.limits)
	if err != nil {
		return w.reprompt(c, err)
	}

	scratch := w.scratch(c)
	scratch[state.KeyTitle] = title
	if err := w.advance(c, state.StateEventDescription, scratch); err != nil {
		return err
	}

	return c.Send("Step 2/8. Enter a description, or '-' to skip:")
}

func (w *CreateEventWizard) handleDescription(c telebot.Context) error {
	scratch := w.scratch(c)
	scratch[state.KeyDescription] = wizard.OptionalText(c.Text())
	if err := w.advance(c, state.StateEventLocation, scratch); err != nil {
		return err
	}

	return c.Send("Step 3/8. Enter the venue address, or '-' to skip:")
}

func (w *CreateEventWizard) handleLocation(c telebot.Context) error {
	scratch := w.scratch(c)
	scratch[state.KeyLocation] = wizard.OptionalText(c.Text())
	if err := w.advance(c, state.StateEventCity, scratch); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Step 4/8. Pick the city:")
	for i, city := range w.limits.Cities {
		fmt.Fprintf(&b, "\n%d - %s", i+1, city)
	}
	return c.Send(b.String())
}

func (w *CreateEventWizard) handleCity(c telebot.Context) error {
	city, err := wizard.City(c.Text(), w.limits)
	if err != nil {
		return w.reprompt(c, err)
	}

	scratch := w.scratch(c)
	scratch[state.KeyCity] = city
	if err := w.advance(c, state.StateEventDateTime, scratch); err != nil {
		return err
	}

	return c.Send("Step 5/8. Enter the date and time as DD.MM.YYYY HH:MM, for example: 25.12.2024 18:30")
}

func (w *CreateEventWizard) handleDateTime(c telebot.Context) error {
	parsed, err := wizard.DateTime(c.Text(), timeNow())
	if err != nil {
		return w.reprompt(c, err)
	}

	scratch := w.scratch(c)
	scratch[state.KeyDateTime] = parsed.Format(wizard.DateTimeLayout)
	if err := w.advance(c, state.StateEventParticipants, scratch); err != nil {
		return err
	}

	return c.Send("Step 6/8. Enter the participant limit, or '-' for unlimited:")
}

func (w *CreateEventWizard) handleParticipants(c telebot.Context) error {
	n, err := wizard.MaxParticipants(c.Text(), w.limits)
	if err != nil {
		return w.reprompt(c, err)
	}

	scratch := w.scratch(c)
	scratch[state.KeyMaxParticipants] = strconv.Itoa(n)
	if err := w.advance(c, state.StateEventRegRequired, scratch); err != nil {
		return err
	}

	return c.Send("Step 7/8. Is registration required?\n1 - Yes, participants must register\n2 - No, open attendance")
}

func (w *CreateEventWizard) handleRegRequired(c telebot.Context) error {
	required, err := wizard.RegistrationRequired(c.Text())
	if err != nil {
		return w.reprompt(c, err)
	}

	scratch := w.scratch(c)
	scratch[state.KeyRegRequired] = required
	if err := w.advance(c, state.StateEventMedia, scratch); err != nil {
		return err
	}

	return c.Send("Step 8/8. Send a photo or video for the event, or '-' to skip:")
}

// handleMedia is the terminal step: it validates the attachment, commits the
// event, and clears the wizard scratch whether or not the insert succeeded.
func (w *CreateEventWizard) handleMedia(c telebot.Context) error {
	media, err := wizard.ValidateMedia(mediaInput(c), w.limits)
	if err != nil {
		return w.reprompt(c, err)
	}

	user := CurrentUser(c)
	if user == nil {
		return nil
	}

	ctx := context.Background()

	userState, err := w.fsm.GetState(ctx, user.TelegramID)
	if err != nil {
		return err
	}

	defer func() {
		if clearErr := w.fsm.ClearState(ctx, user.TelegramID); clearErr != nil {
			w.log.Error("failed to clear wizard state",
				slog.Int64("telegram_id", user.TelegramID), slog.Any("error", clearErr))
		}
	}()

	draft, err := wizard.BuildEventDraft(userState, media)
	if err != nil {
		w.log.Error("wizard scratch corrupted",
			slog.Int64("telegram_id", user.TelegramID), slog.Any("error", err))
		return c.Send("Something went wrong with the form. Please start over with the admin panel.")
	}

	newEvent := draft.ToEvent(user.ID)
	if err := w.events.Create(ctx, newEvent); err != nil {
		w.log.Error("failed to persist event", slog.Any("error", err))
		return c.Send("Could not save the event. Please try again later.")
	}

	return c.Send(fmt.Sprintf("Event created! 🎉\n\n🎭 %s\n🗓 %s\n🏙 %s",
		newEvent.Title, newEvent.DateTime.Format("02.01.2006 15:04"), newEvent.City))
}

func (w *CreateEventWizard) scratch(c telebot.Context) map[string]interface{} {
	scratch := make(map[string]interface{})

	user := CurrentUser(c)
	if user == nil {
		return scratch
	}

	userState, err := w.fsm.GetState(context.Background(), user.TelegramID)
	if err != nil || userState == nil {
		return scratch
	}

	for k, v := range userState.Context {
		scratch[k] = v
	}
	return scratch
}

func (w *CreateEventWizard) advance(c telebot.Context, next state.State, scratch map[string]interface{}) error {
	user := CurrentUser(c)
	if user == nil {
		return nil
	}

	return w.fsm.Advance(context.Background(), user.TelegramID, next, scratch)
}

// reprompt sends the validation message and keeps the wizard on the same step.
func (w *CreateEventWizard) reprompt(c telebot.Context, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.Send(appErr.UserMessage)
	}
	return err
}

func mediaInput(c telebot.Context) wizard.MediaInput {
	in := wizard.MediaInput{Text: c.Text()}

	msg := c.Message()
	if msg == nil {
		return in
	}

	if msg.Photo != nil {
		in.PhotoFileID = msg.Photo.FileID
	}
	if msg.Video != nil {
		in.VideoFileID = msg.Video.FileID
		in.VideoBytes = msg.Video.FileSize
	}
	return in
}
