package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/event"
	"github.com/velta-dev/afisha-bot/internal/state"
	"github.com/velta-dev/afisha-bot/internal/wizard"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wizardContext fakes the few telebot.Context methods the wizard touches.
// Anything else panics, which is what we want in a test.
type wizardContext struct {
	telebot.Context
	store   map[string]interface{}
	text    string
	sent    []string
	markups []*telebot.ReplyMarkup
}

func newWizardContext(user *domain.User, text string) *wizardContext {
	c := &wizardContext{
		store: make(map[string]interface{}),
		text:  text,
	}
	c.store[userContextKey] = user
	return c
}

func (c *wizardContext) Get(key string) interface{}        { return c.store[key] }
func (c *wizardContext) Set(key string, value interface{}) { c.store[key] = value }
func (c *wizardContext) Text() string                      { return c.text }
func (c *wizardContext) Message() *telebot.Message         { return nil }
func (c *wizardContext) Callback() *telebot.Callback       { return nil }

func (c *wizardContext) Send(what interface{}, opts ...interface{}) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	c.recordMarkup(opts)
	return nil
}

func (c *wizardContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return c.Send(what, opts...)
}

func (c *wizardContext) recordMarkup(opts []interface{}) {
	for _, opt := range opts {
		if m, ok := opt.(*telebot.ReplyMarkup); ok {
			c.markups = append(c.markups, m)
		}
	}
}

type fakeFSM struct {
	userState *state.UserState
	cleared   int
}

func (f *fakeFSM) GetState(ctx context.Context, userID int64) (*state.UserState, error) {
	return f.userState, nil
}

func (f *fakeFSM) SetState(ctx context.Context, userID int64, s state.State, contextData map[string]interface{}) error {
	return nil
}

func (f *fakeFSM) Advance(ctx context.Context, userID int64, newState state.State, contextData map[string]interface{}) error {
	return nil
}

func (f *fakeFSM) ClearState(ctx context.Context, userID int64) error {
	f.cleared++
	return nil
}

func (f *fakeFSM) GetAllStates(ctx context.Context) ([]*state.UserState, error) {
	return nil, nil
}

type createRecorder struct {
	created []*domain.Event
	all     []*domain.Event
	mine    []*domain.Event
	// visibleByCity is keyed by the city filter, "" meaning all cities.
	visibleByCity map[string][]*domain.Event
	err           error
}

func (r *createRecorder) Create(ctx context.Context, e *domain.Event) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, e)
	return nil
}

func (r *createRecorder) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	return nil, nil
}

func (r *createRecorder) ListVisibleUpcoming(ctx context.Context, city string, now time.Time) ([]*domain.Event, error) {
	return r.visibleByCity[city], nil
}

func (r *createRecorder) ListAll(ctx context.Context) ([]*domain.Event, error) {
	return r.all, nil
}

func (r *createRecorder) ListCreatedBy(ctx context.Context, creatorID int64) ([]*domain.Event, error) {
	return r.mine, nil
}

func (r *createRecorder) ListRegisteredBy(ctx context.Context, userID int64, now time.Time) ([]*domain.Event, error) {
	return nil, nil
}

func (r *createRecorder) SetVisible(ctx context.Context, id int64, visible bool) error {
	return nil
}

func (r *createRecorder) SetRegistrationOpen(ctx context.Context, id int64, open bool) error {
	return nil
}

func (r *createRecorder) Delete(ctx context.Context, id int64) (int64, error) {
	return 0, nil
}

func (r *createRecorder) PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func completedScratch() map[string]interface{} {
	return map[string]interface{}{
		state.KeyTitle:           "Jazz night",
		state.KeyDescription:     "Live quartet",
		state.KeyLocation:        "Blue Note",
		state.KeyCity:            "Moscow",
		state.KeyDateTime:        time.Now().Add(48 * time.Hour).Format(wizard.DateTimeLayout),
		state.KeyMaxParticipants: "50",
		state.KeyRegRequired:     true,
	}
}

func mediaWizard(fsm *fakeFSM, repo *createRecorder) *CreateEventWizard {
	log := testLogger()
	events := event.NewService(repo, nil, log)
	return NewCreateEventWizard(fsm, events, nil, wizard.Limits{}, log)
}

func TestCreateEventWizard_CommitPersistsOnceAndClearsScratch(t *testing.T) {
	staff := &domain.User{ID: 7, TelegramID: 100, Role: domain.RoleModerator}
	fsm := &fakeFSM{userState: &state.UserState{
		UserID:       staff.TelegramID,
		CurrentState: state.StateEventMedia,
		Context:      completedScratch(),
	}}
	repo := &createRecorder{}
	w := mediaWizard(fsm, repo)

	c := newWizardContext(staff, "-")
	if err := w.handleMedia(c); err != nil {
		t.Fatalf("handleMedia: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one insert, got %d", len(repo.created))
	}
	if got := repo.created[0]; got.Title != "Jazz night" || got.CreatorID != staff.ID {
		t.Fatalf("unexpected event persisted: %+v", got)
	}
	if fsm.cleared != 1 {
		t.Fatalf("expected scratch cleared once, got %d", fsm.cleared)
	}
	if len(c.sent) != 1 {
		t.Fatalf("expected one confirmation message, got %v", c.sent)
	}
}

func TestCreateEventWizard_CommitFailureStillClearsScratch(t *testing.T) {
	staff := &domain.User{ID: 7, TelegramID: 100, Role: domain.RoleModerator}
	fsm := &fakeFSM{userState: &state.UserState{
		UserID:       staff.TelegramID,
		CurrentState: state.StateEventMedia,
		Context:      completedScratch(),
	}}
	repo := &createRecorder{err: errors.New("connection refused")}
	w := mediaWizard(fsm, repo)

	c := newWizardContext(staff, "-")
	if err := w.handleMedia(c); err != nil {
		t.Fatalf("handleMedia: %v", err)
	}

	if len(repo.created) != 0 {
		t.Fatalf("expected no event persisted, got %d", len(repo.created))
	}
	if fsm.cleared != 1 {
		t.Fatalf("expected scratch cleared once even on failure, got %d", fsm.cleared)
	}
}

func TestCreateEventWizard_InvalidMediaRepromptsWithoutCommitting(t *testing.T) {
	staff := &domain.User{ID: 7, TelegramID: 100, Role: domain.RoleModerator}
	fsm := &fakeFSM{userState: &state.UserState{
		UserID:       staff.TelegramID,
		CurrentState: state.StateEventMedia,
		Context:      completedScratch(),
	}}
	repo := &createRecorder{}
	w := mediaWizard(fsm, repo)

	c := newWizardContext(staff, "some random text")
	if err := w.handleMedia(c); err != nil {
		t.Fatalf("handleMedia: %v", err)
	}

	if len(repo.created) != 0 {
		t.Fatalf("invalid input must not create an event, got %d", len(repo.created))
	}
	if fsm.cleared != 0 {
		t.Fatalf("invalid input must keep the wizard state, cleared %d times", fsm.cleared)
	}
	if len(c.sent) != 1 {
		t.Fatalf("expected one re-prompt, got %v", c.sent)
	}
}
