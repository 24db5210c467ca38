// Package bot wires the Telegram transport: telebot setup, routing,
// middleware chain, and handler registration.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/bot/handlers"
	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/broadcast"
	"github.com/velta-dev/afisha-bot/internal/catalog"
	"github.com/velta-dev/afisha-bot/internal/domain"
	apperrors "github.com/velta-dev/afisha-bot/internal/errors"
	"github.com/velta-dev/afisha-bot/internal/event"
	"github.com/velta-dev/afisha-bot/internal/idempotency"
	"github.com/velta-dev/afisha-bot/internal/middleware"
	"github.com/velta-dev/afisha-bot/internal/registration"
	"github.com/velta-dev/afisha-bot/internal/repository"
	"github.com/velta-dev/afisha-bot/internal/state"
	"github.com/velta-dev/afisha-bot/internal/user"
	"github.com/velta-dev/afisha-bot/internal/wizard"
	"github.com/velta-dev/afisha-bot/pkg/config"
)

const defaultPollTimeout = 10 * time.Second

// Dependencies carries the services the bot layer routes updates into.
// RateLimiter and Idempotency are optional.
type Dependencies struct {
	Log           *slog.Logger
	Users         *user.Service
	UserRepo      repository.UserRepository
	Catalog       *catalog.Service
	Events        *event.Service
	Registrations *registration.Manager
	FSM           state.StateMachine
	ErrHandler    *apperrors.Handler
	RateLimiter   *middleware.RateLimitMiddleware
	Idempotency   idempotency.Manager
}

// Bot owns the telebot instance and its routing tables.
type Bot struct {
	tb         *telebot.Bot
	router     *Router
	dispatcher *Dispatcher
	log        *slog.Logger
}

// New connects to Telegram and registers every command, callback, and
// wizard state handler.
func New(cfg config.Config, deps Dependencies) (*Bot, error) {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	timeout := cfg.Bot.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}

	if cfg.Bot.Mode == "webhook" {
		log.Warn("webhook mode is configured but not wired, falling back to long polling")
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Bot.Token,
		Poller: &telebot.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	b := &Bot{
		tb:  tb,
		log: log,
	}

	b.wire(cfg, deps)

	if deps.RateLimiter != nil {
		tb.Use(deps.RateLimiter.Handle)
	}

	tb.Handle(telebot.OnText, b.router.Route)
	tb.Handle(telebot.OnCallback, b.router.Route)
	tb.Handle(telebot.OnPhoto, b.router.Route)
	tb.Handle(telebot.OnVideo, b.router.Route)

	if err := tb.SetCommands(menuCommands()); err != nil {
		log.Warn("failed to publish command menu", slog.Any("error", err))
	}

	return b, nil
}

func (b *Bot) wire(cfg config.Config, deps Dependencies) {
	log := b.log
	kb := keyboard.NewBuilder(log)

	b.dispatcher = NewDispatcher(deps.FSM, log)
	b.router = NewRouter(b.dispatcher, log)

	b.router.Use(RecoveryMiddleware(log, deps.ErrHandler))
	b.router.Use(middleware.Idempotency(deps.Idempotency, log))
	b.router.Use(ErrorHandlingMiddleware(deps.ErrHandler))
	b.router.Use(LoggingMiddleware(log))
	b.router.Use(AuthMiddleware(deps.Users, log))
	b.router.Use(middleware.Metrics)

	cities := cfg.Events.Cities
	limits := wizardLimits(cfg)

	sender := broadcast.SenderFunc(func(ctx context.Context, telegramID int64, message string) error {
		_, err := b.tb.Send(&telebot.User{ID: telegramID}, message)
		return err
	})
	broadcaster := broadcast.NewDispatcher(deps.UserRepo, sender, cfg.Broadcast.BatchSize, cfg.Broadcast.Pause, log)

	// Commands.
	startHandler := handlers.NewStartHandler(deps.Catalog, kb, cities, log)
	cityEvents := handlers.NewEventsListHandler(deps.Catalog, kb, false, log)
	allEvents := handlers.NewEventsListHandler(deps.Catalog, kb, true, log)
	myEvents := handlers.NewMyEventsHandler(deps.Catalog, kb, log)
	adminPanel := handlers.NewAdminPanelHandler(kb, log)

	b.router.RegisterCommand(CommandStart, startHandler)
	b.router.RegisterCommand(CommandEvents, handlers.Handler(cityEvents))
	b.router.RegisterCommand(CommandMyEvents, handlers.Handler(myEvents))
	b.router.RegisterCommand(CommandProfile, handlers.NewProfileHandler(deps.Catalog, log))
	b.router.RegisterCommand(CommandAdmin, handlers.Handler(adminPanel))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(deps.FSM, kb, log))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler())

	// Browsing and registration callbacks.
	b.router.RegisterCallback(keyboard.ActionPickCity, handlers.NewPickCityHandler(deps.Users, deps.Catalog, kb, log))
	b.router.RegisterCallback(keyboard.ActionChangeCity, handlers.NewChangeCityHandler(kb, cities, log))
	b.router.RegisterCallback(keyboard.ActionEventsAll, allEvents)
	b.router.RegisterCallback(keyboard.ActionEventsCity, cityEvents)
	b.router.RegisterCallback(keyboard.ActionEventsMy, myEvents)
	b.router.RegisterCallback(keyboard.ActionEvent, handlers.NewEventDetailsHandler(deps.Catalog, deps.Registrations, kb, log))
	b.router.RegisterCallback(keyboard.ActionEventPage, handlers.NewEventsPageHandler(deps.Catalog, kb, log))
	b.router.RegisterCallback(keyboard.ActionRegister, handlers.NewRegisterHandler(deps.Registrations, log))
	b.router.RegisterCallback(keyboard.ActionUnregister, handlers.NewUnregisterHandler(deps.Registrations, log))
	b.router.RegisterCallback(keyboard.ActionQuestions, handlers.NewQuestionsHandler())
	b.router.RegisterCallback(keyboard.ActionDonate, handlers.NewDonateHandler())

	// Staff callbacks.
	createWizard := handlers.NewCreateEventWizard(deps.FSM, deps.Events, kb, limits, log)
	createWizard.Register(b.dispatcher.RegisterStateHandler)

	b.router.RegisterCallback(keyboard.ActionAdminPanel, adminPanel)
	b.router.RegisterCallback(keyboard.ActionCreateEvent, handlers.CallbackHandler(createWizard.Start))
	b.router.RegisterCallback(keyboard.ActionManageEvents, handlers.NewManageEventsHandler(deps.Catalog, kb, log))
	b.router.RegisterCallback(keyboard.ActionManageEvent, handlers.NewManageEventHandler(deps.Catalog, kb, log))
	b.router.RegisterCallback(keyboard.ActionToggleVisible, handlers.NewToggleVisibilityHandler(deps.Events, kb, log))
	b.router.RegisterCallback(keyboard.ActionToggleRegOpen, handlers.NewToggleRegistrationHandler(deps.Events, kb, log))
	b.router.RegisterCallback(keyboard.ActionParticipants, handlers.NewParticipantsHandler(deps.Events, log))
	b.router.RegisterCallback(keyboard.ActionDeleteEvent, handlers.NewDeleteEventHandler(deps.Catalog, kb, log))
	b.router.RegisterCallback(keyboard.ActionConfirmDelete, handlers.NewConfirmDeleteHandler(deps.Events, log))

	// Role management.
	b.router.RegisterCallback(keyboard.ActionRoles, handlers.NewRolesMenuHandler(kb, deps.Users, log))
	b.router.RegisterCallback(keyboard.ActionMakeAdmin, handlers.NewRoleActionHandler(deps.FSM, domain.RoleAdmin, log))
	b.router.RegisterCallback(keyboard.ActionMakeModerator, handlers.NewRoleActionHandler(deps.FSM, domain.RoleModerator, log))
	b.router.RegisterCallback(keyboard.ActionMakeUser, handlers.NewRoleActionHandler(deps.FSM, domain.RoleUser, log))
	b.dispatcher.RegisterStateHandler(state.StateRoleUserID, handlers.NewRoleTargetHandler(deps.FSM, deps.Users, deps.Users, log))

	// Broadcast wizard.
	b.router.RegisterCallback(keyboard.ActionBroadcast, handlers.NewBroadcastMenuHandler(kb, cities, log))
	b.router.RegisterCallback(keyboard.ActionBroadcastAll, handlers.NewBroadcastAudienceHandler(deps.FSM, log))
	b.router.RegisterCallback(keyboard.ActionBroadcastCity, handlers.NewBroadcastAudienceHandler(deps.FSM, log))
	b.router.RegisterCallback(keyboard.ActionBroadcastSend, handlers.NewBroadcastSendHandler(deps.FSM, broadcaster, log))
	b.router.RegisterCallback(keyboard.ActionBroadcastCancel, handlers.NewBroadcastCancelHandler(deps.FSM, log))
	b.dispatcher.RegisterStateHandler(state.StateBroadcastMessage, handlers.NewBroadcastMessageHandler(deps.FSM, kb, log))

	b.router.SetDefault(func(c telebot.Context) error {
		return c.Send("Use the menu below 👇", kb.MainMenu(handlers.CurrentUser(c)))
	})
}

func wizardLimits(cfg config.Config) wizard.Limits {
	return wizard.Limits{
		MaxTitleLen:     cfg.Events.MaxTitleLen,
		MaxParticipants: cfg.Events.MaxParticipants,
		MaxVideoBytes:   cfg.Events.MaxVideoBytes,
		Cities:          cfg.Events.Cities,
	}
}

func menuCommands() []telebot.Command {
	return []telebot.Command{
		{Text: "start", Description: "Main menu"},
		{Text: "events", Description: "Upcoming events"},
		{Text: "myevents", Description: "Events you registered for"},
		{Text: "profile", Description: "Your profile"},
		{Text: "cancel", Description: "Cancel the current dialog"},
		{Text: "help", Description: "How the bot works"},
	}
}

// Start begins long polling. It blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("bot started", slog.String("username", b.tb.Me.Username))
	b.tb.Start()
}

// Stop terminates long polling.
func (b *Bot) Stop() {
	b.tb.Stop()
	b.log.Info("bot stopped")
}

// Telebot exposes the underlying client for health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.tb
}
