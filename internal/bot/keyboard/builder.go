package keyboard

import (
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/role"
)

// Builder creates inline keyboards for every screen of the bot.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// encode renders callback data, logging and degrading to the bare action
// when the payload would blow the Telegram size limit.
func (b *Builder) encode(action, payload string) string {
	data, err := EncodeCallback(action, payload)
	if err != nil {
		b.log.Error("callback payload too long", slog.String("action", action), slog.Any("error", err))
		return action
	}
	return data
}

// MainMenu builds the idle screen. Staff get an extra admin row.
func (b *Builder) MainMenu(user *domain.User) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard().
		AddRow(InlineButton{Text: "🎭 Events in my city", Unique: ActionEventsCity}).
		AddRow(InlineButton{Text: "🌍 All events", Unique: ActionEventsAll}).
		AddRow(InlineButton{Text: "🎟 My events", Unique: ActionEventsMy}).
		AddRow(InlineButton{Text: "🏙 Change city", Unique: ActionChangeCity}).
		AddRow(
			InlineButton{Text: "❓ Questions", Unique: ActionQuestions},
			InlineButton{Text: "💝 Support us", Unique: ActionDonate},
		)

	if role.HasStaffAccess(user) {
		kb.AddRow(InlineButton{Text: "🛠 Admin panel", Unique: ActionAdminPanel})
	}

	return kb.Build(b.encode)
}

// Cities builds the city selection screen.
func (b *Builder) Cities(cities []string) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, city := range cities {
		kb.AddRow(InlineButton{Text: city, Unique: ActionPickCity, Data: city})
	}
	return kb.Build(b.encode)
}

// EventsList renders one button per event plus pagination when needed.
// The scope rides along in the page payload so the flip keeps the view.
func (b *Builder) EventsList(events []*domain.Event, scope string, page, totalPages int) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, event := range events {
		label := fmt.Sprintf("%s — %s", event.DateTime.Format("02.01 15:04"), event.Title)
		kb.AddRow(InlineButton{Text: label, Unique: ActionEvent, Data: strconv.FormatInt(event.ID, 10)})
	}
	if nav := PaginationButtons(ActionEventPage, scope, page, totalPages); len(nav) > 1 {
		kb.AddRow(nav...)
	}
	return kb.Build(b.encode)
}

// EventActions builds the detail screen buttons for a regular user.
func (b *Builder) EventActions(event *domain.Event, registered bool) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	id := strconv.FormatInt(event.ID, 10)

	if event.RegistrationRequired {
		if registered {
			kb.AddRow(InlineButton{Text: "❌ Unregister", Unique: ActionUnregister, Data: id})
		} else if event.RegistrationOpen {
			kb.AddRow(InlineButton{Text: "✅ Register", Unique: ActionRegister, Data: id})
		}
	}
	kb.AddRow(InlineButton{Text: "⬅️ Back to events", Unique: ActionEventsCity})

	return kb.Build(b.encode)
}

// AdminPanel builds the staff entry screen.
func (b *Builder) AdminPanel(user *domain.User) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard().
		AddRow(InlineButton{Text: "➕ Create event", Unique: ActionCreateEvent}).
		AddRow(InlineButton{Text: "📋 Manage events", Unique: ActionManageEvents})

	if role.HasAdminAccess(user) {
		kb.AddRow(InlineButton{Text: "👥 Roles", Unique: ActionRoles})
		kb.AddRow(InlineButton{Text: "📣 Broadcast", Unique: ActionBroadcast})
	}

	return kb.Build(b.encode)
}

// ManageList renders managed events, one button per event.
func (b *Builder) ManageList(events []*domain.Event) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, event := range events {
		marker := "👁"
		if !event.IsVisible {
			marker = "🚫"
		}
		label := fmt.Sprintf("%s %s — %s", marker, event.DateTime.Format("02.01"), event.Title)
		kb.AddRow(InlineButton{Text: label, Unique: ActionManageEvent, Data: strconv.FormatInt(event.ID, 10)})
	}
	return kb.Build(b.encode)
}

// ManageActions builds the per-event management screen.
func (b *Builder) ManageActions(event *domain.Event) *telebot.ReplyMarkup {
	id := strconv.FormatInt(event.ID, 10)

	visibility := "🙈 Hide"
	if !event.IsVisible {
		visibility = "👁 Show"
	}
	regToggle := "🔒 Close registration"
	if !event.RegistrationOpen {
		regToggle = "🔓 Open registration"
	}

	return NewInlineKeyboard().
		AddRow(InlineButton{Text: visibility, Unique: ActionToggleVisible, Data: id}).
		AddRow(InlineButton{Text: regToggle, Unique: ActionToggleRegOpen, Data: id}).
		AddRow(InlineButton{Text: "👥 Participants", Unique: ActionParticipants, Data: id}).
		AddRow(InlineButton{Text: "🗑 Delete", Unique: ActionDeleteEvent, Data: id}).
		AddRow(InlineButton{Text: "⬅️ Back", Unique: ActionManageEvents}).
		Build(b.encode)
}

// ConfirmDelete asks for explicit confirmation before the cascade delete.
func (b *Builder) ConfirmDelete(eventID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(eventID, 10)
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "🗑 Yes, delete", Unique: ActionConfirmDelete, Data: id},
			InlineButton{Text: "⬅️ Keep it", Unique: ActionManageEvent, Data: id},
		).
		Build(b.encode)
}

// RoleActions builds the role management entry screen.
func (b *Builder) RoleActions() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: "👑 Make admin", Unique: ActionMakeAdmin}).
		AddRow(InlineButton{Text: "⭐️ Make moderator", Unique: ActionMakeModerator}).
		AddRow(InlineButton{Text: "👤 Make regular user", Unique: ActionMakeUser}).
		Build(b.encode)
}

// BroadcastAudiences offers the audience filters for a broadcast.
func (b *Builder) BroadcastAudiences(cities []string) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard().
		AddRow(InlineButton{Text: "🌍 Everyone", Unique: ActionBroadcastAll})
	for _, city := range cities {
		kb.AddRow(InlineButton{Text: "🏙 " + city, Unique: ActionBroadcastCity, Data: city})
	}
	return kb.Build(b.encode)
}

// BroadcastConfirm builds the final send/cancel choice.
func (b *Builder) BroadcastConfirm() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "📣 Send", Unique: ActionBroadcastSend},
			InlineButton{Text: "❌ Cancel", Unique: ActionBroadcastCancel},
		).
		Build(b.encode)
}
