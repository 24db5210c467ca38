package handlers

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/bot/keyboard"
	"github.com/velta-dev/afisha-bot/internal/catalog"
	"github.com/velta-dev/afisha-bot/internal/domain"
)

// NewStartHandler greets the user, prompts for a city on first contact, and
// leads with the next upcoming event when one exists.
func NewStartHandler(catalogSvc *catalog.Service, kb *keyboard.Builder, cities []string, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		user := CurrentUser(c)
		if user == nil {
			log.Warn("start handler invoked without resolved user")
			return nil
		}

		if user.City == "" {
			return c.Send(
				fmt.Sprintf("Hi, %s! 👋\nPick your city so we can show events near you:", user.FirstName),
				kb.Cities(cities),
			)
		}

		return sendGreeting(c, user, catalogSvc, kb)
	}
}

func sendGreeting(c telebot.Context, user *domain.User, catalogSvc *catalog.Service, kb *keyboard.Builder) error {
	greeting := fmt.Sprintf("Hi, %s! 👋", user.FirstName)

	if next := catalogSvc.NextUpcomingForUser(context.Background(), user); next != nil {
		greeting += fmt.Sprintf("\n\nNext up in %s:\n🎭 %s\n🗓 %s",
			next.City, next.Title, next.DateTime.Format("02.01.2006 15:04"))
	} else {
		greeting += "\n\nNo upcoming events yet. Check back soon!"
	}

	return c.Send(greeting, kb.MainMenu(user))
}

// NewPickCityHandler stores the chosen city and shows the main menu.
func NewPickCityHandler(users UserWriter, catalogSvc *catalog.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		city := CallbackPayload(c)
		if user == nil || city == "" {
			return nil
		}

		if err := users.SetCity(context.Background(), user.TelegramID, city); err != nil {
			log.Error("failed to store city",
				slog.Int64("telegram_id", user.TelegramID),
				slog.Any("error", err))
			return err
		}
		user.City = city

		if err := c.Send(fmt.Sprintf("Got it, %s it is! 🏙", city)); err != nil {
			return err
		}
		return sendGreeting(c, user, catalogSvc, kb)
	}
}

// UserWriter is the slice of the user service the city handler needs.
type UserWriter interface {
	SetCity(ctx context.Context, telegramID int64, city string) error
	SetRole(ctx context.Context, telegramID int64, role domain.Role) error
}
