package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/velta-dev/afisha-bot/internal/catalog"
	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/role"
)

// NewProfileHandler shows the user's profile and activity stats.
func NewProfileHandler(catalogSvc *catalog.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		user := CurrentUser(c)
		if user == nil {
			log.Warn("profile handler invoked without resolved user")
			return nil
		}

		ctx := context.Background()
		registered := catalogSvc.ListRegisteredBy(ctx, user)

		var b strings.Builder
		fmt.Fprintf(&b, "👤 %s\n", user.DisplayName())
		fmt.Fprintf(&b, "🎖 Role: %s\n", roleLabel(role.Resolve(user)))
		if user.City != "" {
			fmt.Fprintf(&b, "🏙 City: %s\n", user.City)
		} else {
			b.WriteString("🏙 City: not set\n")
		}
		fmt.Fprintf(&b, "🎟 Upcoming registrations: %d", len(registered))

		if role.HasStaffAccess(user) {
			created := catalogSvc.ListCreatedBy(ctx, user)
			fmt.Fprintf(&b, "\n🎭 Events created: %d", len(created))
		}

		return c.Send(b.String())
	}
}

func roleLabel(r domain.Role) string {
	switch r {
	case domain.RoleAdmin:
		return "Admin"
	case domain.RoleModerator:
		return "Moderator"
	default:
		return "Member"
	}
}
