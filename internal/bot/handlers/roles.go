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
	"github.com/velta-dev/afisha-bot/internal/domain"
	"github.com/velta-dev/afisha-bot/internal/repository"
	"github.com/velta-dev/afisha-bot/internal/role"
	"github.com/velta-dev/afisha-bot/internal/state"
)

// Role wizard: the admin picks an action, then sends the target Telegram ID.

// NewRolesMenuHandler opens the role management screen with the current
// staff roster. Admin only.
func NewRolesMenuHandler(kb *keyboard.Builder, staff StaffLister, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		if !role.HasAdminAccess(CurrentUser(c)) {
			return c.Send("This action is available to admins only.")
		}

		var b strings.Builder
		b.WriteString("👥 Role management")

		members, err := staff.ListStaff(context.Background())
		if err != nil {
			log.Error("failed to list staff", slog.Any("error", err))
		}
		if len(members) > 0 {
			b.WriteString("\n\nCurrent staff:")
			for _, m := range members {
				fmt.Fprintf(&b, "\n%s — %s (ID %d)", roleLabel(role.Resolve(m)), m.DisplayName(), m.TelegramID)
			}
		}

		return c.Send(b.String(), kb.RoleActions())
	}
}

// StaffLister is the read slice of the user service the roles screen needs.
type StaffLister interface {
	ListStaff(ctx context.Context) ([]*domain.User, error)
}

// NewRoleActionHandler records the chosen action and waits for a user ID.
func NewRoleActionHandler(fsm state.StateMachine, targetRole domain.Role, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer ack(c)

		user := CurrentUser(c)
		if !role.HasAdminAccess(user) {
			return c.Send("This action is available to admins only.")
		}

		scratch := map[string]interface{}{state.KeyRoleAction: string(targetRole)}
		if err := fsm.Advance(context.Background(), user.TelegramID, state.StateRoleUserID, scratch); err != nil {
			if errors.Is(err, state.ErrInvalidTransition) {
				return c.Send("Finish or /cancel the current dialog first.")
			}
			return err
		}

		return c.Send(fmt.Sprintf("Send the Telegram ID of the user to make %s:", roleLabel(targetRole)))
	}
}

// NewRoleTargetHandler is the state handler that applies the role change.
func NewRoleTargetHandler(fsm state.StateMachine, users UserWriter, finder UserFinder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		admin := CurrentUser(c)
		if admin == nil {
			return nil
		}

		// The policy is re-checked at action time, not trusted from the
		// moment the wizard was opened.
		if !role.HasAdminAccess(admin) {
			_ = fsm.ClearState(context.Background(), admin.TelegramID)
			return c.Send("This action is available to admins only.")
		}

		targetID, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
		if err != nil || targetID <= 0 {
			return c.Send("That does not look like a Telegram ID. Send a number, or /cancel:")
		}

		ctx := context.Background()

		userState, err := fsm.GetState(ctx, admin.TelegramID)
		if err != nil {
			return err
		}
		targetRole := domain.Role(userState.StringValue(state.KeyRoleAction))

		defer func() {
			if clearErr := fsm.ClearState(ctx, admin.TelegramID); clearErr != nil {
				log.Error("failed to clear role wizard state", slog.Any("error", clearErr))
			}
		}()

		target, err := finder.Find(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.Send("No user with that ID has talked to the bot yet.")
			}
			return err
		}

		switch err := role.CheckRoleChange(target, targetRole); {
		case errors.Is(err, role.ErrRoleUnchanged):
			return c.Send(fmt.Sprintf("%s already is %s.", target.DisplayName(), roleLabel(targetRole)))
		case errors.Is(err, role.ErrAdminImmune):
			return c.Send(fmt.Sprintf("%s is an admin. Admins cannot be demoted through the bot.", target.DisplayName()))
		case err != nil:
			return err
		}

		if err := users.SetRole(ctx, targetID, targetRole); err != nil {
			return err
		}

		log.Info("role changed",
			slog.Int64("admin_id", admin.TelegramID),
			slog.Int64("target_id", targetID),
			slog.String("role", string(targetRole)),
		)

		return c.Send(fmt.Sprintf("Done! %s is now %s.", target.DisplayName(), roleLabel(targetRole)))
	}
}

// UserFinder is the read slice of the user service the role wizard needs.
type UserFinder interface {
	Find(ctx context.Context, telegramID int64) (*domain.User, error)
}
