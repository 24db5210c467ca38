// Package role centralizes permission checks. Every privileged code path
// resolves the role through this package at action time; handlers never
// re-implement the membership test inline.
package role

import (
	"errors"

	"github.com/velta-dev/afisha-bot/internal/domain"
)

var (
	// ErrRoleUnchanged means the target already holds the requested role.
	ErrRoleUnchanged = errors.New("user already holds that role")
	// ErrAdminImmune means the role wizard refused to strip admin rights.
	// Admins cannot be demoted through the bot, only promoted to.
	ErrAdminImmune = errors.New("admins cannot be demoted")
)

// Resolve maps a user record to its permission level. Unknown or empty role
// strings degrade to the regular user level.
func Resolve(user *domain.User) domain.Role {
	if user == nil {
		return domain.RoleUser
	}

	switch user.Role {
	case domain.RoleAdmin, domain.RoleModerator:
		return user.Role
	default:
		return domain.RoleUser
	}
}

// HasAdminAccess reports whether the user may manage roles.
func HasAdminAccess(user *domain.User) bool {
	return Resolve(user) == domain.RoleAdmin
}

// HasStaffAccess reports whether the user may create and manage events and
// run broadcasts.
func HasStaffAccess(user *domain.User) bool {
	r := Resolve(user)
	return r == domain.RoleAdmin || r == domain.RoleModerator
}

// CheckRoleChange validates a role assignment against the target's current
// role: no-op assignments are refused, and an admin keeps their rights until
// someone with database access intervenes.
func CheckRoleChange(target *domain.User, newRole domain.Role) error {
	current := Resolve(target)

	if current == newRole {
		return ErrRoleUnchanged
	}
	if current == domain.RoleAdmin {
		return ErrAdminImmune
	}

	return nil
}

// CanManageEvent reports whether the user may edit, toggle, or delete the
// event: staff always can, otherwise only the creator.
func CanManageEvent(user *domain.User, event *domain.Event) bool {
	if user == nil || event == nil {
		return false
	}

	if HasStaffAccess(user) {
		return true
	}

	return user.ID == event.CreatorID
}
