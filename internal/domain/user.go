package domain

import "time"

// Role is the permission level assigned to a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// User represents an application user stored in the database.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	Role       Role
	City       string // empty when the user has not picked a city
	IsActive   bool
	CreatedAt  time.Time
}

// DisplayName returns the best available human-readable name for the user.
func (u *User) DisplayName() string {
	name := u.FirstName
	if name == "" {
		name = "Unknown"
	}
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		name += " (@" + u.Username + ")"
	}
	return name
}
