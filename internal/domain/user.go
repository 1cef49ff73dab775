package domain

import (
	"strings"
	"time"
)

// Role is the closed set of account kinds.
type Role string

const (
	RoleStudent   Role = "student"
	RoleCaretaker Role = "caretaker"
	RoleWarden    Role = "warden"
)

// ParseRole normalizes a role string, reporting whether it is known.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleCaretaker:
		return RoleCaretaker, true
	case RoleWarden:
		return RoleWarden, true
	}
	return "", false
}

// IsStaff reports whether the role belongs to hostel staff.
func (r Role) IsStaff() bool {
	return r == RoleCaretaker || r == RoleWarden
}

// User is a student or staff account. RoomNumber is set only for students,
// Floor only for caretakers who registered for a floor.
type User struct {
	ID               string
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	RoomNumber       *string
	Floor            *int
	IsVerified       bool
	VerificationCode *string
	CreatedAt        time.Time
}
