package users

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
)

// RoleType is the role a user holds within the academy. Each role gets its own dashboard.
type RoleType string

const (
	RoleAdmin  RoleType = "admin"  // Manages teams, players, users and academy settings
	RoleCoach  RoleType = "coach"  // Runs trainings and takes attendance for assigned teams
	RoleParent RoleType = "parent" // Follows their children's teams and attendance
	RolePlayer RoleType = "player" // Checks in to trainings and sees their own progress
)

// Roles lists every known role in dashboard order
var Roles = []RoleType{RoleAdmin, RoleCoach, RoleParent, RolePlayer}

// ParseRole accepts a role name in any case
func ParseRole(s string) (RoleType, error) {
	role := RoleType(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", apperrors.Wrapf(apperrors.ErrUnknownRole, "%q", s)
	}
	return role, nil
}

func (r RoleType) Valid() bool {
	return slices.Contains(Roles, r)
}

func (r RoleType) String() string {
	return string(r)
}

// User is the authenticated principal as returned by the backend at login.
type User struct {
	ID          string   `json:"id"`                 // Unique identifier for the user
	Email       string   `json:"email,omitempty"`    // User's email address
	DisplayName string   `json:"name,omitempty"`     // Name shown in the dashboards
	Role        RoleType `json:"role"`               // Academy role
	TeamIDs     []string `json:"teamIds,omitempty"`  // Teams a coach or player belongs to
	ChildIDs    []string `json:"childIds,omitempty"` // Player IDs a parent follows
}

// HasRole reports whether the user holds any of the given roles
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	return slices.Contains(roles, u.Role)
}

// CanManageTeams is true for roles allowed to create or edit teams and players.
func (u *User) CanManageTeams() bool {
	return u.HasRole(RoleAdmin)
}

// CanTakeAttendance is true for roles allowed to generate training QR codes.
func (u *User) CanTakeAttendance() bool {
	return u.HasRole(RoleAdmin, RoleCoach)
}

func (u *User) String() string {
	if u == nil {
		return "<anonymous>"
	}
	name := u.DisplayName
	if name == "" {
		name = u.Email
	}
	return fmt.Sprintf("%s (%s)", name, u.Role)
}
