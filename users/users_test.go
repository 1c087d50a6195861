package users_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Run("known roles in any case", func(t *testing.T) {
		role, err := users.ParseRole(" Coach ")
		require.NoError(t, err)
		require.Equal(t, users.RoleCoach, role)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := users.ParseRole("referee")
		require.ErrorIs(t, err, apperrors.ErrUnknownRole)
		require.Contains(t, err.Error(), "referee")
	})
}

func TestUser_Permissions(t *testing.T) {
	admin := &users.User{ID: "u1", Role: users.RoleAdmin}
	coach := &users.User{ID: "u2", Role: users.RoleCoach}
	parent := &users.User{ID: "u3", Role: users.RoleParent}
	var anonymous *users.User

	require.True(t, admin.CanManageTeams())
	require.True(t, admin.CanTakeAttendance())
	require.False(t, coach.CanManageTeams())
	require.True(t, coach.CanTakeAttendance())
	require.False(t, parent.CanTakeAttendance())
	require.False(t, anonymous.HasRole(users.Roles...))
}

func TestUser_String(t *testing.T) {
	require.Equal(t, "Sam Keeper (coach)", (&users.User{DisplayName: "Sam Keeper", Role: users.RoleCoach}).String())
	require.Equal(t, "p@example.com (parent)", (&users.User{Email: "p@example.com", Role: users.RoleParent}).String())
	require.Equal(t, "<anonymous>", (*users.User)(nil).String())
}
