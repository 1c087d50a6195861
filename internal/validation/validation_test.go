package validation_test

import (
	"testing"

	"github.com/jrsteele09/go-academy-client/internal/validation"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Role  string `json:"role" validate:"role"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, validation.Struct(payload{Name: "Sam", Role: "coach"}))
	require.NoError(t, validation.Struct(payload{Name: "Sam"}))

	err := validation.Struct(payload{Name: "  ", Email: "nope", Role: "owner"})
	var fields validation.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "name must not be blank", fields["name"])
	require.Equal(t, "email must be a valid email address", fields["email"])
	require.Equal(t, "role must be one of admin, coach, parent, player", fields["role"])
	require.Equal(t,
		"validation failed: email must be a valid email address; name must not be blank; role must be one of admin, coach, parent, player",
		err.Error())
}

func TestStruct_Required(t *testing.T) {
	err := validation.Struct(payload{})
	var fields validation.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "name is a required field", fields["name"])
	require.Len(t, fields, 1)
}
