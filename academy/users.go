package academy

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-academy-client/internal/validation"
	"github.com/jrsteele09/go-academy-client/users"
)

type UsersService struct {
	service
}

type userFilter struct {
	Role users.RoleType `json:"role" validate:"role"`
}

// List returns the academy users, filtered by role when one is given
func (s *UsersService) List(ctx context.Context, role users.RoleType) ([]users.User, error) {
	if err := validation.Struct(userFilter{Role: role}); err != nil {
		return nil, err
	}
	var query url.Values
	if role != "" {
		query = url.Values{"role": {role.String()}}
	}
	var list []users.User
	if err := s.get(ctx, "/users", query, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (*users.User, error) {
	var u users.User
	if err := s.get(ctx, resourcePath("users", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
