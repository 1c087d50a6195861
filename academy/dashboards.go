package academy

import (
	"context"
	"encoding/json"

	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/users"
	"github.com/pkg/errors"
)

// Dashboard is the role-specific landing payload. Each role has its own widgets, so they are
// kept raw and decoded by whoever renders them.
type Dashboard struct {
	Role    users.RoleType
	Widgets map[string]json.RawMessage
}

// Widget decodes the named widget into v. It reports false when the dashboard has no such widget.
func (d *Dashboard) Widget(name string, v any) (bool, error) {
	raw, ok := d.Widgets[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, errors.Wrapf(err, "decode widget %s", name)
	}
	return true, nil
}

type DashboardsService struct {
	service
}

// ForRole fetches /dashboard/{role}
func (s *DashboardsService) ForRole(ctx context.Context, role users.RoleType) (*Dashboard, error) {
	if !role.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrUnknownRole, "dashboard for %q", role)
	}
	d := &Dashboard{Role: role}
	if err := s.get(ctx, resourcePath("dashboard", role.String()), nil, &d.Widgets); err != nil {
		return nil, err
	}
	return d, nil
}

// ForUser picks the dashboard of u's role
func (s *DashboardsService) ForUser(ctx context.Context, u *users.User) (*Dashboard, error) {
	if u == nil {
		return nil, apperrors.ErrNotLoggedIn
	}
	return s.ForRole(ctx, u.Role)
}
