package sessions

import (
	"context"
	"encoding/json"

	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/users"
)

// Session is the authenticated state of the client. It is created on login, its tokens are
// overwritten on refresh and all three keys are cleared on logout or when a refresh fails.
type Session struct {
	AccessToken  string      // Opaque bearer credential sent with every request
	RefreshToken string      // Opaque credential exchanged at the refresh endpoint
	User         *users.User // Authenticated principal, nil if the backend did not return one
}

// Load reads the session from the store. It returns ErrNotLoggedIn when neither token is stored.
func Load(ctx context.Context, store Store) (*Session, error) {
	access, err := store.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions Load] access token")
	}
	refresh, err := store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions Load] refresh token")
	}
	if access == "" && refresh == "" {
		return nil, apperrors.ErrNotLoggedIn
	}

	s := &Session{AccessToken: access, RefreshToken: refresh}
	rawUser, err := store.Get(ctx, KeyUser)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions Load] user")
	}
	if rawUser != "" {
		var u users.User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrSessionCorrupt, "[sessions Load] user: %v", err)
		}
		s.User = &u
	}
	return s, nil
}

// Save overwrites all three keys. An empty field removes its key.
func Save(ctx context.Context, store Store, s *Session) error {
	if s == nil {
		return Destroy(ctx, store)
	}
	if err := store.Set(ctx, KeyAccessToken, s.AccessToken); err != nil {
		return apperrors.Wrapf(err, "[sessions Save] access token")
	}
	if err := store.Set(ctx, KeyRefreshToken, s.RefreshToken); err != nil {
		return apperrors.Wrapf(err, "[sessions Save] refresh token")
	}

	var rawUser string
	if s.User != nil {
		b, err := json.Marshal(s.User)
		if err != nil {
			return apperrors.Wrapf(err, "[sessions Save] encode user")
		}
		rawUser = string(b)
	}
	if err := store.Set(ctx, KeyUser, rawUser); err != nil {
		return apperrors.Wrapf(err, "[sessions Save] user")
	}
	return nil
}

// Destroy clears every session key
func Destroy(ctx context.Context, store Store) error {
	return store.Clear(ctx, Keys...)
}
