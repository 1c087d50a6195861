package sessions

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"golang.org/x/oauth2"
)

// BearerToken returns the stored access token as a bearer oauth2.Token, or nil when no access
// token is stored. Expiry is filled from the JWT exp claim when the token is a JWT.
func BearerToken(ctx context.Context, store Store) (*oauth2.Token, error) {
	access, err := store.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, nil
	}
	tok := &oauth2.Token{
		AccessToken: access,
		TokenType:   "Bearer",
	}
	if exp, ok := AccessTokenExpiry(access); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

// AccessTokenExpiry reads the exp claim without verifying the signature. The client never holds
// the signing key, it only uses the expiry as a hint.
func AccessTokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

type storeTokenSource struct {
	ctx   context.Context
	store Store
}

// TokenSource exposes the stored access token to code built on golang.org/x/oauth2, for example
// oauth2.NewClient. It never refreshes; the API client owns the refresh protocol.
func TokenSource(ctx context.Context, store Store) oauth2.TokenSource {
	return storeTokenSource{ctx: ctx, store: store}
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	tok, err := BearerToken(s.ctx, s.store)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, apperrors.ErrNotLoggedIn
	}
	return tok, nil
}
