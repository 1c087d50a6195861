package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/go-academy-client/apiclient"
	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/internal/validation"
	"github.com/jrsteele09/go-academy-client/sessions"
	"github.com/jrsteele09/go-academy-client/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	loginPath  = "/auth/login"
	logoutPath = "/auth/logout"
	mePath     = "/auth/me"

	logoutTimeout = 5 * time.Second
)

// Credentials are the email/password pair posted to the login endpoint
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank"`
}

// LoginResponse is the body of a successful POST /auth/login
type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *users.User `json:"user"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Service runs the login, logout and current-user flows. It is the only place besides the
// refresh coordinator that writes the session.
type Service struct {
	client *apiclient.Client
	store  sessions.Store
	logger zerolog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService uses the client's store for the session
func NewService(client *apiclient.Client, options ...ServiceOption) *Service {
	s := &Service{
		client: client,
		store:  client.Store(),
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Login exchanges credentials for a session and stores it. Any previous session is replaced.
func (s *Service) Login(ctx context.Context, creds Credentials) (*users.User, error) {
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	req, err := apiclient.NewJSONRequest(http.MethodPost, loginPath, creds)
	if err != nil {
		return nil, err
	}
	req.Anonymous = true

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "[auth Login]")
	}

	var body LoginResponse
	if err := resp.Decode(&body); err != nil {
		return nil, apperrors.Wrapf(ErrMalformedLogin, "[auth Login] %v", err)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		return nil, apperrors.Wrapf(ErrMalformedLogin, "[auth Login] missing tokens")
	}

	if err := sessions.Save(ctx, s.store, &sessions.Session{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		User:         body.User,
	}); err != nil {
		return nil, errors.Wrap(err, "[auth Login] save session")
	}

	s.logger.Info().Str("user", body.User.String()).Msg("Logged in")
	return body.User, nil
}

// Logout tells the backend to revoke the refresh token and clears the local session. The backend
// call is best effort: the local session is cleared whatever it returns.
func (s *Service) Logout(ctx context.Context) error {
	refresh, err := s.store.Get(ctx, sessions.KeyRefreshToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read refresh token for logout")
	}

	if refresh != "" {
		s.revoke(ctx, refresh)
	}

	if err := sessions.Destroy(ctx, s.store); err != nil {
		return errors.Wrap(err, "[auth Logout] clear session")
	}
	s.logger.Info().Msg("Logged out")
	return nil
}

func (s *Service) revoke(ctx context.Context, refresh string) {
	ctx, cancel := context.WithTimeout(ctx, logoutTimeout)
	defer cancel()

	req, err := apiclient.NewJSONRequest(http.MethodPost, logoutPath, logoutRequest{RefreshToken: refresh})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to build logout request")
		return
	}
	req.Anonymous = true
	if _, err := s.client.Do(ctx, req); err != nil {
		s.logger.Warn().Err(err).Msg("Backend logout failed, clearing local session anyway")
	}
}

// CurrentUser returns the user stored at login without calling the backend
func (s *Service) CurrentUser(ctx context.Context) (*users.User, error) {
	session, err := sessions.Load(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if session.User == nil {
		return nil, apperrors.Wrapf(apperrors.ErrNotLoggedIn, "[auth CurrentUser] no user stored")
	}
	return session.User, nil
}

// Me fetches the authenticated user from the backend and updates the stored copy
func (s *Service) Me(ctx context.Context) (*users.User, error) {
	var u users.User
	if err := s.client.JSON(ctx, http.MethodGet, mePath, nil, &u); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(&u)
	if err != nil {
		return nil, errors.Wrap(err, "[auth Me] encode user")
	}
	if err := s.store.Set(ctx, sessions.KeyUser, string(raw)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to update stored user")
	}
	return &u, nil
}
