// Package app wires the client stack from configuration: session store, API gateway client,
// auth flows, resource services, metrics and logging.
package app

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-academy-client/academy"
	"github.com/jrsteele09/go-academy-client/apiclient"
	"github.com/jrsteele09/go-academy-client/auth"
	"github.com/jrsteele09/go-academy-client/internal/config"
	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/metrics"
	"github.com/jrsteele09/go-academy-client/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// App is the assembled client stack
type App struct {
	Config  config.Config
	Logger  zerolog.Logger
	Store   sessions.Store
	API     *apiclient.Client
	Auth    *auth.Service
	Academy *academy.Client
	Metrics *metrics.Recorder

	closers []func() error
}

type options struct {
	logger      *zerolog.Logger
	httpClient  *http.Client
	registerer  prometheus.Registerer
	invalidated func(error)
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithRegisterer enables client metrics on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithSessionInvalidated is called once per failed refresh, after the session was cleared
func WithSessionInvalidated(fn func(error)) Option {
	return func(o *options) {
		o.invalidated = fn
	}
}

func New(ctx context.Context, c config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: c}
	if o.logger != nil {
		a.Logger = *o.logger
	} else {
		a.Logger = NewLogger(c, io.Discard)
	}

	store, closeStore, err := NewStore(ctx, c)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	clientOpts := []apiclient.Option{
		apiclient.WithTimeout(c.GetRequestTimeout()),
		apiclient.WithRetryBackoff(c.GetRetryBackoff()),
		apiclient.WithRefreshPath(c.GetRefreshPath()),
		apiclient.WithLogger(a.Logger),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	if limit := c.GetRateLimit(); limit > 0 {
		clientOpts = append(clientOpts, apiclient.WithRateLimit(rate.Limit(limit), c.GetRateBurst()))
	}
	if skew := c.GetProactiveRefresh(); skew > 0 {
		clientOpts = append(clientOpts, apiclient.WithProactiveRefresh(skew))
	}
	if o.registerer != nil {
		a.Metrics = metrics.New(o.registerer)
		clientOpts = append(clientOpts, apiclient.WithMetrics(a.Metrics))
	}
	if o.invalidated != nil {
		clientOpts = append(clientOpts, apiclient.WithSessionInvalidated(o.invalidated))
	}

	a.API = apiclient.New(c.GetBaseURL(), store, clientOpts...)
	a.Auth = auth.NewService(a.API, auth.WithLogger(a.Logger))
	a.Academy = academy.New(a.API)

	a.Logger.Debug().
		Str("base_url", a.API.BaseURL()).
		Str("store", c.GetStoreKind()).
		Msg("Client initialised")
	return a, nil
}

// Close releases the store connection
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewStore opens the configured session store. The returned close function is never nil.
func NewStore(ctx context.Context, c config.StoreConfig) (sessions.Store, func() error, error) {
	noop := func() error { return nil }

	switch kind := strings.ToLower(c.GetStoreKind()); kind {
	case config.StoreMemory:
		return sessions.NewMemoryStore(), noop, nil

	case config.StoreFile:
		return sessions.NewFileStore(c.GetSessionFile()), noop, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, apperrors.Wrapf(err, "[app NewStore] redis %s", c.GetRedisAddr())
		}
		return sessions.NewRedisStore(rdb, c.GetRedisPrefix()), rdb.Close, nil

	default:
		return nil, nil, apperrors.Wrapf(apperrors.ErrUnknownStore, "[app NewStore] %q", kind)
	}
}

// NewLogger builds a console logger at the configured level. An unknown level falls back to info.
func NewLogger(c config.EnvConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Str("app", c.GetAppName()).
		Logger()
}
