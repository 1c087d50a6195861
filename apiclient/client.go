package apiclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/metrics"
	"github.com/jrsteele09/go-academy-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultRetryBackoff = 500 * time.Millisecond
	DefaultRefreshPath  = "/auth/refresh"

	maxBodyBytes = 10 << 20
)

// Client is the API gateway for the academy backend. It attaches the session's bearer token to
// every request, refreshes the session once (single-flight) when the backend answers 401 and
// replays the request, and retries a request once after a fixed backoff when no response was
// received. Everything else is classified and returned to the caller as *Error.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	store         sessions.Store
	refreshPath   string
	backoff       time.Duration
	proactiveSkew time.Duration
	limiter       *rate.Limiter
	invalidated   func(error)
	metrics       *metrics.Recorder
	logger        zerolog.Logger
	nowFunc       func() time.Time

	// refreshGroup is the in-progress refresh marker. singleflight removes the key on every
	// exit path, including a panic in the refresh call.
	refreshGroup singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the transport. WithTimeout still applies to a copy of it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request, including the refresh call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithRetryBackoff sets the fixed wait before the single replay of a request that got no response.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithProactiveRefresh refreshes before dispatch when the access token's exp claim falls within
// skew. Opaque tokens are never refreshed proactively.
func WithProactiveRefresh(skew time.Duration) Option {
	return func(c *Client) {
		c.proactiveSkew = skew
	}
}

// WithRateLimit throttles outbound dispatches, replays included. A burst below 1 is raised to 1.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.limiter = rate.NewLimiter(limit, max(burst, 1))
		}
	}
}

// WithSessionInvalidated registers the signal emitted once per failed refresh, after the session
// has been cleared. The host application decides how to get the user back to login.
func WithSessionInvalidated(fn func(error)) Option {
	return func(c *Client) {
		c.invalidated = fn
	}
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = rec
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// New creates a client for baseURL, e.g. "https://academy.example.com/api". The store is the
// only place the client reads and writes session tokens.
func New(baseURL string, store sessions.Store, options ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		store:       store,
		refreshPath: DefaultRefreshPath,
		backoff:     DefaultRetryBackoff,
		logger:      log.Logger,
	}

	for _, opt := range options {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := c.timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	if c.invalidated == nil {
		c.invalidated = func(error) {}
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Store() sessions.Store {
	return c.store
}

// Do dispatches req and returns the final response. Errors are *Error unless the request could
// not be built or the context ended while waiting on the rate limiter.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, apperrors.ErrNilRequest
	}
	at := attempt{requestID: uuid.NewString()}

	if !req.Anonymous && c.proactiveSkew > 0 {
		token, err := c.refreshIfExpiring(ctx)
		if err != nil {
			return nil, err
		}
		at.token = token
	}
	return c.dispatch(ctx, req, at)
}

// JSON sends in as the JSON body (nil for none) and decodes a successful response into out
// (nil to discard it).
func (c *Client) JSON(ctx context.Context, method, path string, in, out any) error {
	req, err := NewJSONRequest(method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (c *Client) dispatch(ctx context.Context, req *Request, at attempt) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "apiclient rate limit")
		}
	}

	httpReq, sent, err := c.newHTTPRequest(ctx, req, at)
	if err != nil {
		return nil, err
	}
	at.sentToken = sent
	at.started = c.nowFunc()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.onNetworkError(ctx, req, at, err)
	}
	resp, err := readResponse(httpResp)
	if err != nil {
		return c.onNetworkError(ctx, req, at, err)
	}
	resp.RequestID = at.requestID
	resp.Duration = c.nowFunc().Sub(at.started)

	switch {
	case resp.StatusCode < http.StatusBadRequest:
		c.observe(req, resp.Duration, "success")
		c.logger.Debug().
			Str("method", req.method()).
			Str("path", req.Path).
			Int("status", resp.StatusCode).
			Str("request_id", at.requestID).
			Int("attempt", at.number).
			Dur("duration", resp.Duration).
			Msg("Request succeeded")
		return resp, nil

	case resp.StatusCode == http.StatusUnauthorized && !req.Anonymous:
		return c.onUnauthorized(ctx, req, at, resp)

	default:
		kind := classifyStatus(resp.StatusCode)
		if kind == KindAuthExpired {
			// anonymous request, nothing to refresh
			kind = KindClientError
		}
		apiErr := newStatusError(kind, req, at, resp, c.nowFunc())
		c.observe(req, resp.Duration, kind.String())
		c.logFailure(apiErr, resp.Duration)
		return nil, apiErr
	}
}

// onUnauthorized runs the refresh-and-replay cycle at most once per request.
func (c *Client) onUnauthorized(ctx context.Context, req *Request, at attempt, resp *Response) (*Response, error) {
	if at.retried() {
		apiErr := newStatusError(KindAuthExpired, req, at, resp, c.nowFunc())
		c.observe(req, resp.Duration, KindAuthExpired.String())
		c.logFailure(apiErr, resp.Duration)
		return nil, apiErr
	}
	c.observe(req, resp.Duration, KindAuthExpired.String())

	// The session may already have moved on while this request was in flight. Another caller
	// either refreshed and stored a new token, which is replayed with, or failed to refresh and
	// cleared the session, which was already signalled.
	token, tornDown := c.sessionMovedOn(ctx, at.sentToken)
	if tornDown {
		apiErr := newStatusError(KindAuthInvalid, req, at, resp, c.nowFunc())
		apiErr.Err = apperrors.ErrNotLoggedIn
		c.logFailure(apiErr, resp.Duration)
		return nil, apiErr
	}
	if token == "" {
		var err error
		token, err = c.refresh(ctx)
		if err != nil {
			return nil, err
		}
	}

	c.metrics.Replay(metrics.ReplayAuth)
	c.logger.Debug().
		Str("method", req.method()).
		Str("path", req.Path).
		Str("request_id", at.requestID).
		Msg("Replaying request with refreshed token")
	return c.dispatch(ctx, req, at.next(token))
}

// sessionMovedOn compares the store with the token a request was sent with. It returns the
// stored access token when it was rotated since, and tornDown when both tokens are gone.
func (c *Client) sessionMovedOn(ctx context.Context, sent string) (rotated string, tornDown bool) {
	if sent == "" {
		return "", false
	}
	current, err := c.store.Get(ctx, sessions.KeyAccessToken)
	if err != nil {
		return "", false
	}
	if current != "" {
		if current == sent {
			return "", false
		}
		return current, false
	}
	refresh, err := c.store.Get(ctx, sessions.KeyRefreshToken)
	if err != nil {
		return "", false
	}
	return "", refresh == ""
}

// onNetworkError replays once after the fixed backoff. Cancellation by the caller is never retried.
func (c *Client) onNetworkError(ctx context.Context, req *Request, at attempt, cause error) (*Response, error) {
	elapsed := c.nowFunc().Sub(at.started)
	apiErr := newNetworkError(req, at, cause)
	c.observe(req, elapsed, KindNetworkTransient.String())

	if at.retried() || ctx.Err() != nil {
		c.logFailure(apiErr, elapsed)
		return nil, apiErr
	}

	c.logger.Warn().
		Err(cause).
		Str("method", req.method()).
		Str("path", req.Path).
		Str("request_id", at.requestID).
		Bool("timeout", apiErr.Timeout()).
		Dur("backoff", c.backoff).
		Msg("No response received, retrying once")

	if err := sleepContext(ctx, c.backoff); err != nil {
		apiErr.Err = err
		return nil, apiErr
	}
	c.metrics.Replay(metrics.ReplayNetwork)
	return c.dispatch(ctx, req, at.next(""))
}

func (c *Client) observe(req *Request, d time.Duration, class string) {
	c.metrics.ObserveRequest(req.method(), class, d)
}

func (c *Client) logFailure(e *Error, d time.Duration) {
	event := c.logger.Warn()
	if e.Kind == KindServerError {
		event = c.logger.Error()
	}
	event.
		Err(e.Err).
		Str("method", e.Method).
		Str("path", e.Path).
		Str("class", e.Kind.String()).
		Int("status", e.StatusCode).
		Str("request_id", e.RequestID).
		Dur("duration", d).
		Msg("Request failed")
}

func readResponse(r *http.Response) (*Response, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "apiclient read response body")
	}
	return &Response{
		StatusCode: r.StatusCode,
		Header:     r.Header,
		Body:       body,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
