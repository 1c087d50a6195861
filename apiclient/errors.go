package apiclient

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Kind classifies a failed request
type Kind int

const (
	KindUnknown          Kind = iota
	KindAuthExpired           // 401 that was not (or could no longer be) recovered by a refresh
	KindAuthInvalid           // the refresh itself failed; the session has been torn down
	KindNetworkTransient      // no response was received
	KindClientError           // any other 4xx, including 403 and 429
	KindServerError           // 5xx
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindAuthInvalid:
		return "auth_invalid"
	case KindNetworkTransient:
		return "network_transient"
	case KindClientError:
		return "client_error"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrAuthExpired      = errors.New("authentication expired")
	ErrAuthInvalid      = errors.New("authentication invalid")
	ErrNetworkTransient = errors.New("network failure")
	ErrClientError      = errors.New("client error")
	ErrServerError      = errors.New("server error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindAuthExpired:
		return ErrAuthExpired
	case KindAuthInvalid:
		return ErrAuthInvalid
	case KindNetworkTransient:
		return ErrNetworkTransient
	case KindClientError:
		return ErrClientError
	case KindServerError:
		return ErrServerError
	default:
		return nil
	}
}

// Error is returned for every request that did not succeed. Status, headers and body of the
// final response are preserved untouched so callers can render their own messages.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	RequestID  string
	StatusCode int           // 0 when no response was received
	Header     http.Header   // nil when no response was received
	Body       []byte        // raw response body
	RetryAfter time.Duration // parsed Retry-After, set for 429 and 503 responses that carry it
	Err        error         // underlying cause, e.g. the transport error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[apiclient] %s %s: %s", e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Timeout reports whether the transport gave up waiting for a response.
func (e *Error) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Decode unmarshals the preserved response body, e.g. a 400 validation payload.
func (e *Error) Decode(v any) error {
	if len(e.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(e.Body, v)
}

// ValidationErrors is the body the backend sends with 400 responses.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func classifyStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized:
		return KindAuthExpired
	case code >= 500:
		return KindServerError
	case code >= 400:
		return KindClientError
	default:
		return KindUnknown
	}
}

func newStatusError(kind Kind, req *Request, at attempt, resp *Response, now time.Time) *Error {
	e := &Error{
		Kind:       kind,
		Method:     req.method(),
		Path:       req.Path,
		RequestID:  at.requestID,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), now)
	}
	return e
}

func newNetworkError(req *Request, at attempt, err error) *Error {
	return &Error{
		Kind:      KindNetworkTransient,
		Method:    req.method(),
		Path:      req.Path,
		RequestID: at.requestID,
		Err:       err,
	}
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
