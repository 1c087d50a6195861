package apiclient

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// HeaderRequestID carries the id shared by a request and its replay.
const HeaderRequestID = "X-Request-ID"

// Request describes a call against the REST API. The client never mutates it: every dispatch,
// including a replay, builds a fresh *http.Request from it, so one Request can be shared by
// concurrent calls.
type Request struct {
	Method string
	Path   string // relative to the base URL, e.g. "/teams"
	Query  url.Values
	Header http.Header
	Body   []byte // kept as bytes so the request can be replayed

	// Anonymous requests go out without a bearer token and a 401 is returned as a client error
	// instead of starting a refresh. Login uses this.
	Anonymous bool
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// NewJSONRequest encodes body as JSON. A nil body sends no payload.
func NewJSONRequest(method, path string, body any) (*Request, error) {
	req := &Request{Method: method, Path: path}
	if body == nil {
		return req, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrapf(err, "apiclient encode %s %s", method, path)
	}
	req.Body = b
	req.Header = http.Header{"Content-Type": []string{"application/json"}}
	return req, nil
}

// Response is a successful response, returned to the caller unchanged.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	Duration   time.Duration // elapsed time of the attempt that produced this response
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Wrap(err, "apiclient decode response")
	}
	return nil
}

// attempt is the per-dispatch state passed alongside a Request. It is a value: next returns a
// new attempt, so concurrent calls sharing a Request never see each other's retry state.
type attempt struct {
	number    int       // 0 for the first dispatch, 1 for the single replay
	requestID string    // shared by the dispatch and its replay
	token     string    // access token to use instead of reading the store, set after a refresh
	sentToken string    // access token that was attached, "" if none
	started   time.Time // dispatch timestamp for duration logging
}

func (a attempt) retried() bool {
	return a.number > 0
}

func (a attempt) next(token string) attempt {
	return attempt{
		number:    a.number + 1,
		requestID: a.requestID,
		token:     token,
	}
}
