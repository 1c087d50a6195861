package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-academy-client/sessions"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// newHTTPRequest builds the outgoing request for one attempt and runs the request interceptor
// on it. It returns the access token that was attached, "" if the request went out
// unauthenticated.
func (c *Client) newHTTPRequest(ctx context.Context, req *Request, at attempt) (*http.Request, string, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), c.resolve(req.Path, req.Query.Encode()), body)
	if err != nil {
		return nil, "", errors.Wrapf(err, "apiclient build %s %s", req.method(), req.Path)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(HeaderRequestID, at.requestID)

	if req.Anonymous {
		return httpReq, "", nil
	}
	return httpReq, c.authorize(ctx, httpReq, at), nil
}

// authorize attaches the bearer token. A replay uses the token handed over by the refresh,
// everything else reads the store. Header.Set keeps it idempotent. With no token the request
// goes out unauthenticated and the server decides.
func (c *Client) authorize(ctx context.Context, r *http.Request, at attempt) string {
	var tok *oauth2.Token
	if at.token != "" {
		tok = &oauth2.Token{AccessToken: at.token, TokenType: "Bearer"}
	} else {
		stored, err := sessions.BearerToken(ctx, c.store)
		if err != nil {
			c.logger.Warn().Err(err).Str("request_id", at.requestID).Msg("Failed to read access token, sending unauthenticated")
			return ""
		}
		tok = stored
	}
	if tok == nil {
		return ""
	}
	tok.SetAuthHeader(r)
	return tok.AccessToken
}

func (c *Client) resolve(path, rawQuery string) string {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	if rawQuery != "" {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + rawQuery
	}
	return u
}
