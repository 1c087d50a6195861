package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/metrics"
	"github.com/jrsteele09/go-academy-client/sessions"
	"github.com/pkg/errors"
)

const refreshKey = "refresh"

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is the body of a successful POST /auth/refresh. RefreshToken is only present
// when the backend rotates it.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// refresh starts a token refresh or joins the one already in flight and returns the new access
// token. Every caller that joins gets the same outcome. The refresh runs detached from the
// cancellation of whichever caller started it, bounded by the transport timeout; a caller whose
// own context ends stops waiting.
func (c *Client) refresh(ctx context.Context) (string, error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return c.performRefresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "apiclient waiting for token refresh")
	case res := <-ch:
		if res.Shared {
			c.metrics.Refresh(metrics.RefreshShared)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// performRefresh is the body of the single-flight call. On failure it tears the session down and
// emits the invalidated signal, so both happen once per failed refresh however many requests
// were waiting on it.
func (c *Client) performRefresh(ctx context.Context) (string, error) {
	started := c.nowFunc()
	tokens, resp, err := c.requestTokens(ctx)
	if err != nil {
		c.metrics.Refresh(metrics.RefreshFailure)
		invalid := &Error{
			Kind:   KindAuthInvalid,
			Method: http.MethodPost,
			Path:   c.refreshPath,
			Err:    err,
		}
		if resp != nil {
			invalid.StatusCode = resp.StatusCode
			invalid.Header = resp.Header
			invalid.Body = resp.Body
		}

		c.logger.Warn().
			Err(err).
			Int("status", invalid.StatusCode).
			Dur("duration", c.nowFunc().Sub(started)).
			Msg("Token refresh failed, clearing session")
		if clearErr := sessions.Destroy(ctx, c.store); clearErr != nil {
			c.logger.Error().Err(clearErr).Msg("Failed to clear session after refresh failure")
		}
		c.invalidated(invalid)
		return "", invalid
	}

	if err := c.store.Set(ctx, sessions.KeyAccessToken, tokens.AccessToken); err != nil {
		c.logger.Error().Err(err).Msg("Failed to store refreshed access token")
	}
	if tokens.RefreshToken != "" {
		if err := c.store.Set(ctx, sessions.KeyRefreshToken, tokens.RefreshToken); err != nil {
			c.logger.Error().Err(err).Msg("Failed to store rotated refresh token")
		}
	}

	c.metrics.Refresh(metrics.RefreshSuccess)
	c.logger.Debug().
		Bool("rotated", tokens.RefreshToken != "").
		Dur("duration", c.nowFunc().Sub(started)).
		Msg("Token refresh succeeded")
	return tokens.AccessToken, nil
}

// requestTokens POSTs the stored refresh token straight to the transport: no bearer token, no
// refresh on 401 and no retry. The response is returned whenever one was received.
func (c *Client) requestTokens(ctx context.Context) (*RefreshResponse, *Response, error) {
	refreshToken, err := c.store.Get(ctx, sessions.KeyRefreshToken)
	if err != nil {
		return nil, nil, errors.Wrap(err, "apiclient read refresh token")
	}
	if refreshToken == "" {
		return nil, nil, apperrors.ErrNoRefreshToken
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, nil, errors.Wrap(err, "apiclient encode refresh request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(c.refreshPath, ""), bytes.NewReader(body))
	if err != nil {
		return nil, nil, errors.Wrap(err, "apiclient build refresh request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, errors.Wrap(err, "apiclient refresh request")
	}
	resp, err := readResponse(httpResp)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, resp, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var tokens RefreshResponse
	if err := json.Unmarshal(resp.Body, &tokens); err != nil {
		return nil, resp, apperrors.Wrapf(apperrors.ErrMalformedTokenResponse, "decode: %v", err)
	}
	if tokens.AccessToken == "" {
		return nil, resp, apperrors.Wrapf(apperrors.ErrMalformedTokenResponse, "missing accessToken")
	}
	return &tokens, resp, nil
}

// refreshIfExpiring refreshes ahead of dispatch when the stored JWT is about to expire. It
// returns "" when no refresh was needed.
func (c *Client) refreshIfExpiring(ctx context.Context) (string, error) {
	access, err := c.store.Get(ctx, sessions.KeyAccessToken)
	if err != nil || access == "" {
		return "", nil
	}
	exp, ok := sessions.AccessTokenExpiry(access)
	if !ok || c.nowFunc().Add(c.proactiveSkew).Before(exp) {
		return "", nil
	}
	c.logger.Debug().Time("expires_at", exp).Msg("Access token close to expiry, refreshing before dispatch")
	return c.refresh(ctx)
}
