package apiclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := map[int]Kind{
		http.StatusUnauthorized:        KindAuthExpired,
		http.StatusBadRequest:          KindClientError,
		http.StatusForbidden:           KindClientError,
		http.StatusConflict:            KindClientError,
		http.StatusTooManyRequests:     KindClientError,
		http.StatusInternalServerError: KindServerError,
		http.StatusBadGateway:          KindServerError,
		http.StatusNoContent:           KindUnknown,
	}
	for code, want := range tests {
		require.Equal(t, want, classifyStatus(code), "status %d", code)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.Equal(t, 120*time.Second, parseRetryAfter("120", now))
	require.Equal(t, 30*time.Second, parseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	require.Zero(t, parseRetryAfter("", now))
	require.Zero(t, parseRetryAfter("-5", now))
	require.Zero(t, parseRetryAfter("soon", now))
	require.Zero(t, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}

func TestError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := error(&Error{Kind: KindNetworkTransient, Method: http.MethodGet, Path: "/players", Err: cause})

	require.ErrorIs(t, err, ErrNetworkTransient)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrServerError)
	require.Equal(t, "[apiclient] GET /players: network_transient: dial tcp: connection refused", err.Error())

	withStatus := &Error{Kind: KindServerError, Method: http.MethodPost, Path: "/teams", StatusCode: 502}
	require.Equal(t, "[apiclient] POST /teams: server_error (status 502)", withStatus.Error())
	require.Error(t, withStatus.Decode(&struct{}{}))
}

func TestAttempt_NextKeepsRequestID(t *testing.T) {
	first := attempt{requestID: "req-1", sentToken: "old", started: time.Now()}
	replay := first.next("new")

	require.False(t, first.retried())
	require.True(t, replay.retried())
	require.Equal(t, "req-1", replay.requestID)
	require.Equal(t, "new", replay.token)
	require.Empty(t, replay.sentToken)
	require.Equal(t, "old", first.sentToken, "original attempt untouched")
}

func TestResolve(t *testing.T) {
	c := New("https://academy.example.com/api/", nil)

	require.Equal(t, "https://academy.example.com/api/teams", c.resolve("/teams", ""))
	require.Equal(t, "https://academy.example.com/api/teams?x=1", c.resolve("teams", "x=1"))
	require.Equal(t, "https://academy.example.com/api/trainings?from=a&to=b", c.resolve("/trainings?from=a", "to=b"))
	require.Equal(t, "https://cdn.example.com/qr.png", c.resolve("https://cdn.example.com/qr.png", ""))
}
