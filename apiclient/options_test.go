package apiclient_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-academy-client/apiclient"
	"github.com/jrsteele09/go-academy-client/metrics"
	"github.com/jrsteele09/go-academy-client/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func jwtExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "coach-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestClient_ProactiveRefreshBeforeDispatch(t *testing.T) {
	f := setupTestFixture(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	f.login(t, jwtExpiringAt(t, now.Add(20*time.Second)), testRefresh)
	f.handleRefresh(http.StatusOK, apiclient.RefreshResponse{AccessToken: freshAccess}, 0)

	var seen []string
	f.mux.HandleFunc("GET /api/dashboard/coach", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{}`)
	})

	c := f.client(
		apiclient.WithProactiveRefresh(time.Minute),
		apiclient.WithNowFunc(func() time.Time { return now }),
	)
	_, err := c.Do(context.Background(), &apiclient.Request{Path: "/dashboard/coach"})
	require.NoError(t, err)
	require.Equal(t, []string{"Bearer " + freshAccess}, seen)
	require.Equal(t, int32(1), f.refreshCalls.Load())
}

func TestClient_ProactiveRefreshSkipsValidToken(t *testing.T) {
	f := setupTestFixture(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	access := jwtExpiringAt(t, now.Add(time.Hour))
	f.login(t, access, testRefresh)
	f.handleRefresh(http.StatusOK, apiclient.RefreshResponse{AccessToken: freshAccess}, 0)
	f.mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})

	c := f.client(
		apiclient.WithProactiveRefresh(time.Minute),
		apiclient.WithNowFunc(func() time.Time { return now }),
	)
	_, err := c.Do(context.Background(), &apiclient.Request{Path: "/teams"})
	require.NoError(t, err)
	require.Zero(t, f.refreshCalls.Load())
	require.Equal(t, access, f.storedValue(t, sessions.KeyAccessToken))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	f := setupTestFixture(t)
	var calls atomic.Int32
	f.mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `[]`)
	})

	c := f.client(apiclient.WithRateLimit(rate.Every(time.Hour), 1))
	_, err := c.Do(context.Background(), &apiclient.Request{Path: "/teams"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Do(ctx, &apiclient.Request{Path: "/teams"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit")
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimitZeroBurstStillDispatches(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})

	c := f.client(apiclient.WithRateLimit(rate.Limit(100), 0))
	_, err := c.Do(context.Background(), &apiclient.Request{Path: "/teams"})
	require.NoError(t, err)
}

func TestClient_RecordsMetrics(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, expiredAccess, testRefresh)
	f.handleRefresh(http.StatusOK, apiclient.RefreshResponse{AccessToken: freshAccess}, 0)
	f.mux.HandleFunc("GET /api/teams", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+freshAccess {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, `[]`)
	})

	rec := metrics.New(prometheus.NewRegistry())
	_, err := f.client(apiclient.WithMetrics(rec)).Do(context.Background(), &apiclient.Request{Path: "/teams"})
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(rec.RefreshesTotal.WithLabelValues(metrics.RefreshSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.ReplaysTotal.WithLabelValues(metrics.ReplayAuth)))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.RequestsTotal.WithLabelValues(http.MethodGet, "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(rec.RequestsTotal.WithLabelValues(http.MethodGet, apiclient.KindAuthExpired.String())))
}

func TestClient_AbsolutePathAndQuery(t *testing.T) {
	f := setupTestFixture(t)
	var query string
	f.mux.HandleFunc("GET /elsewhere/trainings", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, `[]`)
	})

	_, err := f.client().Do(context.Background(), &apiclient.Request{
		Path:  f.srv.URL + "/elsewhere/trainings",
		Query: map[string][]string{"from": {"2026-03-01"}},
	})
	require.NoError(t, err)
	require.Equal(t, "from=2026-03-01", query)
}
