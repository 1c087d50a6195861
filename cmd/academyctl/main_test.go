package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "coach@academy.test"
	testPassword = "correct horse"
)

// fakeBackend serves the endpoints the commands call
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != testEmail || creds["password"] != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"accessToken":"access-1","refreshToken":"refresh-1","user":{"id":"c1","name":"Sam","role":"coach","email":"coach@academy.test"}}`))
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /api/teams", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"u12","name":"Under 12","ageGroup":"U12","playerIds":["p1","p2"]}]`))
	}))
	mux.HandleFunc("POST /api/teams", authed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"field":"name","message":"name is required"}]}`))
	}))
	mux.HandleFunc("GET /api/players", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"p1","firstName":"Ada","lastName":"Okafor","position":"forward","jerseyNumber":9,"teamId":"u12"},
			{"id":"p2","firstName":"Ben","lastName":"Ito","position":"defender","jerseyNumber":4,"teamId":"u12"},
			{"id":"p3","firstName":"Dan","lastName":"Reyes","position":"forward","jerseyNumber":7,"teamId":"u12"}
		]`))
	}))
	mux.HandleFunc("GET /api/qr/trainings/{id}/qr-code", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"CHECKIN-` + r.PathValue("id") + `"}`))
	}))
	mux.HandleFunc("GET /api/trainings", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"t1","title":"Passing drills","startsAt":"2026-03-10T17:00:00Z"}]`))
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	session := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("ACADEMY_BASE_URL", srv.URL+"/api")
	t.Setenv("ACADEMY_STORE", "file")
	t.Setenv("ACADEMY_SESSION_FILE", session)
	t.Setenv("ACADEMY_RETRY_BACKOFF", "1ms")
	t.Setenv("LOG_LEVEL", "error")
	return session
}

type result struct {
	out, errOut string
	err         error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(append(args, "--no-color"), strings.NewReader(stdin), &out, &errOut)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func TestCLI_SessionLifecycle(t *testing.T) {
	setupEnv(t, fakeBackend(t))

	res := execute(t, testPassword+"\n", "login", "--email", testEmail)
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.errOut, "[OK] Logged in as Sam (coach)")

	res = execute(t, "", "whoami")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Sam (coach)")
	require.Contains(t, res.out, "email: "+testEmail)

	res = execute(t, "", "teams", "list")
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.out, "Under 12")

	res = execute(t, "", "request", "get", "/teams")
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.errOut, "[OK] 200 OK")
	require.Contains(t, res.out, `"name": "Under 12"`)

	res = execute(t, "", "logout")
	require.NoError(t, res.err)
	require.Contains(t, res.errOut, "[OK] Logged out")

	res = execute(t, "", "whoami")
	require.ErrorIs(t, res.err, apperrors.ErrNotLoggedIn)
	require.Contains(t, res.errOut, "academyctl login")
}

func TestCLI_LoginErrors(t *testing.T) {
	setupEnv(t, fakeBackend(t))

	res := execute(t, "", "login", "--email", "not-an-email", "--password", "x")
	require.Error(t, res.err)
	require.Contains(t, res.errOut, "[ERROR] Invalid input")
	require.Contains(t, res.errOut, "email must be a valid email address")

	res = execute(t, "", "login", "--email", testEmail, "--password", "wrong")
	require.Error(t, res.err)
	require.Contains(t, res.errOut, "invalid email or password")
}

func TestCLI_PlayersFilteredAndSorted(t *testing.T) {
	setupEnv(t, fakeBackend(t))
	require.NoError(t, execute(t, "", "login", "--email", testEmail, "--password", testPassword).err)

	res := execute(t, "", "players", "list", "--position", "forward", "--sort", "jersey")
	require.NoError(t, res.err, res.errOut)
	require.NotContains(t, res.out, "Ben Ito")
	require.Less(t, strings.Index(res.out, "Dan Reyes"), strings.Index(res.out, "Ada Okafor"))

	res = execute(t, "", "players", "list", "--sort", "height")
	require.Error(t, res.err)
}

func TestCLI_ServerValidationErrorsAreShown(t *testing.T) {
	setupEnv(t, fakeBackend(t))
	require.NoError(t, execute(t, "", "login", "--email", testEmail, "--password", testPassword).err)

	res := execute(t, "", "request", "POST", "/teams", "--data", `{"ageGroup":"U12"}`)
	require.Error(t, res.err)
	require.Contains(t, res.errOut, "POST /teams failed with 400 Bad Request")
	require.Contains(t, res.errOut, "name: name is required")

	res = execute(t, "", "request", "POST", "/teams", "--data", `{not json`)
	require.Error(t, res.err)
	require.Contains(t, res.errOut, "--data is not valid JSON")
}

func TestCLI_QRAndCalendar(t *testing.T) {
	setupEnv(t, fakeBackend(t))
	require.NoError(t, execute(t, "", "login", "--email", testEmail, "--password", testPassword).err)

	res := execute(t, "", "qr", "t1")
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.out, "CHECKIN-t1")

	res = execute(t, "", "calendar", "--month", "2026-03")
	require.NoError(t, res.err, res.errOut)
	require.Contains(t, res.out, "March 2026")
	require.Contains(t, res.out, "Passing drills")
}

func TestCLI_InvalidatedSessionPrintsLoginHint(t *testing.T) {
	session := setupEnv(t, fakeBackend(t))
	t.Setenv("ACADEMY_LOGIN_ROUTE", "/signin")
	require.NoError(t, execute(t, "", "login", "--email", testEmail, "--password", testPassword).err)

	// the backend no longer accepts the stored token and refuses the refresh
	store := `{"accessToken":"revoked","refreshToken":"refresh-1"}`
	require.NoError(t, writeFile(session, store))

	res := execute(t, "", "teams", "list")
	require.Error(t, res.err)
	require.Contains(t, res.errOut, "Session expired")
	require.Contains(t, res.errOut, "/signin")
	require.Contains(t, res.errOut, "Session ended")

	res = execute(t, "", "whoami")
	require.ErrorIs(t, res.err, apperrors.ErrNotLoggedIn)
}

func TestCLI_RootShowsBanner(t *testing.T) {
	setupEnv(t, fakeBackend(t))
	t.Setenv("ACADEMY_STORE", "memory")

	res := execute(t, "")
	require.NoError(t, res.err)
	require.Contains(t, res.out, "academyctl login --email")
	require.Greater(t, strings.Count(res.out, "\n"), 10)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
