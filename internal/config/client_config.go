package config

import "time"

type ClientConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
	GetRetryBackoff() time.Duration
	GetRefreshPath() string
	GetLoginRoute() string
	GetRateLimit() float64
	GetRateBurst() int
	GetProactiveRefresh() time.Duration
}

type Client struct{}

var _ ClientConfig = Client{}

// GetBaseURL returns the REST root, e.g. "https://academy.example.com/api"
func (Client) GetBaseURL() string {
	return GetEnv("ACADEMY_BASE_URL", "http://localhost:8080/api")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration("ACADEMY_TIMEOUT", 15*time.Second)
}

func (Client) GetRetryBackoff() time.Duration {
	return GetEnvDuration("ACADEMY_RETRY_BACKOFF", 500*time.Millisecond)
}

func (Client) GetRefreshPath() string {
	return GetEnv("ACADEMY_REFRESH_PATH", "/auth/refresh")
}

// GetLoginRoute is where the host application sends the user once the session is invalidated.
func (Client) GetLoginRoute() string {
	return GetEnv("ACADEMY_LOGIN_ROUTE", "/login")
}

// GetRateLimit is requests per second. Zero disables client side limiting.
func (Client) GetRateLimit() float64 {
	return GetEnvFloat("ACADEMY_RATE_LIMIT", 0)
}

// GetRateBurst is at least 1, a zero burst would reject every request.
func (Client) GetRateBurst() int {
	if burst := GetEnvInt("ACADEMY_RATE_BURST", 5); burst > 0 {
		return burst
	}
	return 5
}

// GetProactiveRefresh is the window before access token expiry in which a refresh is started
// before dispatch. Zero disables it.
func (Client) GetProactiveRefresh() time.Duration {
	return GetEnvDuration("ACADEMY_PROACTIVE_REFRESH", 0)
}
