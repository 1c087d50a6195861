package sessions

import "context"

// Key names a persisted session entry
type Key string

const (
	KeyAccessToken  Key = "accessToken"
	KeyRefreshToken Key = "refreshToken"
	KeyUser         Key = "user"
)

// Keys are all the entries that make up a session
var Keys = []Key{KeyAccessToken, KeyRefreshToken, KeyUser}

// Store is durable key-value storage for the session. Get returns "" for an absent key and
// setting "" removes the key. Writes are visible to every later Get, including from a new
// process for the durable implementations.
type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	Clear(ctx context.Context, keys ...Key) error
}
