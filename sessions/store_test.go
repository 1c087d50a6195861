package sessions_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-academy-client/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func storeImplementations(t *testing.T) map[string]sessions.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return map[string]sessions.Store{
		"memory": sessions.NewMemoryStore(),
		"file":   sessions.NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json")),
		"redis":  sessions.NewRedisStore(rdb, "test:"),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			value, err := store.Get(ctx, sessions.KeyAccessToken)
			require.NoError(t, err)
			require.Empty(t, value, "absent key reads as empty")

			require.NoError(t, store.Set(ctx, sessions.KeyAccessToken, "access-1"))
			require.NoError(t, store.Set(ctx, sessions.KeyRefreshToken, "refresh-1"))

			value, err = store.Get(ctx, sessions.KeyAccessToken)
			require.NoError(t, err)
			require.Equal(t, "access-1", value)

			require.NoError(t, store.Set(ctx, sessions.KeyAccessToken, "access-2"))
			value, err = store.Get(ctx, sessions.KeyAccessToken)
			require.NoError(t, err)
			require.Equal(t, "access-2", value, "set overwrites")

			require.NoError(t, store.Set(ctx, sessions.KeyAccessToken, ""))
			value, err = store.Get(ctx, sessions.KeyAccessToken)
			require.NoError(t, err)
			require.Empty(t, value, "setting empty removes")

			require.NoError(t, store.Clear(ctx, sessions.Keys...))
			value, err = store.Get(ctx, sessions.KeyRefreshToken)
			require.NoError(t, err)
			require.Empty(t, value)

			require.NoError(t, store.Clear(ctx, sessions.Keys...), "clearing twice is fine")
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first := sessions.NewFileStore(path)
	require.NoError(t, first.Set(ctx, sessions.KeyRefreshToken, "refresh-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second := sessions.NewFileStore(path)
	value, err := second.Get(ctx, sessions.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "refresh-1", value)

	require.NoError(t, second.Clear(ctx, sessions.Keys...))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "empty session removes the file")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := sessions.NewFileStore(path).Get(context.Background(), sessions.KeyAccessToken)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}

func TestRedisStore_Prefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := sessions.NewRedisStore(rdb, "academy:session:")
	require.NoError(t, store.Set(ctx, sessions.KeyAccessToken, "access-1"))

	stored, err := mr.Get("academy:session:accessToken")
	require.NoError(t, err)
	require.Equal(t, "access-1", stored)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	_, err := sessions.NewRedisStore(rdb, "").Get(context.Background(), sessions.KeyAccessToken)
	require.Error(t, err)
	require.Contains(t, err.Error(), "RedisStore Get")
}
