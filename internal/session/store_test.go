package session

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/errors"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path, 0)
	ctx := context.Background()

	userID, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, userID)

	require.NoError(t, store.Save(ctx, "17"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	userID, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "17", userID)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	userID, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestFileStore_Expired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, time.Hour)
	now := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "17"))

	now = now.Add(2 * time.Hour)
	userID, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, userID)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path, 0).Load(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionStoreFailed))
}

func TestRedisStore_WithMiniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer client.Close()

	store := NewRedisStore(client, "shopctl:session:user_id", time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "21"))
	stored, err := mr.Get("shopctl:session:user_id")
	require.NoError(t, err)
	assert.Equal(t, "21", stored)
	assert.Equal(t, time.Minute, mr.TTL("shopctl:session:user_id"))

	userID, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "21", userID)

	mr.FastForward(2 * time.Minute)
	userID, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestRedisStore_Clear(t *testing.T) {
	mr := miniredis.RunT(t)
	client := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	store := NewRedisStore(client, "k", 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "5"))
	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("k"))
}

func TestRedisStore_Errors(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	store := NewRedisStore(database.NewRedisFromClient(rdb), "k", 0)
	ctx := context.Background()

	redisMock.ExpectGet("k").SetErr(stderrors.New("connection refused"))
	_, err := store.Load(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionStoreFailed))

	redisMock.ExpectSet("k", "9", 0).SetErr(stderrors.New("READONLY"))
	err = store.Save(ctx, "9")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionStoreFailed))

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestNewStore_SelectsImplementation(t *testing.T) {
	cfg := &config.Config{}
	cfg.Session.Store = "file"
	cfg.Session.FilePath = filepath.Join(t.TempDir(), "s.json")
	_, ok := NewStore(cfg).(*FileStore)
	assert.True(t, ok)

	cfg.Session.Store = "redis"
	cfg.Database.Redis.Address = "localhost:6379"
	_, ok = NewStore(cfg).(*RedisStore)
	assert.True(t, ok)
}
