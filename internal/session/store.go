// Package session keeps the logged-in user id between runs and builds the
// per-user application state.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/errors"
)

// Store persists the current user id. Load returns "" when nobody is logged in.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, userID string) error
	Clear(ctx context.Context) error
}

// NewStore builds the store selected by session.store.
func NewStore(cfg *config.Config) Store {
	ttl := config.GetDuration(cfg.Session.TTL)
	if cfg.Session.Store == "redis" {
		return NewRedisStore(database.NewRedis(cfg.Database.Redis), cfg.Session.Key, ttl)
	}
	return NewFileStore(cfg.Session.FilePath, ttl)
}

// ==========================
// File store
// ==========================

type FileStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

type fileRecord struct {
	UserID  string    `json:"user_id"`
	SavedAt time.Time `json:"saved_at"`
}

func NewFileStore(path string, ttl time.Duration) *FileStore {
	return &FileStore{path: path, ttl: ttl, now: time.Now}
}

func (s *FileStore) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.NewSessionStoreFailedError("load", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", errors.NewSessionStoreFailedError("load", err)
	}
	if s.ttl > 0 && s.now().Sub(rec.SavedAt) > s.ttl {
		return "", s.Clear(ctx)
	}
	return strings.TrimSpace(rec.UserID), nil
}

func (s *FileStore) Save(_ context.Context, userID string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.NewSessionStoreFailedError("save", err)
	}
	data, err := json.Marshal(fileRecord{UserID: userID, SavedAt: s.now().UTC()})
	if err != nil {
		return errors.NewSessionStoreFailedError("save", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.NewSessionStoreFailedError("save", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.NewSessionStoreFailedError("save", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.NewSessionStoreFailedError("clear", err)
	}
	return nil
}

// ==========================
// Redis store
// ==========================

type RedisStore struct {
	client *database.RedisClient
	key    string
	ttl    time.Duration
}

func NewRedisStore(client *database.RedisClient, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: key, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key)
	if stderrors.Is(err, database.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.NewSessionStoreFailedError("load", err)
	}
	return strings.TrimSpace(val), nil
}

func (s *RedisStore) Save(ctx context.Context, userID string) error {
	if err := s.client.Set(ctx, s.key, userID, s.ttl); err != nil {
		return errors.NewSessionStoreFailedError("save", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key); err != nil {
		return errors.NewSessionStoreFailedError("clear", err)
	}
	return nil
}
