package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/errors"
)

// PostgresClient wraps the SQL connection used by the mock backend store.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// NewPostgresFromDB wraps an open handle, e.g. a sqlmock connection.
func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Migrate creates the mock backend tables when they are missing.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return errors.NewQueryExecutionFailedError("migrate", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    BIGSERIAL PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		nickname   TEXT NOT NULL,
		age        INT NOT NULL,
		sex        TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		chat_id    BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_logs (
		chat_log_id BIGSERIAL PRIMARY KEY,
		chat_id     BIGINT NOT NULL REFERENCES chats(chat_id) ON DELETE CASCADE,
		payload     JSONB NOT NULL,
		created_at  TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS collections (
		collection_id    BIGSERIAL PRIMARY KEY,
		user_id          BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		collection_title TEXT NOT NULL,
		created_at       TIMESTAMP NOT NULL DEFAULT now(),
		updated_at       TIMESTAMP NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS collection_items (
		item_id       BIGSERIAL PRIMARY KEY,
		collection_id BIGINT NOT NULL REFERENCES collections(collection_id) ON DELETE CASCADE,
		product       JSONB NOT NULL,
		created_at    TIMESTAMP NOT NULL DEFAULT now()
	)`,
}
