// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Session  SessionConfig  `mapstructure:"session"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig points the client SDK at the shopping-assistant API.
type BackendConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	UserAgent string `mapstructure:"user_agent"`
	UseMock   bool   `mapstructure:"use_mock"`
}

// SessionConfig selects where the logged-in user id is kept.
type SessionConfig struct {
	Store    string `mapstructure:"store"` // file | redis
	FilePath string `mapstructure:"file_path"`
	Key      string `mapstructure:"key"`
	TTL      int    `mapstructure:"ttl"` // milliseconds, 0 keeps the session until logout
}

type ChatConfig struct {
	TypingEnabled bool   `mapstructure:"typing_enabled"`
	TypingDelay   int    `mapstructure:"typing_delay"` // milliseconds per word
	Location      string `mapstructure:"location"`     // IANA zone used for day grouping
}

// GetLocation resolves the configured zone; empty or "Local" means the host zone.
func (c ChatConfig) GetLocation() (*time.Location, error) {
	if c.Location == "" || c.Location == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Location)
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
	Index     string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig configures the mock backend process.
type ServerConfig struct {
	Address     string  `mapstructure:"address"`
	Store       string  `mapstructure:"store"`   // memory | postgres
	Catalog     string  `mapstructure:"catalog"` // memory | elasticsearch
	CatalogPath string  `mapstructure:"catalog_path"`
	RateLimit   float64 `mapstructure:"rate_limit"` // requests per second per client, 0 disables
	RateBurst   int     `mapstructure:"rate_burst"`
	ReadTimeout int     `mapstructure:"read_timeout"` // milliseconds
	GinMode     string  `mapstructure:"gin_mode"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}
