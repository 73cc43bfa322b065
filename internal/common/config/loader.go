// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const mockBackendURL = "http://localhost:3001"

// Load reads configs/config.yaml, the config.<env>.yaml overlay and the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "shopctl"))
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be filled in after Unmarshal.
	v.SetDefault("chat.typing_enabled", true)
	v.SetDefault("output.colors", true)

	// Register keys so AutomaticEnv can override them without a config file.
	for _, key := range []string{
		"backend.base_url",
		"session.store", "session.file_path", "session.key",
		"chat.location",
		"database.redis.address", "database.postgres.host",
		"server.address", "server.store", "server.catalog", "server.catalog_path",
		"logging.level", "logging.format", "logging.output",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("backend.timeout", 0)
	v.SetDefault("backend.use_mock", false)
	v.SetDefault("chat.typing_delay", 0)
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up to the module root.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e/
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig applies the legacy environment switches.
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("USE_MOCK_BACKEND"); val == "true" || val == "1" {
		cfg.Backend.UseMock = true
	}
	if cfg.Backend.UseMock {
		cfg.Backend.BaseURL = mockBackendURL
	}
	if cfg.Backend.BaseURL == "" {
		if val := os.Getenv("BACKEND_URL"); val != "" {
			cfg.Backend.BaseURL = val
		}
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = mockBackendURL
	}
	cfg.Backend.BaseURL = strings.TrimSuffix(cfg.Backend.BaseURL, "/")

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shopping-assistant"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}

	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30000
	}
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = "shopctl/" + cfg.App.Version
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = "file"
	}
	if cfg.Session.FilePath == "" {
		cfg.Session.FilePath = defaultSessionPath()
	}
	if cfg.Session.Key == "" {
		cfg.Session.Key = "shopctl:session:user_id"
	}

	if cfg.Chat.TypingDelay == 0 {
		cfg.Chat.TypingDelay = 100
	}
	if cfg.Chat.Location == "" {
		cfg.Chat.Location = "Local"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "products"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":3001"
	}
	if cfg.Server.Store == "" {
		cfg.Server.Store = "memory"
	}
	if cfg.Server.Catalog == "" {
		cfg.Server.Catalog = "memory"
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 20
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.GinMode == "" {
		cfg.Server.GinMode = "release"
	}

	// The chat stream owns stdout, so the CLI logs to stderr by default.
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shopctl", "session.json")
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", cfg.Backend.BaseURL)
	}

	switch cfg.Session.Store {
	case "file":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when session.store is redis")
		}
	default:
		return fmt.Errorf("session.store must be file or redis, got %q", cfg.Session.Store)
	}

	if _, err := cfg.Chat.GetLocation(); err != nil {
		return fmt.Errorf("chat.location: %w", err)
	}

	switch cfg.Server.Store {
	case "memory":
	case "postgres":
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when server.store is postgres")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when server.store is postgres")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required when server.store is postgres")
		}
	default:
		return fmt.Errorf("server.store must be memory or postgres, got %q", cfg.Server.Store)
	}

	switch cfg.Server.Catalog {
	case "memory":
	case "elasticsearch":
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required when server.catalog is elasticsearch")
		}
	default:
		return fmt.Errorf("server.catalog must be memory or elasticsearch, got %q", cfg.Server.Catalog)
	}

	if cfg.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
