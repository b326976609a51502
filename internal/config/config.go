// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingConfig is returned when a required setting has no value.
var ErrMissingConfig = errors.New("missing required configuration")

// Store backends accepted by sync.store.
const (
	StoreFS     = "fs"
	StoreSQLite = "sqlite"
)

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub GitHubConfig
	Inbox  InboxConfig
	Sync   SyncConfig
	Server ServerConfig
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token string

	// Domain is github.com or a GitHub Enterprise host.
	Domain string

	// Repository is the default "owner/repo"; the --repository flag overrides it.
	Repository string

	// HTTPCache enables an in-memory conditional-request cache under the auth transport.
	HTTPCache bool
}

// InboxConfig holds settings for query mode.
type InboxConfig struct {
	// Maintainer is the login whose last comment marks a thread as replied.
	// Empty means the repository owner.
	Maintainer string

	PerPage   int // default 10
	PageLimit int // default 1
}

// SyncConfig holds settings for persist mode.
type SyncConfig struct {
	// Root is the directory notes are written under (as <root>/github/<repo>/...).
	Root string

	PerPage     int // default 100
	Concurrency int // default 8

	// Store selects the note backend: "fs" or "sqlite".
	Store string

	// IndexPath is the SQLite database used when Store is "sqlite".
	// Defaults to <root>/.ghinbox.db.
	IndexPath string
}

// ServerConfig holds settings for the HTTP inbox endpoint.
type ServerConfig struct {
	Addr string
}

// LoadConfig initializes and loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("github.domain", "github.com")
	v.SetDefault("github.http_cache", false)
	v.SetDefault("inbox.per_page", 10)
	v.SetDefault("inbox.page_limit", 1)
	v.SetDefault("sync.root", ".")
	v.SetDefault("sync.per_page", 100)
	v.SetDefault("sync.concurrency", 8)
	v.SetDefault("sync.store", StoreFS)
	v.SetDefault("server.addr", ":8080")

	// Map specific environment variables
	_ = v.BindEnv("github.token", "GITHUB_TOKEN")
	_ = v.BindEnv("github.domain", "GITHUB_DOMAIN")
	_ = v.BindEnv("github.repository", "GITHUB_REPOSITORY")
	_ = v.BindEnv("github.http_cache", "GITHUB_HTTP_CACHE")
	_ = v.BindEnv("inbox.maintainer", "INBOX_MAINTAINER")
	_ = v.BindEnv("inbox.per_page", "INBOX_PER_PAGE")
	_ = v.BindEnv("inbox.page_limit", "INBOX_PAGE_LIMIT")
	_ = v.BindEnv("sync.root", "SYNC_ROOT")
	_ = v.BindEnv("sync.per_page", "SYNC_PER_PAGE")
	_ = v.BindEnv("sync.concurrency", "SYNC_CONCURRENCY")
	_ = v.BindEnv("sync.store", "SYNC_STORE")
	_ = v.BindEnv("sync.index_path", "SYNC_INDEX_PATH")
	_ = v.BindEnv("server.addr", "SERVER_ADDR")

	config := &Config{
		GitHub: GitHubConfig{
			Token:      v.GetString("github.token"),
			Domain:     v.GetString("github.domain"),
			Repository: v.GetString("github.repository"),
			HTTPCache:  v.GetBool("github.http_cache"),
		},
		Inbox: InboxConfig{
			Maintainer: v.GetString("inbox.maintainer"),
			PerPage:    v.GetInt("inbox.per_page"),
			PageLimit:  v.GetInt("inbox.page_limit"),
		},
		Sync: SyncConfig{
			Root:        v.GetString("sync.root"),
			PerPage:     v.GetInt("sync.per_page"),
			Concurrency: v.GetInt("sync.concurrency"),
			Store:       strings.ToLower(v.GetString("sync.store")),
			IndexPath:   v.GetString("sync.index_path"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
	}

	if config.GitHub.Domain == "" {
		config.GitHub.Domain = "github.com"
	}
	if config.Sync.IndexPath == "" {
		config.Sync.IndexPath = DefaultIndexPath(config.Sync.Root)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("%w: environment variables %v", ErrMissingConfig, missingVars)
	}

	return ValidateLimits(config)
}

// ValidateLimits rejects page sizes and pool sizes that cannot work.
func ValidateLimits(config *Config) error {
	if config.Inbox.PerPage < 1 || config.Inbox.PerPage > 100 {
		return fmt.Errorf("inbox per_page must be between 1 and 100, got %d", config.Inbox.PerPage)
	}
	if config.Inbox.PageLimit < 0 {
		return fmt.Errorf("inbox page_limit must not be negative, got %d", config.Inbox.PageLimit)
	}
	if config.Sync.PerPage < 1 || config.Sync.PerPage > 100 {
		return fmt.Errorf("sync per_page must be between 1 and 100, got %d", config.Sync.PerPage)
	}
	if config.Sync.Concurrency < 1 {
		return fmt.Errorf("sync concurrency must be at least 1, got %d", config.Sync.Concurrency)
	}
	switch config.Sync.Store {
	case StoreFS, StoreSQLite:
	default:
		return fmt.Errorf("unknown sync store %q: valid stores are %s, %s", config.Sync.Store, StoreFS, StoreSQLite)
	}
	return nil
}

// DefaultIndexPath is the SQLite note store used for a sync root when none is configured.
func DefaultIndexPath(root string) string {
	return filepath.Join(root, ".ghinbox.db")
}

// SplitRepository parses "owner/repo".
func SplitRepository(repository string) (owner, repo string, err error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format: %s, expected format: owner/repo", repository)
	}
	return parts[0], parts[1], nil
}

// MaintainerFor returns the configured maintainer, defaulting to the repository owner.
func (c InboxConfig) MaintainerFor(owner string) string {
	if c.Maintainer != "" {
		return c.Maintainer
	}
	return owner
}
