// Package config handles configuration loading and validation for revthreads.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/colonyops/revthreads/internal/core/thread"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultEmptyMessage is shown when no thread passes the active filters.
const DefaultEmptyMessage = "No threads."

// Config holds the application configuration.
type Config struct {
	Includes  []string       `yaml:"includes"` // YAML files merged beneath this one
	Filters   FilterDefaults `yaml:"filters"`
	Display   Display        `yaml:"display"`
	Collation Collation      `yaml:"collation"`
	Watch     Watch          `yaml:"watch"`
	Database  Database       `yaml:"database"`
	EventBus  EventBus       `yaml:"eventbus"`
	DataDir   string         `yaml:"-"` // set by caller, not from config file
}

// FilterDefaults are the toggles used when neither a flag nor a saved
// preference sets them.
type FilterDefaults struct {
	UnresolvedOnly bool `yaml:"unresolved_only"`
	DraftsOnly     bool `yaml:"drafts_only"`
	RobotReplyOnly bool `yaml:"robot_reply_only"`
}

// Filters converts the defaults into a fully initialized filter set.
func (f FilterDefaults) Filters() thread.Filters {
	return thread.NewFilters(f.UnresolvedOnly, f.DraftsOnly, f.RobotReplyOnly)
}

// Display holds presentation settings.
type Display struct {
	EmptyMessage string `yaml:"empty_message"`
	LoggedIn     bool   `yaml:"logged_in"` // shows the drafts toggle
	Theme        string `yaml:"theme"`
}

// Collation selects the locale used to compare paths and comment IDs.
type Collation struct {
	Locale string `yaml:"locale"` // BCP 47 tag, "und" for the root collation
}

// Tag parses the configured locale.
func (c Collation) Tag() (language.Tag, error) {
	return language.Parse(c.Locale)
}

// Watch holds settings for the change file watcher.
type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Database holds SQLite connection settings.
type Database struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// EventBus holds event bus settings.
type EventBus struct {
	BufferSize int `yaml:"buffer_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Display: Display{
			EmptyMessage: DefaultEmptyMessage,
			LoggedIn:     true,
			Theme:        "tokyo-night",
		},
		Collation: Collation{Locale: "und"},
		Watch:     Watch{Debounce: 50 * time.Millisecond},
		Database: Database{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		EventBus: EventBus{BufferSize: 64},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			raw, err := loadLayered(configPath)
			if err != nil {
				return nil, err
			}

			data, err := yaml.Marshal(raw)
			if err != nil {
				return nil, fmt.Errorf("encode merged config: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// loadLayered reads configPath and the files it includes. Included files are
// merged first, in order, and the main file overrides them.
func loadLayered(configPath string) (map[string]any, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var main map[string]any
	if err := yaml.Unmarshal(data, &main); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if main == nil {
		main = map[string]any{}
	}

	includes, err := includeList(main["includes"])
	if err != nil {
		return nil, err
	}

	merged, err := loadIncludes(filepath.Dir(configPath), includes)
	if err != nil {
		return nil, err
	}

	mergeMaps(merged, main)
	return merged, nil
}

func includeList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("includes must be a list of paths")
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("includes[%d] must be a string", i)
		}
		out = append(out, s)
	}
	return out, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Display.EmptyMessage == "" {
		c.Display.EmptyMessage = defaults.Display.EmptyMessage
	}
	if c.Display.Theme == "" {
		c.Display.Theme = defaults.Display.Theme
	}
	if c.Collation.Locale == "" {
		c.Collation.Locale = defaults.Collation.Locale
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = defaults.Watch.Debounce
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.EventBus.BufferSize == 0 {
		c.EventBus.BufferSize = defaults.EventBus.BufferSize
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce cannot be negative")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns cannot exceed max_open_conns")
	}

	if c.EventBus.BufferSize < 1 {
		return fmt.Errorf("eventbus.buffer_size must be at least 1")
	}

	return nil
}

// DatabasePath returns the path of the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "revthreads.db")
}
