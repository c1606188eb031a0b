package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/revthreads/internal/core/config"
	"github.com/colonyops/revthreads/internal/core/eventbus"
	"github.com/colonyops/revthreads/internal/data/db"
	"github.com/colonyops/revthreads/internal/data/stores"
)

const appName = "revthreads"

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// App holds the services built in the Before hook.
type App struct {
	DB      *db.DB
	Filters *stores.FilterStore
	Bus     *eventbus.EventBus
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName)
}

// ChangesDir is where watch looks for <change>.json files by default.
func ChangesDir(dataDir string) string {
	return filepath.Join(dataDir, "changes")
}
