package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDBFileName      = ".minuta.db"
	DefaultSessionFileName = "session.json"
	DefaultJournalFileName = "sync.journal"
	DefaultLogLevel        = "warn"

	// DefaultSessionMaxBytes mirrors the quota ceiling of browser-class
	// synchronous storage.
	DefaultSessionMaxBytes int64 = 5 * 1024 * 1024

	DefaultAutosaveIdleMS = 2000

	configFileName = ".minuta.toml"

	configDirEnvKey       = "MINUTA_CONFIG_DIR"
	durableDisabledEnvKey = "MINUTA_DURABLE_DISABLED"
	syncDisabledEnvKey    = "MINUTA_SYNC_DISABLED"
)

// RemoteConfig defines the optional remote snapshot storage endpoint.
type RemoteConfig struct {
	URL string `toml:"url"`
}

// Config defines runtime configuration for minuta.
type Config struct {
	// ProjectDir holds the database, session slot, and sync journal of the
	// current project. Defaults to the working directory.
	ProjectDir      string       `toml:"project_dir"`
	DBFileName      string       `toml:"db_file_name"`
	SessionFileName string       `toml:"session_file_name"`
	SessionMaxBytes int64        `toml:"session_max_bytes"`
	AutosaveIdleMS  int          `toml:"autosave_idle_ms"`
	DurableDisabled bool         `toml:"durable_disabled"`
	SyncDisabled    bool         `toml:"sync_disabled"`
	LogLevel        string       `toml:"log_level"`
	Remote          RemoteConfig `toml:"remote"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		ProjectDir:      "",
		DBFileName:      DefaultDBFileName,
		SessionFileName: DefaultSessionFileName,
		SessionMaxBytes: DefaultSessionMaxBytes,
		AutosaveIdleMS:  DefaultAutosaveIdleMS,
		LogLevel:        DefaultLogLevel,
	}
}

// Load resolves configuration from defaults, config files, and environment.
// Precedence: env overrides > MINUTA_CONFIG_DIR file > project file > user
// config dir file > defaults.
func Load() (*Config, error) {
	cfg := Default()

	if path, ok := overrideConfigPath(); ok {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			if err := loadFile(filepath.Join(dir, "minuta", configFileName), &cfg); err != nil {
				return nil, err
			}
		}
		if wd, err := os.Getwd(); err == nil {
			if err := loadFile(filepath.Join(wd, configFileName), &cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.ProjectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve project dir: %w", err)
		}
		cfg.ProjectDir = wd
	}
	if cfg.DBFileName == "" {
		cfg.DBFileName = DefaultDBFileName
	}
	if cfg.SessionFileName == "" {
		cfg.SessionFileName = DefaultSessionFileName
	}
	if cfg.SessionMaxBytes <= 0 {
		cfg.SessionMaxBytes = DefaultSessionMaxBytes
	}
	if cfg.AutosaveIdleMS <= 0 {
		cfg.AutosaveIdleMS = DefaultAutosaveIdleMS
	}

	return &cfg, nil
}

// DBPath returns the full path of the project database.
func (c *Config) DBPath() string {
	return filepath.Join(c.ProjectDir, c.DBFileName)
}

// SessionPath returns the full path of the session slot file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.ProjectDir, c.SessionFileName)
}

// JournalPath returns the full path of the sync journal file.
func (c *Config) JournalPath() string {
	return filepath.Join(c.ProjectDir, DefaultJournalFileName)
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func applyEnvOverrides(cfg *Config) {
	if value, ok := boolEnv(durableDisabledEnvKey); ok {
		cfg.DurableDisabled = value
	}
	if value, ok := boolEnv(syncDisabledEnvKey); ok {
		cfg.SyncDisabled = value
	}
}

func boolEnv(key string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return value, true
}
