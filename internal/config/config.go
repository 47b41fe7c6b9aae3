// Package config resolves the tool's configuration by layering
// defaults, the on-disk config file, and environment overrides, in
// that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"

	"github.com/memory-nexus/memory-nexus/internal/errs"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Config holds every tunable the core and hook path consult. All
// fields are loaded once per process and treated as immutable
// afterward.
type Config struct {
	DataDir string `json:"-"`
	DBPath  string `json:"-"`

	AutoSync          bool   `json:"autoSync"`
	RecoveryOnStartup bool   `json:"recoveryOnStartup"`
	SyncOnCompaction  bool   `json:"syncOnCompaction"`
	TimeoutMs         int    `json:"timeout"`
	LogLevel          string `json:"logLevel"`
	LogRetentionDays  int    `json:"logRetentionDays"`
	ShowFailures      bool   `json:"showFailures"`

	// WatchEnabled governs whether the daemonized sync path (--quiet)
	// stays resident watching the session root for changes instead of
	// exiting after a single pass.
	WatchEnabled    bool   `json:"watchEnabled"`
	WatchDebounceMs int    `json:"watchDebounceMs"`
	CronSchedule    string `json:"cronSchedule"`
}

func defaults() Config {
	return Config{
		AutoSync:          true,
		RecoveryOnStartup: true,
		SyncOnCompaction:  true,
		TimeoutMs:         5000,
		LogLevel:          LogLevelInfo,
		LogRetentionDays:  7,
		ShowFailures:      false,
		WatchEnabled:      true,
		WatchDebounceMs:   500,
		CronSchedule:      "*/15 * * * *",
	}
}

// Default returns a Config populated with built-in defaults and the
// standard data-dir-derived paths, without consulting the config
// file or environment.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("determining home directory: %w", err)
	}
	cfg := defaults()
	cfg.DataDir = filepath.Join(home, ".memory-nexus")
	cfg.DBPath = filepath.Join(cfg.DataDir, "memory.db")
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", "sync.log")
}

func (c *Config) CheckpointPath() string {
	return filepath.Join(c.DataDir, "sync-checkpoint.json")
}

// Load builds the effective Config: defaults, overridden by the
// config file (if present), overridden by environment variables.
// readFile decodes the file over a copy of the defaults and applyEnv
// only sets variables that are present, so an unset field always
// falls through to the layer below. If the config file cannot be read
// or parsed, Load returns the defaults (with environment overrides
// applied) together with an error wrapping errs.ErrConfigInvalid.
func Load() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}

	fileCfg, err := cfg.readFile()
	if err != nil {
		cfg.applyEnv()
		return cfg, fmt.Errorf("%w: %v", errs.ErrConfigInvalid, err)
	}
	if fileCfg != nil {
		if err := mergo.Merge(&cfg, *fileCfg, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
			return cfg, fmt.Errorf("%w: merging config file: %v", errs.ErrConfigInvalid, err)
		}
	}

	cfg.DBPath = filepath.Join(cfg.DataDir, "memory.db")
	cfg.applyEnv()
	return cfg, nil
}

// readFile reads and parses the config file, returning nil (not an
// error) when it does not exist yet — a missing config file just
// means "use defaults", not a validation failure. The file is decoded
// over a copy of c, so fields absent from the file keep c's values
// and fields set to false or 0 in the file are kept as such.
func (c *Config) readFile() (*Config, error) {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fileCfg := *c
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.configPath(), err)
	}
	return &fileCfg, nil
}

// applyEnv honours the single environment override this tool
// documents: MEMORY_NEXUS_DB relocates the database file independent
// of DataDir, so a test harness or an alternate profile can point at
// a scratch database without touching logs or the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("MEMORY_NEXUS_DB"); v != "" {
		c.DBPath = v
	}
}

// Save persists the current config to disk, creating the data
// directory if necessary.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	out, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
