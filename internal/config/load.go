package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

// CLIOverrides holds values taken directly from command-line flags. These
// take priority over both the config file and environment variables.
type CLIOverrides struct {
	ConfigPath string
	Profile    string
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are treated as fatal errors with "did you
// mean?" suggestions.
func Load(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully",
		"path", path,
		"profile_count", len(cfg.Profiles),
	)

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. The default Config defines no
// [org.<name>] profiles, so resolving a profile from it fails; the
// OKTA_CLIENT_TOKEN/OKTA_CLIENT_SECRET overrides only fill in credentials for
// a profile the config file defines.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		return DefaultConfig(), nil
	}

	return Load(path, logger)
}

// ResolveConfigPath determines the config file path using the three-layer
// priority: CLI flag > environment variable > platform default. This is the
// single correct implementation of config path resolution — all callers
// should use this.
func ResolveConfigPath(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) string {
	cfgPath := DefaultConfigPath()
	source := "default"

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
		source = "env"
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
		source = "cli"
	}

	logger.Debug("config path resolved", "path", cfgPath, "source", source)

	return cfgPath
}

// ResolveActiveProfile loads the config file (or defaults), determines the
// active profile (CLI > env > config-file default), and returns the fully
// resolved profile plus the raw parsed config (needed by callers that also
// want access to other profiles, e.g. a "config show --all" command).
func ResolveActiveProfile(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*ResolvedProfile, *Config, error) {
	cfgPath := ResolveConfigPath(env, cli, logger)

	cfg, err := LoadOrDefault(cfgPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	name := env.Profile
	if cli.Profile != "" {
		name = cli.Profile
	}

	logger.Debug("org profile resolved", "profile", name, "source_env", env.Profile, "source_cli", cli.Profile)

	resolved, err := ResolveProfile(cfg, name, env)
	if err != nil {
		return nil, nil, err
	}

	if err := ValidateResolved(resolved); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	return resolved, cfg, nil
}

// debounceWindow absorbs editors that emit multiple write/rename events for
// a single logical save (truncate-then-write, temp-file-then-rename).
const debounceWindow = 200 * time.Millisecond

// Watch starts an fsnotify watch on the config file backing holder and
// reloads it into the holder whenever the file is written. Reload errors are
// logged and do not replace the last-known-good config — a config file
// mid-save (or temporarily broken) must not take down an already-running
// client. The returned stop func closes the underlying watcher.
func Watch(holder *Holder, logger *slog.Logger) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}

	path := holder.Path()
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching config file %s: %w", path, err)
	}

	go watchLoop(watcher, holder, logger)

	return watcher.Close, nil
}

func watchLoop(watcher *fsnotify.Watcher, holder *Holder, logger *slog.Logger) {
	var pending *time.Timer

	reload := func() {
		cfg, err := Load(holder.Path(), logger)
		if err != nil {
			logger.Error("config reload failed, keeping previous config", "path", holder.Path(), "error", err)
			return
		}

		holder.Update(cfg)
		logger.Info("config reloaded", "path", holder.Path())
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if pending != nil {
				pending.Stop()
			}

			pending = time.AfterFunc(debounceWindow, reload)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}

			logger.Error("config watcher error", "error", watchErr)
		}
	}
}
