// Package config resolves, parses, validates, and defaults voicecmd settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Config is the fully materialized runtime configuration.
type Config struct {
	Database      string      `yaml:"database"`
	AppsFolder    string      `yaml:"apps_folder"`
	SidecarSuffix string      `yaml:"sidecar_suffix"`
	Match         MatchConfig `yaml:"match"`
	Watch         WatchConfig `yaml:"watch"`
	Notifications bool        `yaml:"notifications"`
	SeedDefaults  bool        `yaml:"seed_defaults"`
	LogLevel      string      `yaml:"log_level"`
}

// MatchConfig controls the matcher's strategy order and fuzzy threshold.
type MatchConfig struct {
	Threshold  float64  `yaml:"threshold"`
	Strategies []string `yaml:"strategies"`
}

// WatchConfig controls live folder reconciliation.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Warning is a non-fatal issue found while loading.
type Warning struct {
	Message string
}

// Loaded captures the resolved path, parsed values, and warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Database:      defaultDatabasePath(),
		SidecarSuffix: ".voice.json",
		Match: MatchConfig{
			Threshold:  0.8,
			Strategies: []string{"exact", "substring", "fuzzy"},
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		SeedDefaults: true,
		LogLevel:     "info",
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".voicecmd", "commands.db")
	}
	return filepath.Join(home, ".voicecmd", "commands.db")
}

// ResolvePath applies flag, XDG and home fallback rules for config.yaml.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "voicecmd", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "voicecmd", "config.yaml"), nil
}

// Load resolves, reads, parses, and validates the configuration.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   path,
				Config: Default(),
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", path),
				}},
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, warnings, err := Parse(content)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return Loaded{Path: path, Config: cfg, Warnings: warnings, Exists: true}, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(content []byte) (Config, []Warning, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, nil, err
	}

	cfg.Database = expandHome(cfg.Database)
	cfg.AppsFolder = expandHome(cfg.AppsFolder)

	if err := Validate(cfg); err != nil {
		return Config{}, nil, err
	}

	var warnings []Warning
	if cfg.AppsFolder != "" {
		if info, err := os.Stat(cfg.AppsFolder); err != nil || !info.IsDir() {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("apps folder %q is not a readable directory", cfg.AppsFolder),
			})
		}
	}
	return cfg, warnings, nil
}

// Validate checks value ranges and enumerations.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Database) == "" {
		return errors.New("database path is required")
	}
	if cfg.SidecarSuffix == "" {
		return errors.New("sidecar_suffix must not be empty")
	}
	if cfg.Match.Threshold < 0 || cfg.Match.Threshold > 1 {
		return fmt.Errorf("match.threshold must be within [0, 1], got %v", cfg.Match.Threshold)
	}
	if len(cfg.Match.Strategies) == 0 {
		return errors.New("match.strategies must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Match.Strategies))
	for _, s := range cfg.Match.Strategies {
		switch s {
		case "exact", "substring", "fuzzy":
		default:
			return fmt.Errorf("match.strategies: unknown strategy %q", s)
		}
		if seen[s] {
			return fmt.Errorf("match.strategies: duplicate strategy %q", s)
		}
		seen[s] = true
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
