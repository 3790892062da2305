// Package config handles loading and saving tagview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/tagview/config.yaml
//   - State:  ~/.local/state/tagview/ (session database, log file)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/rentscan/tagview/pkg/tree"
)

// Tab is one inventory view backed by its own endpoint family
// (/{path}/categories and friends). Contract-style tabs skip the
// subcategory tier and expose the contract-number filter.
type Tab struct {
	Name            string `yaml:"name"`
	Path            string `yaml:"path"`
	SkipSubcategory bool   `yaml:"skip_subcategory,omitempty"`
	ContractFilter  bool   `yaml:"contract_filter,omitempty"`
}

// Chain returns the level chain this tab renders.
func (t Tab) Chain() tree.Chain {
	if t.SkipSubcategory {
		return tree.SkipSubcategoryChain()
	}
	return tree.DefaultChain()
}

// Validate rejects tabs without a name or URL path segment.
func (t Tab) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Path, validation.Required),
	)
}

// ServerConfig points the client at the inventory server.
type ServerConfig struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// Timeout returns the request timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Validate rejects server sections without a base URL.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.BaseURL, validation.Required),
	)
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme string `yaml:"theme,omitempty"` // dark, light, mono
	// Exclusive controls whether expanding a node collapses its expanded
	// siblings, per level name. Levels not listed default to true.
	Exclusive map[string]bool `yaml:"exclusive,omitempty"`
}

// ExclusiveLevels parses the per-level exclusivity overrides. Unknown
// level names are ignored.
func (u UIConfig) ExclusiveLevels() map[tree.Level]bool {
	if len(u.Exclusive) == 0 {
		return nil
	}
	out := make(map[tree.Level]bool, len(u.Exclusive))
	for name, v := range u.Exclusive {
		if level, ok := tree.ParseLevel(name); ok {
			out[level] = v
		}
	}
	return out
}

// LoggingConfig controls the log file and level.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
	File  string `yaml:"file,omitempty"`  // defaults to the XDG state dir
}

// ResolvedFile returns the log path with ~ expanded, defaulting into the
// state directory.
func (l LoggingConfig) ResolvedFile() string {
	if l.File != "" {
		return expandHome(l.File)
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "tagview.log")
}

// Config is the top-level configuration for tagview.
type Config struct {
	Server     ServerConfig  `yaml:"server,omitempty"`
	Store      string        `yaml:"store,omitempty"` // warehouse selection sent as ?store=
	Type       string        `yaml:"type,omitempty"`  // inventory type sent as ?type=
	DefaultTab string        `yaml:"default_tab,omitempty"`
	Tabs       []Tab         `yaml:"tabs,omitempty"`
	UI         UIConfig      `yaml:"ui,omitempty"`
	Logging    LoggingConfig `yaml:"logging,omitempty"`
	SessionDB  string        `yaml:"session_db,omitempty"`
}

// Default returns a Config with sensible defaults: a local server and the
// two stock tabs.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:        "http://127.0.0.1:8000",
			TimeoutSeconds: 15,
		},
		Store: "main",
		Tabs: []Tab{
			{Name: "Inventory", Path: "tab1"},
			{Name: "Contracts", Path: "tab2", SkipSubcategory: true, ContractFilter: true},
		},
	}
}

// Validate checks the loaded configuration before the UI starts.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Tabs, validation.Required.Error("at least one tab is required"), validation.Skip),
	); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Tabs))
	for i, tab := range c.Tabs {
		if err := tab.Validate(); err != nil {
			return fmt.Errorf("tab %d: %w", i, err)
		}
		if seen[tab.Path] {
			return fmt.Errorf("tab %d: duplicate path %q", i, tab.Path)
		}
		seen[tab.Path] = true
	}
	return nil
}

// ConfigDir returns the XDG config directory for tagview.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tagview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tagview")
}

// StateDir returns the XDG state directory for tagview.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "tagview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "tagview")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// SessionPath returns the session database path, honoring the config
// override.
func (c Config) SessionPath() string {
	if c.SessionDB != "" {
		return expandHome(c.SessionDB)
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "session.db")
}

// FindTab returns the tab whose path or name matches, or nil.
func (c Config) FindTab(key string) *Tab {
	for i := range c.Tabs {
		if strings.EqualFold(c.Tabs[i].Path, key) || strings.EqualFold(c.Tabs[i].Name, key) {
			return &c.Tabs[i]
		}
	}
	return nil
}

// Load reads the config file from the XDG config directory.
// Returns Default if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns Default if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.SessionDB = expandHome(cfg.SessionDB)
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv applies the TAGVIEW_* environment overrides. godotenv loads
// .env before this runs, so both sources land here.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TAGVIEW_API_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("TAGVIEW_TAB"); v != "" {
		c.DefaultTab = v
	}
	if v := os.Getenv("TAGVIEW_SESSION_DB"); v != "" {
		c.SessionDB = expandHome(v)
	}
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
