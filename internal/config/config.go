package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"agenda/internal/style"
)

const (
	DefaultListen      = "127.0.0.1:8080"
	DefaultDataPath    = "agenda.yaml"
	DefaultRefreshCron = "*/5 * * * *"
	DefaultICSCacheDir = "ics-cache"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// GridConfig controls the day/week time grid.
type GridConfig struct {
	// PixelsPerHour converts grid units (minutes) to pixels for clients
	// that do not scale themselves.
	PixelsPerHour float64 `yaml:"pixels_per_hour" json:"pixels_per_hour"`
}

// ColorConfig controls display color resolution.
type ColorConfig struct {
	Action  string `yaml:"action" json:"action"`
	Meeting string `yaml:"meeting" json:"meeting"`

	// MatchNames also matches legacy tag names in addition to tag IDs.
	MatchNames bool `yaml:"match_names" json:"match_names"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// DataPath is the snapshot file holding actions, meetings, entries,
	// tags and settings. Relative paths are resolved against the config
	// file's directory.
	DataPath string `yaml:"data_path" json:"data_path"`

	// WeekStart controls which weekday starts a week view:
	//   - "monday" (default)
	//   - "sunday"
	// Weekly accounting balances always run Monday to Sunday.
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a standard 5-field cron schedule on which the server
	// reloads the snapshot file.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ICSCacheDir keeps the last downloaded body of every imported feed URL.
	// Relative paths are resolved like DataPath.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// LogLevel is one of "debug", "info" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFile, if set, additionally writes JSON logs to a rotated file.
	LogFile string `yaml:"log_file,omitempty" json:"log_file,omitempty"`

	Grid   GridConfig  `yaml:"grid" json:"grid"`
	Colors ColorConfig `yaml:"colors" json:"colors"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      DefaultListen,
		DataPath:    DefaultDataPath,
		WeekStart:   "monday",
		RefreshCron: DefaultRefreshCron,
		ICSCacheDir: DefaultICSCacheDir,
		LogLevel:    "info",
		Grid:        GridConfig{PixelsPerHour: 60},
		Colors: ColorConfig{
			Action:     style.DefaultActionColor,
			Meeting:    style.DefaultMeetingColor,
			MatchNames: true,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DataPath == "" {
		c.DataPath = DefaultDataPath
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = DefaultICSCacheDir
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = "info"
	}
	if c.Grid.PixelsPerHour <= 0 {
		c.Grid.PixelsPerHour = 60
	}
	if _, ok := style.Saturation(c.Colors.Action); !ok {
		c.Colors.Action = style.DefaultActionColor
	}
	if _, ok := style.Saturation(c.Colors.Meeting); !ok {
		c.Colors.Meeting = style.DefaultMeetingColor
	}
}

// Validate reports settings that cannot be defaulted away.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("refresh: invalid cron %q: %w", c.RefreshCron, err)
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		return errors.New("basic_auth: username is empty")
	}
	return nil
}

// ResolveDataPath returns DataPath relative to the directory of the config
// file at configPath.
func (c *Config) ResolveDataPath(configPath string) string {
	return resolve(c.DataPath, configPath)
}

// ResolveICSCacheDir is ResolveDataPath for ICSCacheDir.
func (c *Config) ResolveICSCacheDir(configPath string) string {
	return resolve(c.ICSCacheDir, configPath)
}

func resolve(p, configPath string) string {
	if filepath.IsAbs(p) || configPath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save normalizes cfg and writes it to path atomically with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}


// WriteFileAtomic writes data next to path in a temp file and renames it
// over path, so readers never observe a partial file. The parent directory
// is created with 0700 and the file ends up with 0600.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".agenda-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Resolver builds the color resolver described by Colors.
func (c *Config) Resolver() *style.Resolver {
	r := style.NewResolver()
	r.ActionColor = c.Colors.Action
	r.MeetingColor = c.Colors.Meeting
	if !c.Colors.MatchNames {
		r.Strategies = []style.Strategy{style.ByID{}}
	}
	return r
}
