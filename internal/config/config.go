package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"eventfeed/internal/ics"
)

// FeedConfig holds the calendar-level metadata of the exported ICS feed.
type FeedConfig struct {
	ProdID       string `yaml:"prod_id" json:"prod_id"`
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`
	// UIDDomain is appended to event ids to form VEVENT UIDs.
	UIDDomain string `yaml:"uid_domain" json:"uid_domain"`
}

// SnapshotConfig controls the scheduled static copy of the ICS feed.
type SnapshotConfig struct {
	// Path is where events.ics is written. Empty disables snapshots.
	Path string `yaml:"path" json:"path"`
	// Cron is a standard 5-field schedule, e.g. "*/15 * * * *".
	Cron string `yaml:"cron" json:"cron"`
}

// ImportConfig holds defaults for `eventfeed import`.
type ImportConfig struct {
	CacheDir    string   `yaml:"cache_dir" json:"cache_dir"`
	HorizonDays int      `yaml:"horizon_days" json:"horizon_days"`
	RetryMax    int      `yaml:"retry_max" json:"retry_max"`
	Organizer   string   `yaml:"organizer" json:"organizer"`
	Country     string   `yaml:"country,omitempty" json:"country,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// EventsDir is the directory of YAML event records.
	EventsDir string `yaml:"events_dir" json:"events_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// SiteURL is the public base URL used for event permalinks.
	SiteURL string `yaml:"site_url" json:"site_url"`

	Feed     FeedConfig     `yaml:"feed" json:"feed"`
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
	Import   ImportConfig   `yaml:"import" json:"import"`

	// BasicAuth, if set with both fields, protects every endpoint except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultEventsDir    = "./data/events"
	defaultLogLevel     = "info"
	defaultSiteURL      = "https://iranarchive.net"
	defaultProdID       = "-//IranArchive//Events Feed//EN"
	defaultCalendarName = "Iran Archive Events"
	defaultUIDDomain    = "iranarchive.net"
	defaultSnapshotCron = "*/15 * * * *"
	defaultCacheDir     = "./var/ics-cache"
	defaultHorizonDays  = 90
	defaultRetryMax     = 3
	defaultOrganizer    = "Not specified"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    defaultListen,
		EventsDir: defaultEventsDir,
		LogLevel:  defaultLogLevel,
		SiteURL:   defaultSiteURL,
		Feed: FeedConfig{
			ProdID:       defaultProdID,
			CalendarName: defaultCalendarName,
			UIDDomain:    defaultUIDDomain,
		},
		Snapshot: SnapshotConfig{
			Cron: defaultSnapshotCron,
		},
		Import: ImportConfig{
			CacheDir:    defaultCacheDir,
			HorizonDays: defaultHorizonDays,
			RetryMax:    defaultRetryMax,
			Organizer:   defaultOrganizer,
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.EventsDir == "" {
		c.EventsDir = defaultEventsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.SiteURL == "" {
		c.SiteURL = defaultSiteURL
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")

	if c.Feed.ProdID == "" {
		c.Feed.ProdID = defaultProdID
	}
	if c.Feed.CalendarName == "" {
		c.Feed.CalendarName = defaultCalendarName
	}
	if c.Feed.UIDDomain == "" {
		c.Feed.UIDDomain = defaultUIDDomain
	}

	if c.Snapshot.Cron == "" {
		c.Snapshot.Cron = defaultSnapshotCron
	}

	if c.Import.CacheDir == "" {
		c.Import.CacheDir = defaultCacheDir
	}
	if c.Import.HorizonDays <= 0 {
		c.Import.HorizonDays = defaultHorizonDays
	}
	if c.Import.RetryMax < 0 {
		c.Import.RetryMax = 0
	}
	if c.Import.Organizer == "" {
		c.Import.Organizer = defaultOrganizer
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save normalizes cfg and writes it to path atomically via a temp file and
// rename, leaving the file with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventfeed-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
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

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// ICSFeed returns the feed metadata used when rendering events.ics.
func (c *Config) ICSFeed() ics.Feed {
	return ics.Feed{
		ProdID:       c.Feed.ProdID,
		CalendarName: c.Feed.CalendarName,
		UIDDomain:    c.Feed.UIDDomain,
		SiteURL:      c.SiteURL,
	}
}
