package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen              = "127.0.0.1:8080"
	DefaultTimezone            = "America/New_York"
	DefaultExportPrefix        = "schedule"
	DefaultProductID           = "-//Lineup Planner//Festival Schedule//EN"
	DefaultCalendarName        = "Festival Schedule"
	DefaultEventMinutes        = 60
	DefaultLocationPlaceholder = "TBD"
	DefaultLogLevel            = "info"
)

// Person is a roster entry in the config file.
type Person struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color" json:"color"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the festival's IANA zone; calendar events are emitted in it.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Catalog is a path or http(s) URL. ".ics" sources are imported as
	// calendars, anything else is read as YAML. Empty selects the built-in lineup.
	Catalog string `yaml:"catalog" json:"catalog"`

	// People is the roster for catalogs that do not list their own, such as
	// imported .ics lineups. Empty falls back to the built-in roster.
	People []Person `yaml:"people,omitempty" json:"people,omitempty"`

	ExportPrefix        string `yaml:"export_prefix" json:"export_prefix"`
	ProductID           string `yaml:"product_id" json:"product_id"`
	CalendarName        string `yaml:"calendar_name" json:"calendar_name"`
	EventMinutes        int    `yaml:"event_minutes" json:"event_minutes"`
	LocationPlaceholder string `yaml:"location_placeholder" json:"location_placeholder"`
	LogLevel            string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              DefaultListen,
		Timezone:            DefaultTimezone,
		ExportPrefix:        DefaultExportPrefix,
		ProductID:           DefaultProductID,
		CalendarName:        DefaultCalendarName,
		EventMinutes:        DefaultEventMinutes,
		LocationPlaceholder: DefaultLocationPlaceholder,
		LogLevel:            DefaultLogLevel,
	}
}

// Normalize fills in missing/zero values so partially-filled files still work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.ExportPrefix == "" {
		c.ExportPrefix = DefaultExportPrefix
	}
	if c.ProductID == "" {
		c.ProductID = DefaultProductID
	}
	if c.CalendarName == "" {
		c.CalendarName = DefaultCalendarName
	}
	if c.EventMinutes <= 0 {
		c.EventMinutes = DefaultEventMinutes
	}
	if c.LocationPlaceholder == "" {
		c.LocationPlaceholder = DefaultLocationPlaceholder
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Location resolves Timezone. Unknown zones are an error, never a fallback.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// A missing file is created with defaults (0600) and the defaults are
// returned. An existing file is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file + rename.
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

	tmp, err := os.CreateTemp(dir, ".lineup-planner-config-*.tmp")
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

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
