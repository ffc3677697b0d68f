// Package config loads the campusnav server configuration from a YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/campusnav/pkg/constraints"
	"github.com/dd0wney/campusnav/pkg/validation"
)

// Defaults
const (
	DefaultPort            = 8080
	DefaultSnapshot        = "data/campus.json"
	DefaultLogLevel        = "info"
	DefaultMaxBodyBytes    = 10 << 20
	DefaultShutdownTimeout = 30 * time.Second
	DefaultWatchDebounce   = 250 * time.Millisecond
	DefaultImageURL        = "/static/campus.png"
	DefaultEditedBy        = "editor"
	DefaultHistorySize     = 1000
)

// Config is the complete server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Map      MapConfig      `yaml:"map"`
	Editor   EditorConfig   `yaml:"editor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// SnapshotConfig selects where the campus document lives
type SnapshotConfig struct {
	// Location is a file path, file://, postgres:// or s3:// URL
	Location      string        `yaml:"location"`
	AllowInvalid  bool          `yaml:"allow_invalid"`
	Watch         bool          `yaml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	ShortSegmentM float64       `yaml:"short_segment_m"`
	S3            S3Config      `yaml:"s3"`
}

// S3Config configures s3:// snapshot locations
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// MapConfig describes the campus map image served to clients
type MapConfig struct {
	ImageURL string `yaml:"image_url"`
	// StaticDir, when set, is served under /static/
	StaticDir string `yaml:"static_dir"`
}

// EditorConfig controls the editing endpoints
type EditorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	EditedBy string `yaml:"edited_by"`
	// HistorySize is the number of edit history events kept in memory
	HistorySize int `yaml:"history_size"`
}

// LoggingConfig sets the log level
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path (if non-empty), applies environment overrides and
// defaults, and validates the result. A missing file is an error only when
// path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with PORT, CAMPUSNAV_SNAPSHOT, LOG_LEVEL
// and the CAMPUSNAV_S3_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := getenv("CAMPUSNAV_SNAPSHOT"); v != "" {
		c.Snapshot.Location = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("CAMPUSNAV_S3_REGION"); v != "" {
		c.Snapshot.S3.Region = v
	}
	if v := getenv("CAMPUSNAV_S3_ENDPOINT"); v != "" {
		c.Snapshot.S3.Endpoint = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Server.Port = validation.DefaultOrInt(c.Server.Port, DefaultPort)
	c.Server.ShutdownTimeout = validation.DefaultOrDuration(c.Server.ShutdownTimeout, DefaultShutdownTimeout)
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	c.Snapshot.Location = validation.DefaultOr(c.Snapshot.Location, DefaultSnapshot)
	c.Snapshot.WatchDebounce = validation.DefaultOrDuration(c.Snapshot.WatchDebounce, DefaultWatchDebounce)
	if c.Snapshot.ShortSegmentM <= 0 {
		c.Snapshot.ShortSegmentM = constraints.DefaultShortSegmentM
	}
	c.Map.ImageURL = validation.DefaultOr(c.Map.ImageURL, DefaultImageURL)
	c.Editor.EditedBy = validation.DefaultOr(c.Editor.EditedBy, DefaultEditedBy)
	c.Editor.HistorySize = validation.DefaultOrInt(c.Editor.HistorySize, DefaultHistorySize)
	c.Logging.Level = strings.ToLower(validation.DefaultOr(c.Logging.Level, DefaultLogLevel))
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	server := validation.NewConfigValidator("server").
		RangeInt("port", c.Server.Port, 1, 65535).
		MinDuration("shutdown_timeout", c.Server.ShutdownTimeout, time.Second).
		PositiveInt64("max_body_bytes", c.Server.MaxBodyBytes)

	snapshot := validation.NewConfigValidator("snapshot").
		Required("location", c.Snapshot.Location).
		PositiveFloat("short_segment_m", c.Snapshot.ShortSegmentM).
		When(c.Snapshot.Watch, func(v *validation.ConfigValidator) {
			v.MinDuration("watch_debounce", c.Snapshot.WatchDebounce, 10*time.Millisecond)
		})

	mapCfg := validation.NewConfigValidator("map").
		URL("image_url", c.Map.ImageURL)

	logging := validation.NewConfigValidator("logging").
		OneOf("level", c.Logging.Level, []string{"debug", "info", "warn", "warning", "error"})

	return errors.Join(server.Validate(), snapshot.Validate(), mapCfg.Validate(), logging.Validate())
}

// Addr returns host:port for the HTTP listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
