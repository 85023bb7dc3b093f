// Package config provides YAML-based configuration loading for classlive.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from classlive.yaml.
type Config struct {
	Workers  int            `yaml:"workers"`
	Timezone string         `yaml:"timezone"`
	Calendar CalendarConfig `yaml:"calendar"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Watch    WatchConfig    `yaml:"watch"`
	Serve    ServeConfig    `yaml:"serve"`
}

// CalendarConfig holds settings for the remote calendar service.
type CalendarConfig struct {
	BaseURL   string        `yaml:"base_url"`
	FID       int           `yaml:"fid"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
	UserAgent string        `yaml:"user_agent"`
}

// DatabaseConfig selects the account store. Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// WatchConfig holds the cron schedule for `lv watch`.
type WatchConfig struct {
	Schedule string `yaml:"schedule"`
	Previous bool   `yaml:"previous"`
}

// ServeConfig holds settings for `lv serve`.
type ServeConfig struct {
	Port int `yaml:"port"`
}

// cronParser accepts standard 5-field cron expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Load reads a YAML config file from path and returns a validated Config.
// A missing file yields the defaults. A .env file in the working directory
// and LV_* environment variables override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return parse(data, os.LookupEnv)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	return parse(data, func(string) (string, bool) { return "", false })
}

func parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides fields from LV_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"LV_TIMEZONE":          &c.Timezone,
		"LV_CALENDAR_BASE_URL": &c.Calendar.BaseURL,
		"LV_DB_DRIVER":         &c.Database.Driver,
		"LV_DB_PATH":           &c.Database.Path,
		"LV_DB_HOST":           &c.Database.Host,
		"LV_DB_USER":           &c.Database.User,
		"LV_DB_PASSWORD":       &c.Database.Password,
		"LV_DB_NAME":           &c.Database.Name,
		"LV_LOG_LEVEL":         &c.Log.Level,
		"LV_WATCH_SCHEDULE":    &c.Watch.Schedule,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LV_WORKERS":    &c.Workers,
		"LV_DB_PORT":    &c.Database.Port,
		"LV_SERVE_PORT": &c.Serve.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = 64
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Shanghai"
	}
	if c.Calendar.BaseURL == "" {
		c.Calendar.BaseURL = "http://newesxidian.chaoxing.com"
	}
	if c.Calendar.FID == 0 {
		c.Calendar.FID = 16820
	}
	if c.Calendar.Timeout == 0 {
		c.Calendar.Timeout = 15 * time.Second
	}
	if c.Calendar.Burst == 0 {
		c.Calendar.Burst = c.Workers
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = os.ExpandEnv("${HOME}/.classlive/classlive.db")
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "classlive"
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "*/10 8-21 * * 1-5"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 8080
	}
}

// validate checks that all fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("timezone %q is unknown", c.Timezone))
	}
	if !strings.HasPrefix(c.Calendar.BaseURL, "http://") && !strings.HasPrefix(c.Calendar.BaseURL, "https://") {
		errs = append(errs, "calendar.base_url must be an http(s) URL")
	}
	if c.Calendar.RateLimit < 0 {
		errs = append(errs, "calendar.rate_limit must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not sqlite or mysql", c.Database.Driver))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not debug, info, warn or error", c.Log.Level))
	}
	if _, err := cronParser.Parse(c.Watch.Schedule); err != nil {
		errs = append(errs, fmt.Sprintf("watch.schedule: %v", err))
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		errs = append(errs, "serve.port must be between 1 and 65535")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Location returns the configured time zone. It is valid after Load.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
