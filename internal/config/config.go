// Package config handles configuration loading for agridash.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "AGRIDASH"

// Config represents the complete application configuration.
type Config struct {
	Data      DataConfig      `mapstructure:"data"      yaml:"data"      json:"data"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard" json:"dashboard"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"       json:"api"`
	Render    RenderConfig    `mapstructure:"render"    yaml:"render"    json:"render"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"   json:"logging"`

	// File is the config file that was read, empty when only defaults and
	// environment variables were used.
	File string `mapstructure:"-" yaml:"-" json:"-"`
}

// DataConfig holds the input file settings.
type DataConfig struct {
	Path      string `mapstructure:"path"      yaml:"path"      json:"path"`
	Watch     bool   `mapstructure:"watch"     yaml:"watch"     json:"watch"`
	ZeroArea  string `mapstructure:"zero_area" yaml:"zero_area" json:"zero_area"` // "nan" or "reject"
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter" json:"delimiter"`
}

// DashboardConfig holds page settings and per-view layout overrides.
type DashboardConfig struct {
	Title       string                `mapstructure:"title"        yaml:"title"        json:"title"`
	DefaultView string                `mapstructure:"default_view" yaml:"default_view" json:"default_view"`
	DefaultCrop string                `mapstructure:"default_crop" yaml:"default_crop" json:"default_crop"`
	Credits     string                `mapstructure:"credits"      yaml:"credits"      json:"credits"`       // sidebar "Contributed by" line
	SourceURL   string                `mapstructure:"source_url"   yaml:"source_url"   json:"source_url"`    // sidebar resources link
	Views       map[string]ViewConfig `mapstructure:"views"        yaml:"views"        json:"views,omitempty"`
}

// ViewConfig overrides parts of a built-in view layout. Empty fields keep
// the built-in value.
type ViewConfig struct {
	Title   string                `mapstructure:"title"    yaml:"title"    json:"title,omitempty"`
	XAxis   string                `mapstructure:"x_axis"   yaml:"x_axis"   json:"x_axis,omitempty"`
	YAxes   []string              `mapstructure:"y_axes"   yaml:"y_axes"   json:"y_axes,omitempty"`
	BarMode string                `mapstructure:"bar_mode" yaml:"bar_mode" json:"bar_mode,omitempty"`
	Series  []dashboard.SeriesDef `mapstructure:"series"   yaml:"series"   json:"series,omitempty"`
	Columns []string              `mapstructure:"columns"  yaml:"columns"  json:"columns,omitempty"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// RenderConfig holds chart rendering settings.
type RenderConfig struct {
	Width    int `mapstructure:"width"     yaml:"width"     json:"width"`     // pixels
	Height   int `mapstructure:"height"    yaml:"height"    json:"height"`    // pixels
	CacheTTL int `mapstructure:"cache_ttl" yaml:"cache_ttl" json:"cache_ttl"` // seconds, 0 disables
	Workers  int `mapstructure:"workers"   yaml:"workers"   json:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"` // "debug", "info", "warn", "error"
}

// RequestLogging reports whether HTTP requests should be logged.
func (l LoggingConfig) RequestLogging() bool {
	switch strings.ToLower(l.Level) {
	case "warn", "error":
		return false
	}
	return true
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.agridash/config.yaml (home directory)
//  3. /etc/agridash/config.yaml (system)
//
// Environment variables override config file values.
// Format: AGRIDASH_<SECTION>_<KEY>, e.g., AGRIDASH_DATA_PATH
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".agridash"))
	v.AddConfigPath("/etc/agridash")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.path", "data.csv")
	v.SetDefault("data.watch", false)
	v.SetDefault("data.zero_area", string(dataset.ZeroAreaNaN))
	v.SetDefault("data.delimiter", ",")

	// Dashboard defaults
	v.SetDefault("dashboard.title", "Agriculture in Bhutan")
	v.SetDefault("dashboard.default_view", string(dashboard.ViewProduction))
	v.SetDefault("dashboard.default_crop", "")
	v.SetDefault("dashboard.credits", "Lakey, ARED and Jimba, NCOA")
	v.SetDefault("dashboard.source_url", "https://github.com/JimbaRabgyal/Agriculture-Dashboard")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Render defaults
	v.SetDefault("render.width", 900)
	v.SetDefault("render.height", 500)
	v.SetDefault("render.cache_ttl", 300) // 5 minutes
	v.SetDefault("render.workers", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// overrideFromEnv applies variables set by hosting platforms.
func overrideFromEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.API.Port = p
		}
	}
}

// Validate checks values that would otherwise fail late at load or render
// time.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return errors.New("data.path is required")
	}
	if _, err := dataset.ParseZeroAreaPolicy(c.Data.ZeroArea); err != nil {
		return fmt.Errorf("data.zero_area: %w", err)
	}
	if _, err := c.Data.DelimiterRune(); err != nil {
		return err
	}
	if _, err := dashboard.ParseView(c.Dashboard.DefaultView); err != nil {
		return fmt.Errorf("dashboard.default_view: %w", err)
	}
	layouts, err := c.Dashboard.Layouts()
	if err != nil {
		return err
	}
	if _, err := dashboard.New(layouts); err != nil {
		return fmt.Errorf("dashboard.views: %w", err)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port: %d out of range", c.API.Port)
	}
	if c.Render.Workers < 1 {
		return fmt.Errorf("render.workers: must be at least 1, got %d", c.Render.Workers)
	}
	return nil
}

// LoadOptions returns the dataset options selected by the data section.
func (d DataConfig) LoadOptions() ([]dataset.LoadOption, error) {
	policy, err := dataset.ParseZeroAreaPolicy(d.ZeroArea)
	if err != nil {
		return nil, err
	}
	delim, err := d.DelimiterRune()
	if err != nil {
		return nil, err
	}
	return []dataset.LoadOption{dataset.WithZeroAreaPolicy(policy), dataset.WithDelimiter(delim)}, nil
}

// DelimiterRune returns the configured CSV delimiter. "\t" and "tab" both
// mean a tab.
func (d DataConfig) DelimiterRune() (rune, error) {
	switch d.Delimiter {
	case "", ",":
		return ',', nil
	case `\t`, "tab", "\t":
		return '\t', nil
	}
	r := []rune(d.Delimiter)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("data.delimiter: invalid delimiter %q", d.Delimiter)
	}
	return r[0], nil
}

// Layouts converts the view overrides to dashboard layouts, keyed by view.
func (d DashboardConfig) Layouts() (map[dashboard.View]dashboard.Layout, error) {
	out := make(map[dashboard.View]dashboard.Layout, len(d.Views))
	for key, vc := range d.Views {
		view, err := dashboard.ParseView(key)
		if err != nil {
			return nil, fmt.Errorf("dashboard.views: %w", err)
		}
		out[view] = dashboard.Layout{
			Title:   vc.Title,
			XAxis:   vc.XAxis,
			YAxes:   vc.YAxes,
			BarMode: vc.BarMode,
			Series:  vc.Series,
			Columns: vc.Columns,
		}
	}
	return out, nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
