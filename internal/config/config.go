// Package config loads and validates gridcrawl configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/gridcrawl/internal/classify"
	"github.com/JakeFAU/gridcrawl/internal/extract"
)

// AppName names the XDG config directory and the environment prefix.
const AppName = "gridcrawl"

// DefaultCoordinatePattern captures the easting and northing of a Domesday
// GB grid cell URL.
const DefaultCoordinatePattern = `dblock/GB-(\d+)-(\d+)`

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Export  ExportConfig  `mapstructure:"export"`
}

// LogConfig locates the record log.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// DatasetConfig describes the grid being crawled.
type DatasetConfig struct {
	Name              string   `mapstructure:"name"`
	LinkPattern       string   `mapstructure:"link_pattern"`
	Labels            []string `mapstructure:"labels"`
	AbsentMarkers     []string `mapstructure:"absent_markers"`
	CoordinatePattern string   `mapstructure:"coordinate_pattern"`
	CellWidth         int      `mapstructure:"cell_width"`
	CellHeight        int      `mapstructure:"cell_height"`
}

// ServerConfig controls the optional status server. An empty Addr disables it.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features and the optional log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// ExportConfig selects where `gridcrawl export` copies the record log.
type ExportConfig struct {
	Bucket string `mapstructure:"bucket"`
	Dir    string `mapstructure:"dir"`
	Object string `mapstructure:"object"`
}

// Dir returns the XDG config directory for gridcrawl.
// On Linux: ~/.config/gridcrawl
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Load builds a Config from disk/environment. With an empty path, config.yaml
// is looked up in the working directory and then in Dir; a missing file there
// is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.path", "map.txt")
	v.SetDefault("http.user_agent", "gridcrawl/0.1")
	v.SetDefault("http.timeout_seconds", 0)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("dataset.name", "domesday-gb")
	v.SetDefault("dataset.link_pattern", extract.DefaultLinkPattern)
	v.SetDefault("dataset.labels", extract.DefaultLabels)
	v.SetDefault("dataset.absent_markers", classify.DefaultMarkers)
	v.SetDefault("dataset.coordinate_pattern", DefaultCoordinatePattern)
	v.SetDefault("dataset.cell_width", 4000)
	v.SetDefault("dataset.cell_height", 3000)
	v.SetDefault("server.addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.dir", "")
	v.SetDefault("export.object", "")
}

// Validate enforces required values and checks that every pattern compiles.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Log.Path) == "" {
		return fmt.Errorf("log.path must be set")
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must be >= 0")
	}
	if _, err := extract.New(c.Dataset.LinkPattern, c.Dataset.Labels); err != nil {
		return fmt.Errorf("dataset.link_pattern/labels: %w", err)
	}
	re, err := regexp.Compile(c.Dataset.CoordinatePattern)
	if err != nil {
		return fmt.Errorf("dataset.coordinate_pattern: %w", err)
	}
	if re.NumSubexp() < 2 {
		return fmt.Errorf("dataset.coordinate_pattern must capture two groups")
	}
	if c.Dataset.CellWidth <= 0 || c.Dataset.CellHeight <= 0 {
		return fmt.Errorf("dataset.cell_width and dataset.cell_height must be > 0")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Export.Bucket != "" && c.Export.Dir != "" {
		return fmt.Errorf("export.bucket and export.dir are mutually exclusive")
	}
	return nil
}

// Timeout converts http.timeout_seconds into a duration; zero means none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ExportObject returns the object name for exports, defaulting to the base
// name of the record log.
func (c Config) ExportObject() string {
	if c.Export.Object != "" {
		return c.Export.Object
	}
	return filepath.Base(c.Log.Path)
}
