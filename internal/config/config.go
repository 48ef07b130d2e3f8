package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultOutputDirectory is where images are created unless -o is given.
	DefaultOutputDirectory = "resized"
	// DefaultQuality is the encoder quality used unless -q is given.
	DefaultQuality = 95
)

// ErrConfiguration marks errors that abort a run before any file is processed.
var ErrConfiguration = errors.New("configuration error")

// Config represents the main configuration structure
type Config struct {
	OutputDirectory  string        `mapstructure:"output_directory"`
	Suffix           string        `mapstructure:"suffix"`
	Width            int           `mapstructure:"width"`  // 0 means computed from height
	Height           int           `mapstructure:"height"` // 0 means computed from width
	Format           string        `mapstructure:"format"` // empty means same as source
	Quality          int           `mapstructure:"quality"`
	AutoOrient       bool          `mapstructure:"auto_orient"`
	PreserveMetadata bool          `mapstructure:"preserve_metadata"`
	Logging          LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text or json
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		OutputDirectory: DefaultOutputDirectory,
		Quality:         DefaultQuality,
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches the default locations; a missing file there
// is not an error.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("imresize")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.imresize")
		v.AddConfigPath("/etc/imresize")
	}

	// Defaults make every key known to viper, so env overrides apply
	// even without a config file.
	setDefaults(v, config)

	v.SetEnvPrefix("IMRESIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("%w: error reading config file: %w", ErrConfiguration, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling config: %w", ErrConfiguration, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("output_directory", c.OutputDirectory)
	v.SetDefault("suffix", c.Suffix)
	v.SetDefault("width", c.Width)
	v.SetDefault("height", c.Height)
	v.SetDefault("format", c.Format)
	v.SetDefault("quality", c.Quality)
	v.SetDefault("auto_orient", c.AutoOrient)
	v.SetDefault("preserve_metadata", c.PreserveMetadata)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.file_path", c.Logging.FilePath)
	v.SetDefault("logging.max_size", c.Logging.MaxSize)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
	v.SetDefault("logging.max_age", c.Logging.MaxAge)
	v.SetDefault("logging.compress", c.Logging.Compress)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OutputDirectory == "" {
		return fmt.Errorf("%w: output_directory is required", ErrConfiguration)
	}

	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality must be between 1 and 100, got %d", ErrConfiguration, c.Quality)
	}

	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: size must be positive, got %d,%d", ErrConfiguration, c.Width, c.Height)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: invalid log level: %s (valid: debug, info, warn, error)", ErrConfiguration, c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: invalid log format: %s (valid: text, json)", ErrConfiguration, c.Logging.Format)
	}

	return nil
}

// WantsResize reports whether a target width or height was requested.
func (c *Config) WantsResize() bool {
	return c.Width > 0 || c.Height > 0
}

// ParseSize parses a "<width>,<height>" size argument. Either side may be
// empty, in which case 0 is returned for it, but not both.
func ParseSize(value string) (width, height int, err error) {
	w, h, found := strings.Cut(value, ",")
	if !found {
		return 0, 0, fmt.Errorf("%w: size %q must be <width>,<height>", ErrConfiguration, value)
	}

	if width, err = parseDimension(w); err != nil {
		return 0, 0, fmt.Errorf("%w: invalid width in %q: %w", ErrConfiguration, value, err)
	}
	if height, err = parseDimension(h); err != nil {
		return 0, 0, fmt.Errorf("%w: invalid height in %q: %w", ErrConfiguration, value, err)
	}

	if width == 0 && height == 0 {
		return 0, 0, fmt.Errorf("%w: size %q needs at least a width or a height", ErrConfiguration, value)
	}

	return width, height, nil
}

func parseDimension(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
