// Package config loads the cartridge tool configuration.
//
// Values come, lowest precedence first, from built-in defaults, a
// cartridge.yaml file and CARTRIDGE_* environment variables. The file is
// taken from --config when given, otherwise from the working directory,
// then from the user config directory. No file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/cartridge/internal/adapter"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "cartridge"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "cartridge"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CARTRIDGE"
)

// Config is the tool configuration.
type Config struct {
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Output   OutputConfig   `mapstructure:"output"`
	Package  PackageConfig  `mapstructure:"package"`
}

// DefaultsConfig holds creation defaults for optional fields.
type DefaultsConfig struct {
	AssignmentPoints int  `mapstructure:"assignment_points"`
	QuizPoints       int  `mapstructure:"quiz_points"`
	Published        bool `mapstructure:"published"`
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// PackageConfig controls the package command.
type PackageConfig struct {
	// Exclude lists path.Match patterns left out of the archive.
	Exclude []string `mapstructure:"exclude"`
}

// LoadOptions selects where configuration is read from.
type LoadOptions struct {
	// ConfigFilePath, when set, is the only file read and must exist.
	ConfigFilePath string

	// SearchDirs overrides the directories searched for cartridge.yaml.
	// Nil means the working directory followed by Dir().
	SearchDirs []string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	d := adapter.DefaultDefaults()
	return &Config{
		Defaults: DefaultsConfig{
			AssignmentPoints: d.AssignmentPoints,
			QuizPoints:       d.QuizPoints,
			Published:        d.Published,
		},
		Output:  OutputConfig{Format: "text"},
		Package: PackageConfig{Exclude: []string{".DS_Store", "*.imscc"}},
	}
}

// Dir returns the user configuration directory ($XDG_CONFIG_HOME/cartridge,
// falling back to ~/.config/cartridge).
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// Load reads the configuration. It returns the config and the path of the
// file used, "" when only defaults and environment applied.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("defaults.assignment_points", defaults.Defaults.AssignmentPoints)
	v.SetDefault("defaults.quiz_points", defaults.Defaults.QuizPoints)
	v.SetDefault("defaults.published", defaults.Defaults.Published)
	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("package.exclude", defaults.Package.Exclude)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFilePath != "" {
		if _, err := os.Stat(opts.ConfigFilePath); err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		v.SetConfigFile(opts.ConfigFilePath)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		dirs := opts.SearchDirs
		if dirs == nil {
			dirs = []string{"."}
			if d, err := Dir(); err == nil {
				dirs = append(dirs, d)
			}
		}
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, v.ConfigFileUsed(), nil
}

// Validate checks value ranges viper cannot express.
func (c *Config) Validate() error {
	if c.Defaults.AssignmentPoints < 0 {
		return fmt.Errorf("defaults.assignment_points must not be negative, got %d", c.Defaults.AssignmentPoints)
	}
	if c.Defaults.QuizPoints < 0 {
		return fmt.Errorf("defaults.quiz_points must not be negative, got %d", c.Defaults.QuizPoints)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	return nil
}

// AdapterDefaults converts the creation defaults for the engine.
func (c *Config) AdapterDefaults() adapter.Defaults {
	return adapter.Defaults{
		AssignmentPoints: c.Defaults.AssignmentPoints,
		QuizPoints:       c.Defaults.QuizPoints,
		Published:        c.Defaults.Published,
	}
}
