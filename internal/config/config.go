package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Well-known locations.
const (
	DefaultURL           = "https://dl.google.com/chrome/mac/universal/stable/GGRO/googlechrome.dmg"
	DefaultStagingPath   = "/tmp/googlechrome.dmg"
	DefaultMountPoint    = "/Volumes/Google Chrome"
	DefaultSourcePath    = DefaultMountPoint + "/Google Chrome.app/Contents/Frameworks/Google Chrome Framework.framework/Libraries/WidevineCdm"
	DefaultLibrariesPath = "/Applications/Chromium.app/Contents/Frameworks/Chromium Framework.framework/Libraries"
)

// Config defines configuration for the widevine-fetch CLI.
type Config struct {
	URL              string        `yaml:"url"`
	StagingPath      string        `yaml:"staging_path"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	KeepImage        bool          `yaml:"keep_image"`
	SkipInstall      bool          `yaml:"skip_install"`
	Install          InstallConfig `yaml:"install"`
	Logging          LoggingConfig `yaml:"logging"`
}

// InstallConfig defines where the CDM is copied from and to.
type InstallConfig struct {
	MountPoint    string `yaml:"mount_point"`
	SourcePath    string `yaml:"source_path"`
	LibrariesPath string `yaml:"libraries_path"`
}

// LoggingConfig defines diagnostic logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with the well-known locations.
func Default() Config {
	return Config{
		URL:              DefaultURL,
		StagingPath:      DefaultStagingPath,
		ProgressInterval: time.Second,
		Install: InstallConfig{
			MountPoint:    DefaultMountPoint,
			SourcePath:    DefaultSourcePath,
			LibrariesPath: DefaultLibrariesPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DestPath is where the WidevineCdm directory is copied to.
func (c *Config) DestPath() string {
	return filepath.Join(c.Install.LibrariesPath, "WidevineCdm")
}

// yamlConfig is used for YAML unmarshaling with a string interval.
type yamlConfig struct {
	URL              string        `yaml:"url"`
	StagingPath      string        `yaml:"staging_path"`
	ProgressInterval string        `yaml:"progress_interval"`
	KeepImage        bool          `yaml:"keep_image"`
	SkipInstall      bool          `yaml:"skip_install"`
	Install          InstallConfig `yaml:"install"`
	Logging          LoggingConfig `yaml:"logging"`
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	override := Config{
		URL:         yc.URL,
		StagingPath: yc.StagingPath,
		KeepImage:   yc.KeepImage,
		SkipInstall: yc.SkipInstall,
		Install:     yc.Install,
		Logging:     yc.Logging,
	}
	if yc.ProgressInterval != "" {
		d, err := time.ParseDuration(yc.ProgressInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parse progress_interval: %w", err)
		}
		override.ProgressInterval = d
	}

	return Default().Merge(override), nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the WIDEVINE_ prefix.
func (c *Config) LoadFromEnv() error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"WIDEVINE_URL", &c.URL},
		{"WIDEVINE_STAGING_PATH", &c.StagingPath},
		{"WIDEVINE_MOUNT_POINT", &c.Install.MountPoint},
		{"WIDEVINE_SOURCE_PATH", &c.Install.SourcePath},
		{"WIDEVINE_LIBRARIES_PATH", &c.Install.LibrariesPath},
		{"WIDEVINE_LOG_LEVEL", &c.Logging.Level},
		{"WIDEVINE_LOG_FORMAT", &c.Logging.Format},
	}
	for _, s := range strs {
		if v := os.Getenv(s.name); v != "" {
			*s.dst = v
		}
	}

	if v := os.Getenv("WIDEVINE_PROGRESS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse WIDEVINE_PROGRESS_INTERVAL: %w", err)
		}
		c.ProgressInterval = d
	}
	if v := os.Getenv("WIDEVINE_KEEP_IMAGE"); v != "" {
		c.KeepImage = v == "true" || v == "1"
	}
	if v := os.Getenv("WIDEVINE_SKIP_INSTALL"); v != "" {
		c.SkipInstall = v == "true" || v == "1"
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: url is required")
	}
	if c.StagingPath == "" {
		return errors.New("config: staging_path is required")
	}
	if c.ProgressInterval <= 0 {
		return errors.New("config: progress_interval must be positive")
	}
	if !c.SkipInstall {
		if c.Install.MountPoint == "" {
			return errors.New("config: install.mount_point is required")
		}
		if c.Install.SourcePath == "" {
			return errors.New("config: install.source_path is required")
		}
		if c.Install.LibrariesPath == "" {
			return errors.New("config: install.libraries_path is required")
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.URL != "" {
		c.URL = override.URL
	}
	if override.StagingPath != "" {
		c.StagingPath = override.StagingPath
	}
	if override.ProgressInterval != 0 {
		c.ProgressInterval = override.ProgressInterval
	}
	if override.KeepImage {
		c.KeepImage = override.KeepImage
	}
	if override.SkipInstall {
		c.SkipInstall = override.SkipInstall
	}
	if override.Install.MountPoint != "" {
		c.Install.MountPoint = override.Install.MountPoint
	}
	if override.Install.SourcePath != "" {
		c.Install.SourcePath = override.Install.SourcePath
	}
	if override.Install.LibrariesPath != "" {
		c.Install.LibrariesPath = override.Install.LibrariesPath
	}
	if override.Logging.Level != "" {
		c.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		c.Logging.Format = override.Logging.Format
	}
	return c
}
