package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.URL != DefaultURL {
		t.Errorf("expected default URL %s, got %s", DefaultURL, cfg.URL)
	}
	if cfg.StagingPath != "/tmp/googlechrome.dmg" {
		t.Errorf("expected default staging path /tmp/googlechrome.dmg, got %s", cfg.StagingPath)
	}
	if cfg.ProgressInterval != time.Second {
		t.Errorf("expected default progress interval 1s, got %v", cfg.ProgressInterval)
	}
	if cfg.Install.MountPoint != "/Volumes/Google Chrome" {
		t.Errorf("unexpected default mount point %s", cfg.Install.MountPoint)
	}
	if want := "/Applications/Chromium.app/Contents/Frameworks/Chromium Framework.framework/Libraries/WidevineCdm"; cfg.DestPath() != want {
		t.Errorf("expected dest path %s, got %s", want, cfg.DestPath())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
url: https://example.com/chrome.dmg
staging_path: /var/tmp/chrome.dmg
progress_interval: 250ms
keep_image: true
install:
  mount_point: /Volumes/Chrome Beta
logging:
  level: debug
  format: json
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.URL != "https://example.com/chrome.dmg" {
		t.Errorf("unexpected URL %s", cfg.URL)
	}
	if cfg.StagingPath != "/var/tmp/chrome.dmg" {
		t.Errorf("unexpected staging path %s", cfg.StagingPath)
	}
	if cfg.ProgressInterval != 250*time.Millisecond {
		t.Errorf("expected progress interval 250ms, got %v", cfg.ProgressInterval)
	}
	if !cfg.KeepImage {
		t.Error("expected keep_image true")
	}
	if cfg.SkipInstall {
		t.Error("expected skip_install false")
	}
	if cfg.Install.MountPoint != "/Volumes/Chrome Beta" {
		t.Errorf("unexpected mount point %s", cfg.Install.MountPoint)
	}
	if cfg.Install.LibrariesPath != DefaultLibrariesPath {
		t.Errorf("expected default libraries path preserved, got %s", cfg.Install.LibrariesPath)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadFromYAMLInvalidInterval(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("progress_interval: soon\n"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid progress_interval")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WIDEVINE_URL", "https://mirror.example.com/chrome.dmg")
	t.Setenv("WIDEVINE_STAGING_PATH", "/private/tmp/chrome.dmg")
	t.Setenv("WIDEVINE_PROGRESS_INTERVAL", "5s")
	t.Setenv("WIDEVINE_SKIP_INSTALL", "1")
	t.Setenv("WIDEVINE_LIBRARIES_PATH", "/Users/me/Applications/Chromium.app/Libraries")
	t.Setenv("WIDEVINE_LOG_LEVEL", "warn")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.URL != "https://mirror.example.com/chrome.dmg" {
		t.Errorf("unexpected URL %s", cfg.URL)
	}
	if cfg.StagingPath != "/private/tmp/chrome.dmg" {
		t.Errorf("unexpected staging path %s", cfg.StagingPath)
	}
	if cfg.ProgressInterval != 5*time.Second {
		t.Errorf("expected progress interval 5s, got %v", cfg.ProgressInterval)
	}
	if !cfg.SkipInstall {
		t.Error("expected skip install true")
	}
	if cfg.Install.LibrariesPath != "/Users/me/Applications/Chromium.app/Libraries" {
		t.Errorf("unexpected libraries path %s", cfg.Install.LibrariesPath)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Install.MountPoint != DefaultMountPoint {
		t.Errorf("expected default mount point preserved, got %s", cfg.Install.MountPoint)
	}
}

func TestLoadFromEnvInvalidInterval(t *testing.T) {
	t.Setenv("WIDEVINE_PROGRESS_INTERVAL", "often")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for invalid WIDEVINE_PROGRESS_INTERVAL")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing URL", func(c *Config) { c.URL = "" }, true},
		{"missing staging path", func(c *Config) { c.StagingPath = "" }, true},
		{"zero interval", func(c *Config) { c.ProgressInterval = 0 }, true},
		{"missing mount point", func(c *Config) { c.Install.MountPoint = "" }, true},
		{"missing source path", func(c *Config) { c.Install.SourcePath = "" }, true},
		{"missing libraries path", func(c *Config) { c.Install.LibrariesPath = "" }, true},
		{"install paths unused when skipped", func(c *Config) {
			c.SkipInstall = true
			c.Install = InstallConfig{}
		}, false},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()

	override := Config{
		StagingPath: "/var/tmp/chrome.dmg",
		KeepImage:   true,
		Logging:     LoggingConfig{Format: "json"},
	}

	merged := base.Merge(override)

	if merged.URL != DefaultURL {
		t.Errorf("expected URL preserved, got %s", merged.URL)
	}
	if merged.ProgressInterval != time.Second {
		t.Errorf("expected ProgressInterval preserved, got %v", merged.ProgressInterval)
	}
	if merged.Logging.Level != "info" {
		t.Errorf("expected log level preserved, got %s", merged.Logging.Level)
	}

	if merged.StagingPath != "/var/tmp/chrome.dmg" {
		t.Errorf("expected StagingPath overridden, got %s", merged.StagingPath)
	}
	if !merged.KeepImage {
		t.Error("expected KeepImage overridden")
	}
	if merged.Logging.Format != "json" {
		t.Errorf("expected log format overridden, got %s", merged.Logging.Format)
	}
}

func TestLoadYAMLFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
