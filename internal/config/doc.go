// Package config defines configuration for the widevine-fetch CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (WIDEVINE_ prefix)
//   - YAML configuration file
//
// Defaults carry the well-known locations, so an empty configuration
// downloads the stable universal Chrome image to /tmp/googlechrome.dmg and
// installs into /Applications/Chromium.app.
//
// # Structure
//
//	type Config struct {
//	    URL              string
//	    StagingPath      string
//	    ProgressInterval time.Duration
//	    KeepImage        bool
//	    SkipInstall      bool
//	    Install          InstallConfig
//	    Logging          LoggingConfig
//	}
package config
