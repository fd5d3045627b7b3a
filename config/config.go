package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/s0up4200/overseerr-mcp/enrich"
	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// Load loads the configuration from file and environment. A config file is optional when
// no explicit path is given.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "overseerr-mcp"))
		}

		// Check /etc
		v.AddConfigPath("/etc/overseerr-mcp/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Overseerr defaults
	v.SetDefault("overseerr.url", "")
	v.SetDefault("overseerr.api_key", "")
	v.SetDefault("overseerr.request_user_id", "1")
	v.SetDefault("overseerr.connect_timeout", overseerr.DefaultConnectTimeout)
	v.SetDefault("overseerr.read_timeout", overseerr.DefaultReadTimeout)
	v.SetDefault("overseerr.page_size", overseerr.DefaultPageSize)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// bindEnv maps the conventional variable names onto config keys. Every other key can be
// set as OVERSEERR_<SECTION>_<KEY>.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("overseerr")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"overseerr.url":             {"OVERSEERR_URL"},
		"overseerr.api_key":         {"OVERSEERR_API_KEY"},
		"overseerr.request_user_id": {"REQUEST_USER_ID", "OVERSEERR_REQUEST_USER_ID"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Overseerr.URL == "" {
		return fmt.Errorf("overseerr.url is required (or set OVERSEERR_URL)")
	}
	u, err := url.Parse(cfg.Overseerr.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("overseerr.url must be an http(s) URL: %s", cfg.Overseerr.URL)
	}

	if cfg.Overseerr.APIKey == "" || cfg.Overseerr.APIKey == "your-api-key-here" {
		return fmt.Errorf("overseerr.api_key must be set to a valid API key (or set OVERSEERR_API_KEY)")
	}

	if cfg.Overseerr.ConnectTimeout <= 0 {
		return fmt.Errorf("overseerr.connect_timeout must be positive")
	}
	if cfg.Overseerr.ReadTimeout <= 0 {
		return fmt.Errorf("overseerr.read_timeout must be positive")
	}
	if cfg.Overseerr.PageSize <= 0 {
		return fmt.Errorf("overseerr.page_size must be positive")
	}

	for kind, libs := range map[string][]LibraryOverride{"movie": cfg.Libraries.Movie, "tv": cfg.Libraries.TV} {
		for i, l := range libs {
			if strings.TrimSpace(l.Name) == "" {
				return fmt.Errorf("libraries.%s[%d].name is required", kind, i)
			}
			if l.ID < 0 {
				return fmt.Errorf("libraries.%s[%d].id must not be negative", kind, i)
			}
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// Overrides converts the configured library lists for the enricher. Kinds without
// entries stay nil so they are fetched.
func (c LibrariesConfig) Overrides() enrich.Overrides {
	convert := func(libs []LibraryOverride) []enrich.Library {
		if len(libs) == 0 {
			return nil
		}
		out := make([]enrich.Library, 0, len(libs))
		for _, l := range libs {
			out = append(out, enrich.Library{ID: l.ID, Name: l.Name})
		}
		return out
	}
	return enrich.Overrides{Movie: convert(c.Movie), TV: convert(c.TV)}
}
