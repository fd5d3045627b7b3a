package config

import (
	"strconv"
	"strings"
	"time"
)

// Config represents the complete configuration structure
type Config struct {
	Overseerr OverseerrConfig `mapstructure:"overseerr"`
	Libraries LibrariesConfig `mapstructure:"libraries"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// OverseerrConfig holds Overseerr API connection details
type OverseerrConfig struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestUserID  string        `mapstructure:"request_user_id"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	PageSize       int           `mapstructure:"page_size"`
}

// DefaultRequestUserID is used when request_user_id is missing or not a number.
const DefaultRequestUserID = 1

// UserID returns the default requesting user. ok is false when the configured value was
// not a positive integer and the fallback was used.
func (o OverseerrConfig) UserID() (id int, ok bool) {
	id, err := strconv.Atoi(strings.TrimSpace(o.RequestUserID))
	if err != nil || id <= 0 {
		return DefaultRequestUserID, false
	}
	return id, true
}

// LibrariesConfig replaces the library tables fetched from Overseerr. A kind that is not
// configured is fetched.
type LibrariesConfig struct {
	Movie []LibraryOverride `mapstructure:"movie"`
	TV    []LibraryOverride `mapstructure:"tv"`
}

// LibraryOverride names a Radarr or Sonarr server id.
type LibraryOverride struct {
	Name string `mapstructure:"name"`
	ID   int    `mapstructure:"id"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
