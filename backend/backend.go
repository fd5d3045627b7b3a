// Package backend checks the Radarr and Sonarr servers Overseerr routes requests to.
//
// Overseerr stores the connection details of every library backend, including its API
// key, so the checks reuse them instead of needing separate configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golift.io/starr"
	"golift.io/starr/radarr"
	"golift.io/starr/sonarr"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// MaxConcurrency limits simultaneous backend checks.
const MaxConcurrency = 4

// StatusFunc fetches the version of one backend.
type StatusFunc func(ctx context.Context, cfg *starr.Config) (string, error)

// Health is the result of checking one backend.
type Health struct {
	Kind    overseerr.MediaType
	ID      int
	Name    string
	URL     string
	Version string
	Latency time.Duration
	Err     error
}

// OK reports whether the backend answered.
func (h Health) OK() bool {
	return h.Err == nil
}

// Checker pings library backends.
type Checker struct {
	timeout time.Duration
	logger  zerolog.Logger
	status  map[overseerr.MediaType]StatusFunc
}

// NewChecker creates a Checker using the starr Radarr and Sonarr clients.
func NewChecker(timeout time.Duration, logger zerolog.Logger) *Checker {
	return &Checker{
		timeout: timeout,
		logger:  logger,
		status: map[overseerr.MediaType]StatusFunc{
			overseerr.MediaTypeMovie: radarrStatus,
			overseerr.MediaTypeTV:    sonarrStatus,
		},
	}
}

func radarrStatus(ctx context.Context, cfg *starr.Config) (string, error) {
	status, err := radarr.New(cfg).GetSystemStatusContext(ctx)
	if err != nil {
		return "", err
	}
	return status.Version, nil
}

func sonarrStatus(ctx context.Context, cfg *starr.Config) (string, error) {
	status, err := sonarr.New(cfg).GetSystemStatusContext(ctx)
	if err != nil {
		return "", err
	}
	return status.Version, nil
}

// Check pings every backend of the given kind and returns one Health per server, in order.
func (c *Checker) Check(ctx context.Context, kind overseerr.MediaType, servers []overseerr.ServiceSettings) []Health {
	results := make([]Health, len(servers))
	statusFn, ok := c.status[kind]
	if !ok {
		for i, s := range servers {
			results[i] = Health{Kind: kind, ID: s.ID, Name: s.Name, URL: s.URL(), Err: fmt.Errorf("unsupported media type %q", kind)}
		}
		return results
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrency)

	for i, s := range servers {
		g.Go(func() error {
			h := Health{Kind: kind, ID: s.ID, Name: s.Name, URL: s.URL()}

			start := time.Now()
			h.Version, h.Err = statusFn(ctx, starr.New(s.APIKey, h.URL, c.timeout))
			h.Latency = time.Since(start)

			if h.Err != nil {
				c.logger.Warn().
					Err(h.Err).
					Str("kind", string(kind)).
					Str("name", s.Name).
					Str("url", h.URL).
					Msg("Library backend check failed")
			} else {
				c.logger.Debug().
					Str("kind", string(kind)).
					Str("name", s.Name).
					Str("version", h.Version).
					Dur("latency", h.Latency).
					Msg("Library backend reachable")
			}

			// each goroutine owns its slot
			results[i] = h
			return nil
		})
	}

	g.Wait()
	return results
}
