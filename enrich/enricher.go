// Package enrich builds the library and user lookup tables once at startup.
//
// Fetches are best effort: each of the three sources (movie libraries, TV libraries, users)
// fails independently and leaves only its own table empty. Nothing here ever refreshes, so
// the tables reflect the backend configuration at process start.
package enrich

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// Source is the subset of the Overseerr API the enricher reads from.
type Source interface {
	overseerr.LibraryLister
	overseerr.UserLister
}

// Overrides replace the fetched library table of a kind. A nil slice means "fetch".
type Overrides struct {
	Movie []Library
	TV    []Library
}

// Enricher fetches and deduplicates lookup data.
type Enricher struct {
	source    Source
	overrides Overrides
	pageSize  int
	logger    zerolog.Logger
}

// New creates an Enricher.
func New(source Source, overrides Overrides, pageSize int, logger zerolog.Logger) *Enricher {
	if pageSize <= 0 {
		pageSize = overseerr.DefaultPageSize
	}
	return &Enricher{
		source:    source,
		overrides: overrides,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Build fetches all sources and returns the resulting tables. It never fails: every
// fetch error is logged and leaves the corresponding table empty.
func (e *Enricher) Build(ctx context.Context) *Tables {
	var (
		movie, tv       []Library
		users           []User
		movieErr, tvErr error
		usersErr        error
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		movie, movieErr = e.libraries(ctx, overseerr.MediaTypeMovie)
		return nil
	})
	g.Go(func() error {
		tv, tvErr = e.libraries(ctx, overseerr.MediaTypeTV)
		return nil
	})
	g.Go(func() error {
		var fetched []overseerr.User
		fetched, usersErr = e.fetchUsers(ctx)
		users = dedupeUsers(fetched, e.logger)
		return nil
	})

	g.Wait()

	if movieErr != nil {
		e.logger.Warn().Err(movieErr).Msg("Failed to fetch movie libraries, movie library names unavailable")
	}
	if tvErr != nil {
		e.logger.Warn().Err(tvErr).Msg("Failed to fetch TV libraries, TV library names unavailable")
	}
	if usersErr != nil {
		e.logger.Warn().Err(usersErr).Int("users_kept", len(users)).Msg("Failed to fetch all users")
	}
	if movieErr != nil && tvErr != nil && usersErr != nil && len(users) == 0 {
		e.logger.Error().Msg("Could not reach Overseerr during startup, name lookups are disabled")
	}

	e.logger.Info().
		Int("movie_libraries", len(movie)).
		Int("tv_libraries", len(tv)).
		Int("users", len(users)).
		Msg("Built lookup tables")

	return newTables(movie, tv, users)
}

func (e *Enricher) libraries(ctx context.Context, kind overseerr.MediaType) ([]Library, error) {
	override := e.overrides.TV
	fetch := e.source.GetSonarrSettings
	if kind.IsMovie() {
		override = e.overrides.Movie
		fetch = e.source.GetRadarrSettings
	}

	if override != nil {
		e.logger.Debug().Str("kind", string(kind)).Int("count", len(override)).Msg("Using configured library names")
		return dedupeLibraries(kind, override, e.logger), nil
	}

	servers, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	libs := make([]Library, 0, len(servers))
	for _, s := range servers {
		libs = append(libs, Library{ID: s.ID, Name: s.Name})
	}
	return dedupeLibraries(kind, libs, e.logger), nil
}

// fetchUsers pages through /user. The page count comes from the first response and the
// loop counts pages itself, so a server that repeats pageInfo.page still terminates. A
// failed page stops paging; users already collected are returned along with the error.
func (e *Enricher) fetchUsers(ctx context.Context) ([]overseerr.User, error) {
	var users []overseerr.User
	pages := 1

	for page := 1; page <= pages; page++ {
		skip := (page - 1) * e.pageSize
		resp, err := e.source.GetUsers(ctx, e.pageSize, skip)
		if err != nil {
			return users, fmt.Errorf("user page at offset %d: %w", skip, err)
		}
		if page == 1 {
			pages = resp.PageInfo.Pages
		}

		users = append(users, resp.Results...)

		e.logger.Debug().
			Int("page", page).
			Int("pages", pages).
			Int("total", len(users)).
			Msg("Retrieved users from Overseerr")

		if len(resp.Results) == 0 {
			break
		}
	}

	return users, nil
}

// dedupeLibraries keeps the first library of each name.
func dedupeLibraries(kind overseerr.MediaType, libs []Library, logger zerolog.Logger) []Library {
	seen := make(map[string]int, len(libs))
	out := make([]Library, 0, len(libs))

	for _, l := range libs {
		if first, dup := seen[l.Name]; dup {
			logger.Warn().
				Str("kind", string(kind)).
				Str("name", l.Name).
				Int("kept_id", first).
				Int("dropped_id", l.ID).
				Msg("Duplicate library name, keeping the first")
			continue
		}
		seen[l.Name] = l.ID
		out = append(out, l)
	}

	return out
}

// dedupeUsers maps users to their display names. A name held by more than one user is
// removed entirely and stays removed for any later occurrence.
func dedupeUsers(users []overseerr.User, logger zerolog.Logger) []User {
	kept := make(map[string]bool, len(users))
	ambiguous := make(map[string]bool)
	ordered := make([]User, 0, len(users))

	for _, u := range users {
		name := u.GetDisplayName()
		if name == "" || ambiguous[name] {
			continue
		}
		if kept[name] {
			logger.Warn().Str("name", name).Msg("Duplicate user display name, name cannot be used for lookups")
			delete(kept, name)
			ambiguous[name] = true
			continue
		}
		kept[name] = true
		ordered = append(ordered, User{ID: u.ID, DisplayName: name})
	}

	out := ordered[:0]
	for _, u := range ordered {
		if !ambiguous[u.DisplayName] {
			out = append(out, u)
		}
	}
	return out
}
