package overseerr

import (
	"context"
)

// API defines the interface for Overseerr operations
type API interface {
	// TestConnection verifies the client can connect to Overseerr
	TestConnection(ctx context.Context) error

	GetStatus(ctx context.Context) (Status, error)
	GetMovieDetails(ctx context.Context, movieID int) (*MovieDetails, error)
	GetTVDetails(ctx context.Context, tvID int) (*TVDetails, error)
	GetSeasonDetails(ctx context.Context, tvID, seasonNumber int) (*SeasonDetails, error)

	// RequestMovie submits a movie request. A nil userID submits as the default user; a nil
	// serverID lets Overseerr pick its default library backend.
	RequestMovie(ctx context.Context, tmdbID int, userID, serverID *int) (map[string]any, error)

	// RequestTV submits a show request. An empty seasons list requests every season.
	RequestTV(ctx context.Context, tmdbID int, seasons []int, userID, serverID *int) (map[string]any, error)

	GetRequests(ctx context.Context, params RequestParams) (*RequestsResponse, error)
	SearchMedia(ctx context.Context, query string, page int) (*SearchResponse, error)

	LibraryLister
	UserLister

	// Close releases the session's connection. The next call opens a new one.
	Close() error
}

// LibraryLister lists the configured library backends.
type LibraryLister interface {
	GetRadarrSettings(ctx context.Context) ([]ServiceSettings, error)
	GetSonarrSettings(ctx context.Context) ([]ServiceSettings, error)
}

// UserLister fetches a page of users.
type UserLister interface {
	GetUsers(ctx context.Context, take, skip int) (*UsersResponse, error)
}

var _ API = (*Client)(nil)
