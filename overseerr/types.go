package overseerr

import (
	"fmt"
)

// MediaStatus is the availability of a movie or show on the media server.
type MediaStatus int

const (
	MediaStatusUnknown            MediaStatus = 1
	MediaStatusPending            MediaStatus = 2
	MediaStatusProcessing         MediaStatus = 3
	MediaStatusPartiallyAvailable MediaStatus = 4
	MediaStatusAvailable          MediaStatus = 5
)

// String returns the availability label; codes outside 1-5 map to UNKNOWN.
func (ms MediaStatus) String() string {
	switch ms {
	case MediaStatusPending:
		return "PENDING"
	case MediaStatusProcessing:
		return "PROCESSING"
	case MediaStatusPartiallyAvailable:
		return "PARTIALLY_AVAILABLE"
	case MediaStatusAvailable:
		return "AVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// RequestStatus represents the approval state of a media request
type RequestStatus int

const (
	// RequestStatusPending indicates a request waiting for approval
	RequestStatusPending RequestStatus = iota + 1
	// RequestStatusApproved indicates an approved request
	RequestStatusApproved
	// RequestStatusDeclined indicates a declined request
	RequestStatusDeclined
	// RequestStatusFailed indicates a request that could not be sent to a library backend
	RequestStatusFailed
	// RequestStatusCompleted indicates a fulfilled request
	RequestStatusCompleted
)

// String returns the string representation of a RequestStatus
func (rs RequestStatus) String() string {
	switch rs {
	case RequestStatusPending:
		return "PENDING"
	case RequestStatusApproved:
		return "APPROVED"
	case RequestStatusDeclined:
		return "DECLINED"
	case RequestStatusFailed:
		return "FAILED"
	case RequestStatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// MediaType represents the type of media
type MediaType string

const (
	// MediaTypeMovie represents a movie
	MediaTypeMovie MediaType = "movie"
	// MediaTypeTV represents a TV show
	MediaTypeTV MediaType = "tv"
)

// IsMovie checks if the media type is a movie
func (mt MediaType) IsMovie() bool {
	return mt == MediaTypeMovie
}

// PermissionAdmin is the permission bit that marks a user as an administrator.
const PermissionAdmin = 1024

// User represents an Overseerr user
type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username,omitempty"`
	PlexUsername string `json:"plexUsername,omitempty"`
	DisplayName  string `json:"displayName"`
	Permissions  int    `json:"permissions"`
	UserType     int    `json:"userType,omitempty"`
	RequestCount int    `json:"requestCount"`
}

// GetDisplayName returns the best available display name for the user
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	if u.PlexUsername != "" {
		return u.PlexUsername
	}
	return u.Email
}

// IsAdmin reports whether the admin permission bit is set.
func (u *User) IsAdmin() bool {
	return u.Permissions&PermissionAdmin != 0
}

// Role returns "Admin" or "User".
func (u *User) Role() string {
	if u.IsAdmin() {
		return "Admin"
	}
	return "User"
}

// Media represents media information in Overseerr
type Media struct {
	ID        int         `json:"id"`
	TmdbID    int         `json:"tmdbId"`
	TvdbID    int         `json:"tvdbId,omitempty"`
	ImdbID    string      `json:"imdbId,omitempty"`
	Status    MediaStatus `json:"status"`
	Status4k  MediaStatus `json:"status4k"`
	MediaType MediaType   `json:"mediaType"`
}

// IsTV reports whether the media carries a TVDB id. Requests are split into movies and
// shows on this id rather than on MediaType.
func (m *Media) IsTV() bool {
	return m.TvdbID != 0
}

// MediaRequest represents a media request in Overseerr. CreatedAt is kept as the raw
// ISO-8601 string so callers can compare it lexically.
type MediaRequest struct {
	ID            int           `json:"id"`
	Status        RequestStatus `json:"status"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
	Type          MediaType     `json:"type"`
	Is4k          bool          `json:"is4k"`
	ServerID      *int          `json:"serverId,omitempty"`
	IsAutoRequest bool          `json:"isAutoRequest"`
	RequestedBy   User          `json:"requestedBy"`
	ModifiedBy    *User         `json:"modifiedBy,omitempty"`
	Media         *Media        `json:"media"`
	Seasons       []Season      `json:"seasons,omitempty"`
}

// RequestedSeasons returns the set of season numbers named on the request.
func (mr *MediaRequest) RequestedSeasons() map[int]bool {
	seasons := make(map[int]bool, len(mr.Seasons))
	for _, s := range mr.Seasons {
		seasons[s.SeasonNumber] = true
	}
	return seasons
}

// Season represents a TV season request
type Season struct {
	ID           int           `json:"id"`
	SeasonNumber int           `json:"seasonNumber"`
	Status       RequestStatus `json:"status"`
}

// RequestsResponse represents the paginated response from the requests endpoint
type RequestsResponse struct {
	PageInfo PageInfo       `json:"pageInfo"`
	Results  []MediaRequest `json:"results"`
}

// UsersResponse represents the paginated response from the user endpoint
type UsersResponse struct {
	PageInfo PageInfo `json:"pageInfo"`
	Results  []User   `json:"results"`
}

// PageInfo contains pagination information
type PageInfo struct {
	Pages    int `json:"pages"`
	PageSize int `json:"pageSize"`
	Results  int `json:"results"`
	Page     int `json:"page"`
}

// RequestParams are the query parameters of GET /request.
type RequestParams struct {
	Filter string
	Take   int
	Skip   int
}

// MovieDetails is the subset of GET /movie/{id} used here.
type MovieDetails struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// SeasonSummary is a season entry of GET /tv/{id}.
type SeasonSummary struct {
	ID           int    `json:"id"`
	SeasonNumber *int   `json:"seasonNumber"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episodeCount"`
}

// TVDetails is the subset of GET /tv/{id} used here.
type TVDetails struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Seasons []SeasonSummary `json:"seasons"`
}

// Episode is an episode entry of GET /tv/{id}/season/{n}.
type Episode struct {
	ID            int    `json:"id"`
	EpisodeNumber int    `json:"episodeNumber"`
	Name          string `json:"name"`
	AirDate       string `json:"airDate,omitempty"`
}

// SeasonDetails is the response of GET /tv/{id}/season/{n}.
type SeasonDetails struct {
	ID           int       `json:"id"`
	SeasonNumber int       `json:"seasonNumber"`
	Name         string    `json:"name"`
	Episodes     []Episode `json:"episodes"`
}

// SearchResult is one hit of GET /search. Movie and TV hits share the struct; person
// hits only fill ID, MediaType and Name.
type SearchResult struct {
	ID               int       `json:"id"`
	MediaType        MediaType `json:"mediaType"`
	Title            string    `json:"title,omitempty"`
	OriginalTitle    string    `json:"originalTitle,omitempty"`
	ReleaseDate      string    `json:"releaseDate,omitempty"`
	Name             string    `json:"name,omitempty"`
	OriginalName     string    `json:"originalName,omitempty"`
	FirstAirDate     string    `json:"firstAirDate,omitempty"`
	OriginCountry    []string  `json:"originCountry,omitempty"`
	Overview         string    `json:"overview,omitempty"`
	OriginalLanguage string    `json:"originalLanguage,omitempty"`
	MediaInfo        *Media    `json:"mediaInfo,omitempty"`
}

// SearchResponse is the response of GET /search.
type SearchResponse struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalResults int            `json:"totalResults"`
	Results      []SearchResult `json:"results"`
}

// ServiceSettings is a configured Radarr or Sonarr library backend as returned by
// GET /settings/radarr and GET /settings/sonarr.
type ServiceSettings struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Hostname    string `json:"hostname"`
	Port        int    `json:"port"`
	APIKey      string `json:"apiKey"`
	UseSSL      bool   `json:"useSsl"`
	BaseURL     string `json:"baseUrl,omitempty"`
	Is4k        bool   `json:"is4k"`
	IsDefault   bool   `json:"isDefault"`
	ExternalURL string `json:"externalUrl,omitempty"`
}

// URL returns the address Overseerr uses to reach the backend.
func (s *ServiceSettings) URL() string {
	scheme := "http"
	if s.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, s.Hostname, s.Port, s.BaseURL)
}

// Status is the free-form payload of GET /status.
type Status map[string]any

// Version returns the reported server version, if any.
func (s Status) Version() (string, bool) {
	v, ok := s["version"]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}
