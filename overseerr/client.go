package overseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const apiPrefix = "/api/v1"

// allSeasons is the season list Overseerr reads as "every season".
var allSeasons = []int{-1}

// Client represents an Overseerr API client. The underlying http.Client is created on
// first use and dropped by Close, so a Client can be scoped to a single operation:
//
//	client, _ := overseerr.NewClient(url, key, logger)
//	defer client.Close()
//
// A Client is meant for sequential use.
type Client struct {
	baseURL        string
	apiKey         string
	defaultUserID  int
	pageSize       int
	connectTimeout time.Duration
	readTimeout    time.Duration
	logger         zerolog.Logger

	newConn    func() *http.Client
	httpClient *http.Client
}

// NewClient creates a new Overseerr client. No connection is made until the first request.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: overseerr URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: overseerr API key is required", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		defaultUserID:  DefaultUserID,
		pageSize:       DefaultPageSize,
		connectTimeout: DefaultConnectTimeout,
		readTimeout:    DefaultReadTimeout,
		logger:         logger,
	}
	c.newConn = c.defaultConn

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// PageSize returns the configured page size for paginated endpoints.
func (c *Client) PageSize() int {
	return c.pageSize
}

// DefaultUserID returns the user requests are submitted as when none is given.
func (c *Client) DefaultUserID() int {
	return c.defaultUserID
}

func (c *Client) defaultConn() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: c.connectTimeout}).DialContext
	transport.TLSHandshakeTimeout = c.connectTimeout
	transport.ResponseHeaderTimeout = c.readTimeout
	return &http.Client{Transport: transport}
}

// conn returns the live http.Client, creating it if the session is closed.
func (c *Client) conn() *http.Client {
	if c.httpClient == nil {
		c.httpClient = c.newConn()
	}
	return c.httpClient
}

// Close releases idle connections and ends the session.
func (c *Client) Close() error {
	if c.httpClient == nil {
		return nil
	}
	c.httpClient.CloseIdleConnections()
	c.httpClient = nil
	return nil
}

// Request performs an authenticated request against the /api/v1 surface and returns the
// raw JSON body. Empty 2xx bodies are replaced: mutating methods get a synthetic success
// record, everything else gets an empty object.
func (c *Client) Request(ctx context.Context, method, endpoint string, params url.Values, body any) ([]byte, error) {
	path := apiPrefix + endpoint
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Making Overseerr API request")

	resp, err := c.conn().Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, path, resp.StatusCode, data)
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return emptyBody(method, path), nil
	}

	if !json.Valid(data) {
		return nil, &PayloadError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       string(data),
			Err:        fmt.Errorf("response is not valid JSON"),
		}
	}

	return data, nil
}

func emptyBody(method, path string) []byte {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		body, _ := json.Marshal(map[string]string{
			"status":  "success",
			"message": fmt.Sprintf("Operation %s on %s successful.", method, path),
		})
		return body
	default:
		return []byte("{}")
	}
}

// call performs a request and decodes the body into out.
func (c *Client) call(ctx context.Context, method, endpoint string, params url.Values, body, out any) error {
	data, err := c.Request(ctx, method, endpoint, params, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &PayloadError{
			StatusCode: http.StatusOK,
			Method:     method,
			Path:       apiPrefix + endpoint,
			Body:       string(data),
			Err:        err,
		}
	}
	return nil
}

// TestConnection tests the connection to Overseerr
func (c *Client) TestConnection(ctx context.Context) error {
	// /auth/me validates both reachability and the API key
	var user User
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return err
	}

	c.logger.Debug().Str("user", user.GetDisplayName()).Msg("Successfully connected to Overseerr")
	return nil
}

// GetStatus returns the server status payload.
func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	var status Status
	if err := c.call(ctx, http.MethodGet, "/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetMovieDetails returns movie details by TMDB id.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int) (*MovieDetails, error) {
	var movie MovieDetails
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/movie/%d", movieID), nil, nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetTVDetails returns show details by TMDB id.
func (c *Client) GetTVDetails(ctx context.Context, tvID int) (*TVDetails, error) {
	var show TVDetails
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/tv/%d", tvID), nil, nil, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// GetSeasonDetails returns the episodes of one season of a show.
func (c *Client) GetSeasonDetails(ctx context.Context, tvID, seasonNumber int) (*SeasonDetails, error) {
	var season SeasonDetails
	endpoint := fmt.Sprintf("/tv/%d/season/%d", tvID, seasonNumber)
	if err := c.call(ctx, http.MethodGet, endpoint, nil, nil, &season); err != nil {
		return nil, err
	}
	return &season, nil
}

type mediaRequestBody struct {
	MediaType MediaType `json:"mediaType"`
	MediaID   int       `json:"mediaId"`
	Seasons   []int     `json:"seasons,omitempty"`
	UserID    int       `json:"userId"`
	ServerID  *int      `json:"serverId,omitempty"`
}

func (c *Client) requestingUser(userID *int) int {
	if userID != nil {
		return *userID
	}
	return c.defaultUserID
}

// RequestMovie submits a movie request.
func (c *Client) RequestMovie(ctx context.Context, tmdbID int, userID, serverID *int) (map[string]any, error) {
	body := mediaRequestBody{
		MediaType: MediaTypeMovie,
		MediaID:   tmdbID,
		UserID:    c.requestingUser(userID),
		ServerID:  serverID,
	}

	var result map[string]any
	if err := c.call(ctx, http.MethodPost, "/request", nil, body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// RequestTV submits a show request for the given seasons, or every season when none are given.
func (c *Client) RequestTV(ctx context.Context, tmdbID int, seasons []int, userID, serverID *int) (map[string]any, error) {
	if len(seasons) == 0 {
		seasons = allSeasons
	}

	body := mediaRequestBody{
		MediaType: MediaTypeTV,
		MediaID:   tmdbID,
		Seasons:   seasons,
		UserID:    c.requestingUser(userID),
		ServerID:  serverID,
	}

	var result map[string]any
	if err := c.call(ctx, http.MethodPost, "/request", nil, body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRequests fetches one page of requests.
func (c *Client) GetRequests(ctx context.Context, p RequestParams) (*RequestsResponse, error) {
	params := url.Values{}
	params.Set("take", strconv.Itoa(p.Take))
	params.Set("skip", strconv.Itoa(p.Skip))
	if p.Filter != "" {
		params.Set("filter", p.Filter)
	}

	var response RequestsResponse
	if err := c.call(ctx, http.MethodGet, "/request", params, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get requests: %w", err)
	}

	c.logger.Debug().
		Int("take", p.Take).
		Int("skip", p.Skip).
		Int("count", len(response.Results)).
		Msg("Retrieved requests from Overseerr")

	return &response, nil
}

// SearchMedia searches movies, shows and people.
func (c *Client) SearchMedia(ctx context.Context, query string, page int) (*SearchResponse, error) {
	// Overseerr rejects '+' as an encoded space in search queries
	endpoint := fmt.Sprintf("/search?query=%s&page=%d",
		strings.ReplaceAll(url.QueryEscape(query), "+", "%20"), page)

	var response SearchResponse
	if err := c.call(ctx, http.MethodGet, endpoint, nil, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetRadarrSettings lists the configured movie library backends.
func (c *Client) GetRadarrSettings(ctx context.Context) ([]ServiceSettings, error) {
	var servers []ServiceSettings
	if err := c.call(ctx, http.MethodGet, "/settings/radarr", nil, nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// GetSonarrSettings lists the configured TV library backends.
func (c *Client) GetSonarrSettings(ctx context.Context) ([]ServiceSettings, error) {
	var servers []ServiceSettings
	if err := c.call(ctx, http.MethodGet, "/settings/sonarr", nil, nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// GetUsers fetches one page of users.
func (c *Client) GetUsers(ctx context.Context, take, skip int) (*UsersResponse, error) {
	params := url.Values{}
	params.Set("take", strconv.Itoa(take))
	params.Set("skip", strconv.Itoa(skip))

	var response UsersResponse
	if err := c.call(ctx, http.MethodGet, "/user", params, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return &response, nil
}
