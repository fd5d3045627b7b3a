package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/overseerr-mcp/enrich"
	"github.com/s0up4200/overseerr-mcp/filter"
	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// fakeOverseerr serves canned /api/v1 responses and records what it was asked.
type fakeOverseerr struct {
	*httptest.Server

	mu      sync.Mutex
	hits    []string
	queries map[string]string
	bodies  []map[string]any
}

func newFakeOverseerr(t *testing.T, routes map[string]http.HandlerFunc) *fakeOverseerr {
	t.Helper()

	f := &fakeOverseerr{queries: map[string]string{}}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits = append(f.hits, r.Method+" "+r.URL.Path)
		f.queries[r.URL.Path] = r.URL.RawQuery
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				var body map[string]any
				_ = json.Unmarshal(data, &body)
				f.bodies = append(f.bodies, body)
			}
		}
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOverseerr) Hits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

func (f *fakeOverseerr) Query(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func (f *fakeOverseerr) Bodies() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.bodies...)
}

func (f *fakeOverseerr) deps(tables *enrich.Tables) *Deps {
	return &Deps{
		Connect: func() (overseerr.API, error) {
			return overseerr.NewClient(f.URL, "test-key", zerolog.Nop(), overseerr.WithDefaultUserID(7))
		},
		Tables:  tables,
		Filters: filter.NewCompiler(8),
		Logger:  zerolog.Nop(),
	}
}

func jsonResponse(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
}

func errorResponse(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, `{"message":"boom"}`)
	}
}

func call(t *testing.T, tool Tool, args map[string]any) Result {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = tool.Definition().Name
	req.Params.Arguments = args
	return tool.Call(context.Background(), req)
}

// decode round-trips a result value through JSON so tests can assert on the wire shape.
func decode[T any](t *testing.T, res Result) T {
	t.Helper()
	require.False(t, res.Failed(), "unexpected failure: %s", res.Err)

	data, err := json.Marshal(res.Value)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestStatusTool(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"GET /api/v1/status": jsonResponse(`{"version":"1.33.2","commitTag":"v1.33.2","updateAvailable":false}`),
		})

		res := call(t, &StatusTool{deps: srv.deps(nil)}, nil)
		require.False(t, res.Failed())
		assert.Equal(t,
			"\n---\nOverseerr is available and these are the status data:\n"+
				"\n- commitTag: v1.33.2\n- updateAvailable: false\n- version: 1.33.2",
			res.Value)
	})

	t.Run("no version", func(t *testing.T) {
		srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"GET /api/v1/status": jsonResponse(`{"error":"maintenance"}`),
		})

		res := call(t, &StatusTool{deps: srv.deps(nil)}, nil)
		require.False(t, res.Failed())
		assert.Contains(t, res.Value, "Overseerr is not available")
		assert.Contains(t, res.Value, "- error: maintenance")
	})

	t.Run("backend error", func(t *testing.T) {
		srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"GET /api/v1/status": errorResponse(http.StatusInternalServerError),
		})

		res := call(t, &StatusTool{deps: srv.deps(nil)}, nil)
		require.True(t, res.Failed())
		assert.Contains(t, res.Err, "Error fetching status")
		assert.Contains(t, res.Err, "boom")
	})
}

const requestsPage = `{
  "pageInfo": {"pages": 1, "pageSize": 7, "results": 5, "page": 1},
  "results": [
    {"id": 1, "status": 2, "createdAt": "2024-03-01T10:00:00.000Z", "media": {"tmdbId": 693134, "status": 5}},
    {"id": 2, "status": 2, "createdAt": "2024-03-02T10:00:00.000Z", "media": {"tmdbId": 1399, "tvdbId": 121361, "status": 4,
      "seasons": [{"seasonNumber": 1, "status": 5}]},
      "seasons": [{"id": 10, "seasonNumber": 1, "status": 2}, {"id": 11, "seasonNumber": 2, "status": 2}]},
    {"id": 3, "status": 1, "createdAt": "2023-12-24T10:00:00.000Z", "media": {"tmdbId": 550, "status": 2}},
    {"id": 4, "status": 1, "createdAt": "2024-03-03T10:00:00.000Z", "media": {"tmdbId": 999, "status": 9}},
    {"id": 5, "status": 1, "createdAt": "2024-03-04T10:00:00.000Z"}
  ]
}`

func TestMovieRequestsTool(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/request":      jsonResponse(requestsPage),
		"GET /api/v1/movie/693134": jsonResponse(`{"id":693134,"title":"Dune: Part Two"}`),
		"GET /api/v1/movie/550":    jsonResponse(`{"id":550,"title":"Fight Club"}`),
		"GET /api/v1/movie/999":    errorResponse(http.StatusNotFound),
	})
	tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeMovie}

	rows := decode[[]map[string]string](t, call(t, tool, nil))
	assert.Equal(t, []map[string]string{
		{"title": "Dune: Part Two", "media_availability": "AVAILABLE", "request_date": "2024-03-01T10:00:00.000Z"},
		{"title": "Fight Club", "media_availability": "PENDING", "request_date": "2023-12-24T10:00:00.000Z"},
		{"title": "Unknown Movie (ID: 999)", "media_availability": "UNKNOWN", "request_date": "2024-03-03T10:00:00.000Z"},
	}, rows)
	assert.Equal(t, "skip=0&take=7", srv.Query("/api/v1/request"))
	assert.NotContains(t, srv.Hits(), "GET /api/v1/movie/1399", "shows are not looked up as movies")
}

func TestMovieRequestsStartDate(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/request":      jsonResponse(requestsPage),
		"GET /api/v1/movie/693134": jsonResponse(`{"id":693134,"title":"Dune: Part Two"}`),
		"GET /api/v1/movie/999":    jsonResponse(`{"id":999}`),
	})
	tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeMovie}

	rows := decode[[]map[string]string](t, call(t, tool, map[string]any{"start_date": "2024-01-01"}))
	require.Len(t, rows, 2)
	assert.Equal(t, "Dune: Part Two", rows[0]["title"])
	assert.Equal(t, "Unknown Movie", rows[1]["title"])
	assert.NotContains(t, srv.Hits(), "GET /api/v1/movie/550")
}

func TestRequestsQueryParams(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "defaults", args: nil, want: "skip=0&take=7"},
		{name: "status filter", args: map[string]any{"status": "pending", "take": 3, "skip": 6}, want: "filter=pending&skip=6&take=3"},
		{name: "all sends no filter", args: map[string]any{"status": "all"}, want: "skip=0&take=7"},
		{name: "invalid status ignored", args: map[string]any{"status": "bogus"}, want: "skip=0&take=7"},
		{name: "negative paging clamped", args: map[string]any{"take": -5, "skip": -1}, want: "skip=0&take=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
				"GET /api/v1/request": jsonResponse(`{"pageInfo":{"pages":0},"results":[]}`),
			})
			tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeMovie}

			res := call(t, tool, tt.args)
			require.False(t, res.Failed(), res.Err)
			assert.Equal(t, tt.want, srv.Query("/api/v1/request"))
		})
	}
}

func TestTVRequestsTool(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/request": jsonResponse(requestsPage),
		"GET /api/v1/tv/1399": jsonResponse(`{"id":1399,"name":"Game of Thrones","seasons":[
			{"seasonNumber":0,"name":"Specials"},{"seasonNumber":1},{"seasonNumber":2},{"seasonNumber":3}]}`),
		"GET /api/v1/tv/1399/season/1": jsonResponse(`{"seasonNumber":1,"episodes":[
			{"episodeNumber":1,"name":"Winter Is Coming"},{"episodeNumber":2,"name":""}]}`),
		"GET /api/v1/tv/1399/season/2": errorResponse(http.StatusInternalServerError),
	})
	tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeTV}

	rows := decode[[]tvRequestRow](t, call(t, tool, nil))
	require.Len(t, rows, 2, "specials and unrequested seasons are skipped")

	assert.Equal(t, tvRequestRow{
		TVTitle:              "Game of Thrones",
		TVTitleAvailability:  "PARTIALLY_AVAILABLE",
		TVSeason:             "S01",
		TVSeasonAvailability: "PARTIALLY_AVAILABLE",
		TVEpisodes: []episodeRow{
			{EpisodeNumber: "01", EpisodeName: "Winter Is Coming"},
			{EpisodeNumber: "02", EpisodeName: "Episode 2"},
		},
		RequestDate: "2024-03-02T10:00:00.000Z",
	}, rows[0])

	assert.Equal(t, tvRequestRow{
		TVTitle:              "Game of Thrones",
		TVTitleAvailability:  "PARTIALLY_AVAILABLE",
		TVSeason:             "S02",
		TVSeasonAvailability: "PARTIALLY_AVAILABLE",
		TVEpisodes:           []episodeRow{{Error: "Could not fetch details for S02"}},
		RequestDate:          "2024-03-02T10:00:00.000Z",
	}, rows[1])

	hits := srv.Hits()
	assert.NotContains(t, hits, "GET /api/v1/tv/1399/season/0")
	assert.NotContains(t, hits, "GET /api/v1/tv/1399/season/3")
	assert.NotContains(t, hits, "GET /api/v1/tv/693134", "requests without a tvdbId are not shows")
}

func TestTVRequestsShowDetailsFail(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/request": jsonResponse(`{"pageInfo":{"pages":1},"results":[
			{"id":1,"createdAt":"2024-01-01","media":{"tmdbId":42,"tvdbId":7,"status":3},"seasons":[{"seasonNumber":2}]},
			{"id":2,"createdAt":"2024-01-02","media":{"tmdbId":43,"tvdbId":8,"status":3}}]}`),
		"GET /api/v1/tv/42":          errorResponse(http.StatusNotFound),
		"GET /api/v1/tv/42/season/2": jsonResponse(`{"episodes":[{"episodeNumber":1,"name":"Pilot"}]}`),
		"GET /api/v1/tv/43":          errorResponse(http.StatusNotFound),
	})
	tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeTV}

	rows := decode[[]tvRequestRow](t, call(t, tool, nil))
	require.Len(t, rows, 2)

	assert.Equal(t, "Unknown TV Show (ID: 42)", rows[0].TVTitle)
	assert.Equal(t, "S02", rows[0].TVSeason)
	assert.Equal(t, []episodeRow{{EpisodeNumber: "01", EpisodeName: "Pilot"}}, rows[0].TVEpisodes)

	assert.Equal(t, "Unknown TV Show (ID: 43)", rows[1].TVTitle)
	assert.Equal(t, "PROCESSING", rows[1].TVTitleAvailability)
	assert.Empty(t, rows[1].TVSeason)
	assert.Equal(t, []episodeRow{{Error: "Could not fetch show details"}}, rows[1].TVEpisodes)
}

func TestRequestsFilterExamplesCompile(t *testing.T) {
	for _, example := range filterExamples {
		t.Run(example, func(t *testing.T) {
			_, err := filter.Compile(example)
			require.NoError(t, err)
		})
	}

	tv := (&RequestsTool{deps: &Deps{}, kind: overseerr.MediaTypeTV}).Definition()
	assert.Contains(t, tv.Description, "Season availability repeats the show availability")
	assert.Contains(t, tv.InputSchema.Properties["filter"].(map[string]any)["description"], filterExamples[0])
}

func TestRequestsFilter(t *testing.T) {
	t.Run("narrows rows", func(t *testing.T) {
		srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"GET /api/v1/request":      jsonResponse(requestsPage),
			"GET /api/v1/movie/693134": jsonResponse(`{"title":"Dune: Part Two"}`),
			"GET /api/v1/movie/550":    jsonResponse(`{"title":"Fight Club"}`),
			"GET /api/v1/movie/999":    jsonResponse(`{"title":"Other"}`),
		})
		tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeMovie}

		rows := decode[[]map[string]string](t, call(t, tool, map[string]any{
			"filter": `Availability == "AVAILABLE" or icontains(Title, "CLUB")`,
		}))
		require.Len(t, rows, 2)
		assert.Equal(t, "Dune: Part Two", rows[0]["title"])
		assert.Equal(t, "Fight Club", rows[1]["title"])
	})

	t.Run("season field", func(t *testing.T) {
		srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"GET /api/v1/request":          jsonResponse(requestsPage),
			"GET /api/v1/tv/1399":          jsonResponse(`{"name":"Game of Thrones","seasons":[{"seasonNumber":1},{"seasonNumber":2}]}`),
			"GET /api/v1/tv/1399/season/1": jsonResponse(`{"episodes":[]}`),
			"GET /api/v1/tv/1399/season/2": jsonResponse(`{"episodes":[]}`),
		})
		tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeTV}

		rows := decode[[]tvRequestRow](t, call(t, tool, map[string]any{"filter": "Season == 2"}))
		require.Len(t, rows, 1)
		assert.Equal(t, "S02", rows[0].TVSeason)
	})

	t.Run("invalid expression makes no calls", func(t *testing.T) {
		srv := newFakeOverseerr(t, nil)
		tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeMovie}

		res := call(t, tool, map[string]any{"filter": "Rating > 7"})
		require.True(t, res.Failed())
		assert.Contains(t, res.Err, "Rating")
		assert.Empty(t, srv.Hits())
	})
}

func TestRequestsBackendError(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/request": errorResponse(http.StatusUnauthorized),
	})
	tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeTV}

	res := call(t, tool, nil)
	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "Error fetching TV requests")
	assert.Contains(t, res.Err, "status 401")
}

func TestRequestsArgumentTypes(t *testing.T) {
	srv := newFakeOverseerr(t, nil)
	tool := &RequestsTool{deps: srv.deps(nil), kind: overseerr.MediaTypeMovie}

	res := call(t, tool, map[string]any{"take": "seven"})
	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "take")
	assert.Empty(t, srv.Hits())
}

// tablesFrom runs the enricher against the fake server.
func tablesFrom(t *testing.T, srv *fakeOverseerr) *enrich.Tables {
	t.Helper()
	client, err := overseerr.NewClient(srv.URL, "test-key", zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()
	return enrich.New(client, enrich.Overrides{}, 50, zerolog.Nop()).Build(context.Background())
}

func enrichmentRoutes(extra map[string]http.HandlerFunc) map[string]http.HandlerFunc {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/settings/radarr": jsonResponse(`[{"id":0,"name":"Radarr"},{"id":1,"name":"Radarr 4K","is4k":true}]`),
		"GET /api/v1/settings/sonarr": jsonResponse(`[{"id":2,"name":"Sonarr","isDefault":true}]`),
		"GET /api/v1/user": jsonResponse(`{"pageInfo":{"pages":1,"page":1},"results":[
			{"id":1,"displayName":"Admin"},{"id":5,"displayName":"Alice"},{"id":6,"displayName":"Sam"},{"id":9,"displayName":"Sam"}]}`),
	}
	for k, v := range extra {
		routes[k] = v
	}
	return routes
}

func TestRequestMovieTool(t *testing.T) {
	srv := newFakeOverseerr(t, enrichmentRoutes(map[string]http.HandlerFunc{
		"POST /api/v1/request": jsonResponse(`{"id":77,"status":1}`),
	}))
	tables := tablesFrom(t, srv)

	t.Run("names resolve through tables", func(t *testing.T) {
		tool := &RequestMediaTool{deps: srv.deps(tables), kind: overseerr.MediaTypeMovie}

		out := decode[map[string]any](t, call(t, tool, map[string]any{
			"tmdb_id":      693134,
			"user_name":    "Alice",
			"library_name": "Radarr 4K",
		}))
		assert.EqualValues(t, 77, out["id"])

		bodies := srv.Bodies()
		require.NotEmpty(t, bodies)
		body := bodies[len(bodies)-1]
		assert.Equal(t, "movie", body["mediaType"])
		assert.EqualValues(t, 693134, body["mediaId"])
		assert.EqualValues(t, 5, body["userId"])
		assert.EqualValues(t, 1, body["serverId"])
		assert.NotContains(t, body, "seasons")
	})

	t.Run("explicit ids win", func(t *testing.T) {
		tool := &RequestMediaTool{deps: srv.deps(tables), kind: overseerr.MediaTypeMovie}

		res := call(t, tool, map[string]any{
			"tmdb_id":      550,
			"user_id":      3,
			"user_name":    "nobody",
			"library_id":   0,
			"library_name": "nowhere",
		})
		require.False(t, res.Failed(), res.Err)

		bodies := srv.Bodies()
		body := bodies[len(bodies)-1]
		assert.EqualValues(t, 3, body["userId"])
		assert.EqualValues(t, 0, body["serverId"])
	})

	t.Run("default user", func(t *testing.T) {
		tool := &RequestMediaTool{deps: srv.deps(tables), kind: overseerr.MediaTypeMovie}

		res := call(t, tool, map[string]any{"tmdb_id": 550})
		require.False(t, res.Failed(), res.Err)

		bodies := srv.Bodies()
		body := bodies[len(bodies)-1]
		assert.EqualValues(t, 7, body["userId"])
		assert.NotContains(t, body, "serverId")
	})
}

func TestRequestMediaValidation(t *testing.T) {
	srv := newFakeOverseerr(t, enrichmentRoutes(nil))
	tables := tablesFrom(t, srv)
	before := len(srv.Hits())

	tests := []struct {
		name    string
		kind    overseerr.MediaType
		args    map[string]any
		wantErr string
	}{
		{
			name:    "missing tmdb id",
			kind:    overseerr.MediaTypeMovie,
			args:    map[string]any{},
			wantErr: "tmdb_id is required",
		},
		{
			name:    "negative tmdb id",
			kind:    overseerr.MediaTypeMovie,
			args:    map[string]any{"tmdb_id": -1},
			wantErr: "tmdb_id must be greater than 0",
		},
		{
			name:    "unknown library",
			kind:    overseerr.MediaTypeMovie,
			args:    map[string]any{"tmdb_id": 1, "library_name": "Sonarr"},
			wantErr: `unknown movie library "Sonarr", valid options: Radarr, Radarr 4K`,
		},
		{
			name:    "ambiguous user is unusable",
			kind:    overseerr.MediaTypeTV,
			args:    map[string]any{"tmdb_id": 1, "user_name": "Sam"},
			wantErr: `unknown user "Sam", valid options: Admin, Alice`,
		},
		{
			name:    "negative season",
			kind:    overseerr.MediaTypeTV,
			args:    map[string]any{"tmdb_id": 1, "seasons": []any{1, -2}},
			wantErr: "must be at least 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &RequestMediaTool{deps: srv.deps(tables), kind: tt.kind}

			res := call(t, tool, tt.args)
			require.True(t, res.Failed())
			assert.Contains(t, res.Err, tt.wantErr)
		})
	}

	assert.Len(t, srv.Hits(), before, "validation failures make no calls")
}

func TestRequestMediaNoTables(t *testing.T) {
	srv := newFakeOverseerr(t, nil)
	tool := &RequestMediaTool{deps: srv.deps(nil), kind: overseerr.MediaTypeTV}

	res := call(t, tool, map[string]any{"tmdb_id": 1, "library_name": "Sonarr"})
	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "no tv library names were loaded at startup")
}

func TestRequestTVTool(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"POST /api/v1/request": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})
	tool := &RequestMediaTool{deps: srv.deps(nil), kind: overseerr.MediaTypeTV}

	t.Run("all seasons", func(t *testing.T) {
		out := decode[map[string]any](t, call(t, tool, map[string]any{"tmdb_id": 1399}))
		assert.Equal(t, "success", out["status"])

		bodies := srv.Bodies()
		body := bodies[len(bodies)-1]
		assert.Equal(t, "tv", body["mediaType"])
		assert.Equal(t, []any{float64(-1)}, body["seasons"])
	})

	t.Run("chosen seasons", func(t *testing.T) {
		res := call(t, tool, map[string]any{"tmdb_id": 1399, "seasons": []any{1, 3}})
		require.False(t, res.Failed(), res.Err)

		bodies := srv.Bodies()
		body := bodies[len(bodies)-1]
		assert.Equal(t, []any{float64(1), float64(3)}, body["seasons"])
	})

	t.Run("backend error", func(t *testing.T) {
		failing := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"POST /api/v1/request": errorResponse(http.StatusConflict),
		})
		tool := &RequestMediaTool{deps: failing.deps(nil), kind: overseerr.MediaTypeTV}

		res := call(t, tool, map[string]any{"tmdb_id": 1399})
		require.True(t, res.Failed())
		assert.Contains(t, res.Err, "Error submitting TV show request")
		assert.Contains(t, res.Err, "boom")
	})
}

func TestRequestMediaDefinition(t *testing.T) {
	srv := newFakeOverseerr(t, enrichmentRoutes(nil))
	tables := tablesFrom(t, srv)

	movie := (&RequestMediaTool{deps: srv.deps(tables), kind: overseerr.MediaTypeMovie}).Definition()
	assert.Equal(t, "overseerr_request_movie", movie.Name)
	assert.Equal(t, []string{"tmdb_id"}, movie.InputSchema.Required)
	assert.NotContains(t, movie.InputSchema.Properties, "seasons")

	libraryName, ok := movie.InputSchema.Properties["library_name"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"Radarr", "Radarr 4K"}, libraryName["enum"])

	tv := (&RequestMediaTool{deps: srv.deps(nil), kind: overseerr.MediaTypeTV}).Definition()
	assert.Equal(t, "overseerr_request_tv", tv.Name)
	assert.Contains(t, tv.InputSchema.Properties, "seasons")
	libraryName, ok = tv.InputSchema.Properties["library_name"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, libraryName, "enum", "no enum without a table")
}

func TestSearchTool(t *testing.T) {
	t.Run("reshapes hits", func(t *testing.T) {
		srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"GET /api/v1/search": jsonResponse(`{"page":1,"results":[
				{"id":438631,"mediaType":"movie","title":"Dune","originalTitle":"Dune","releaseDate":"2021-10-22",
				 "overview":"Paul Atreides...","originalLanguage":"en"},
				{"id":90228,"mediaType":"tv","name":"Dune: Prophecy","originalName":"Dune: Prophecy",
				 "firstAirDate":"2024-11-17","originCountry":["US","HU"],"originalLanguage":"en"},
				{"id":1,"mediaType":"movie","releaseDate":"TBA"},
				{"id":2,"mediaType":"person","name":"Denis Villeneuve"}]}`),
		})

		tool := &SearchTool{deps: srv.deps(nil)}
		assert.Contains(t, tool.Definition().Description, "Person results are left out")

		rows := decode[[]map[string]any](t, call(t, tool, map[string]any{"query": "dune"}))
		require.Len(t, rows, 3, "person hits are skipped")

		assert.Equal(t, map[string]any{
			"type":              "Movie",
			"title":             "Dune",
			"year":              "2021",
			"tmdb_id":           float64(438631),
			"original_language": "en",
			"overview":          "Paul Atreides...",
			"original_title":    "Dune",
		}, rows[0])

		assert.Equal(t, map[string]any{
			"type":              "TV",
			"title":             "Dune: Prophecy",
			"year":              "2024",
			"tmdb_id":           float64(90228),
			"original_language": "en",
			"original_name":     "Dune: Prophecy",
			"origin_country":    "US, HU",
		}, rows[1])

		assert.Equal(t, map[string]any{
			"type":    "Movie",
			"title":   "Unknown Movie",
			"tmdb_id": float64(1),
		}, rows[2])

		assert.Equal(t, "query=dune&page=1", srv.Query("/api/v1/search"))
	})

	t.Run("no results", func(t *testing.T) {
		srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
			"GET /api/v1/search": jsonResponse(`{"page":3,"results":[{"id":2,"mediaType":"person","name":"Someone"}]}`),
		})

		out := decode[map[string]string](t, call(t, &SearchTool{deps: srv.deps(nil)}, map[string]any{"query": "zzz", "page": 3}))
		assert.Equal(t, map[string]string{"message": "No results found for query 'zzz' on page 3."}, out)
	})

	t.Run("query required", func(t *testing.T) {
		srv := newFakeOverseerr(t, nil)

		res := call(t, &SearchTool{deps: srv.deps(nil)}, map[string]any{"page": 1})
		require.True(t, res.Failed())
		assert.Equal(t, "query is required", res.Err)
		assert.Empty(t, srv.Hits())
	})
}

func TestLeadingYear(t *testing.T) {
	tests := map[string]string{
		"2021-10-22": "2021",
		"1999":       "1999",
		"":           "",
		"TBA":        "",
		"21-10-22":   "",
		"20x1-01-01": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, leadingYear(in), in)
	}
}

func TestListLibrariesTool(t *testing.T) {
	srv := newFakeOverseerr(t, enrichmentRoutes(nil))

	rows := decode[[]libraryRow](t, call(t, &LibrariesTool{deps: srv.deps(nil)}, nil))
	assert.Equal(t, []libraryRow{
		{ID: 0, Name: "Radarr", Type: "movie"},
		{ID: 1, Name: "Radarr 4K", Type: "movie", Is4k: true},
		{ID: 2, Name: "Sonarr", Type: "tv", IsDefault: true},
	}, rows)
}

func TestListLibrariesError(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/settings/radarr": jsonResponse(`[]`),
		"GET /api/v1/settings/sonarr": errorResponse(http.StatusForbidden),
	})

	res := call(t, &LibrariesTool{deps: srv.deps(nil)}, nil)
	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "Error fetching TV libraries")
}

func TestListUsersTool(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/user": jsonResponse(`{"pageInfo":{"pages":1},"results":[
			{"id":1,"displayName":"Admin","email":"admin@example.com","permissions":2,"requestCount":12},
			{"id":2,"username":"bob","email":"bob@example.com","permissions":1056,"requestCount":3},
			{"id":3,"email":"carol@example.com","permissions":32}]}`),
	})

	rows := decode[[]userRow](t, call(t, &UsersTool{deps: srv.deps(nil)}, map[string]any{"skip": 40}))
	assert.Equal(t, []userRow{
		{ID: 1, DisplayName: "Admin", Email: "admin@example.com", Role: "User", RequestCount: 12},
		{ID: 2, DisplayName: "bob", Email: "bob@example.com", Role: "Admin", RequestCount: 3},
		{ID: 3, DisplayName: "carol@example.com", Email: "carol@example.com", Role: "User"},
	}, rows)
	assert.Equal(t, "skip=40&take=20", srv.Query("/api/v1/user"))
}

func TestSessionClosedOnEveryPath(t *testing.T) {
	var opened, closed int
	deps := &Deps{
		Connect: func() (overseerr.API, error) {
			opened++
			client, err := overseerr.NewClient("http://127.0.0.1:1", "key", zerolog.Nop())
			return &closeCounter{Client: client, closed: &closed}, err
		},
		Logger: zerolog.Nop(),
	}

	res := call(t, &StatusTool{deps: deps}, nil)
	require.True(t, res.Failed())
	assert.Contains(t, res.Err, "network request failed")
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)

	res = call(t, &SearchTool{deps: deps}, map[string]any{})
	require.True(t, res.Failed())
	assert.Equal(t, 1, opened, "argument errors never open a session")
}

type closeCounter struct {
	*overseerr.Client
	closed *int
}

func (c *closeCounter) Close() error {
	*c.closed++
	return c.Client.Close()
}

func TestHandler(t *testing.T) {
	srv := newFakeOverseerr(t, map[string]http.HandlerFunc{
		"GET /api/v1/status": jsonResponse(`{"version":"1.0.0"}`),
		"GET /api/v1/search": errorResponse(http.StatusBadGateway),
	})
	deps := srv.deps(nil)

	req := mcp.CallToolRequest{}
	out, err := Handler(&StatusTool{deps: deps}, zerolog.Nop())(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, out.IsError)
	require.Len(t, out.Content, 1)
	text, ok := out.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "version: 1.0.0")

	req.Params.Arguments = map[string]any{"query": "dune"}
	out, err = Handler(&SearchTool{deps: deps}, zerolog.Nop())(context.Background(), req)
	require.NoError(t, err, "failures are reported in the result")
	assert.True(t, out.IsError)
	text, ok = out.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	assert.Contains(t, payload["error"], "Error searching media")
}

func TestResultEncoding(t *testing.T) {
	text := func(r *mcp.CallToolResult) string {
		return r.Content[0].(mcp.TextContent).Text
	}

	assert.Equal(t, "plain", text(Success("plain").CallToolResult()))
	assert.JSONEq(t, `[{"a":1}]`, text(Success([]map[string]int{{"a": 1}}).CallToolResult()))

	failure := Failure("bad %s", "thing").CallToolResult()
	assert.True(t, failure.IsError)
	assert.JSONEq(t, `{"error":"bad thing"}`, text(failure))
}

func TestAllToolNames(t *testing.T) {
	var names []string
	for _, tool := range All(&Deps{Logger: zerolog.Nop()}) {
		names = append(names, tool.Definition().Name)
	}
	assert.Equal(t, []string{
		"overseerr_status",
		"overseerr_movie_requests",
		"overseerr_tv_requests",
		"overseerr_request_movie",
		"overseerr_request_tv",
		"overseerr_search_media",
		"overseerr_list_libraries",
		"overseerr_list_users",
	}, names)

	s := NewServer("overseerr-mcp", "test", &Deps{Logger: zerolog.Nop()})
	assert.NotNil(t, s)
}
