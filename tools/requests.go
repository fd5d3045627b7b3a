package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/s0up4200/overseerr-mcp/filter"
	"github.com/s0up4200/overseerr-mcp/overseerr"
)

const (
	defaultRequestsTake = 7
	statusAll           = "all"
)

// filterExamples are shown to clients in the filter argument description.
var filterExamples = []string{
	`Availability == "AVAILABLE" and icontains(Title, "dune")`,
	`lower(RequestedBy) == "alice" or daysSince(RequestDate) < 7`,
}

var filterDescription = "Optional expression to narrow the results, e.g. " + strings.Join(filterExamples, "; ") + ". " +
	"Fields: Title, MediaType, Availability, RequestStatus, RequestedBy, RequestDate, Season, Is4k. " +
	"Functions: icontains, istartsWith, iendsWith (case-insensitive), lower, upper, daysSince. " +
	"The contains, startsWith and endsWith operators match case, e.g. Title contains \"Dune\"."

// requestStatuses are the filter values GET /request accepts.
var requestStatuses = []string{statusAll, "approved", "available", "pending", "processing", "unavailable", "failed"}

type requestsArgs struct {
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	Take      *int   `json:"take"`
	Skip      *int   `json:"skip"`
	Filter    string `json:"filter"`
}

// params builds the query parameters. Unknown status values are dropped.
func (a requestsArgs) params() overseerr.RequestParams {
	p := overseerr.RequestParams{
		Take: clamp(a.Take, defaultRequestsTake),
		Skip: clamp(a.Skip, 0),
	}
	if a.Status != statusAll && slices.Contains(requestStatuses, a.Status) {
		p.Filter = a.Status
	}
	return p
}

// before reports whether a request was created before the start_date cutoff. Timestamps
// are compared as strings.
func (a requestsArgs) before(createdAt string) bool {
	return a.StartDate != "" && a.StartDate > createdAt
}

type movieRequestRow struct {
	Title             string `json:"title"`
	MediaAvailability string `json:"media_availability"`
	RequestDate       string `json:"request_date"`
}

type episodeRow struct {
	EpisodeNumber string `json:"episode_number,omitempty"`
	EpisodeName   string `json:"episode_name,omitempty"`
	Error         string `json:"error,omitempty"`
}

type tvRequestRow struct {
	TVTitle              string       `json:"tv_title"`
	TVTitleAvailability  string       `json:"tv_title_availability"`
	TVSeason             string       `json:"tv_season,omitempty"`
	TVSeasonAvailability string       `json:"tv_season_availability,omitempty"`
	TVEpisodes           []episodeRow `json:"tv_episodes"`
	RequestDate          string       `json:"request_date"`

	season int
}

// RequestsTool lists movie or TV requests.
type RequestsTool struct {
	deps *Deps
	kind overseerr.MediaType
}

func (t *RequestsTool) label() string {
	if t.kind.IsMovie() {
		return "movie"
	}
	return "TV"
}

func (t *RequestsTool) Definition() mcp.Tool {
	name := "overseerr_movie_requests"
	if !t.kind.IsMovie() {
		name = "overseerr_tv_requests"
	}

	description := fmt.Sprintf("Get a paginated list of %s requests that satisfy the filter arguments.", t.label())
	if !t.kind.IsMovie() {
		description += " Season availability repeats the show availability."
	}

	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("status",
			mcp.Description("Filter by media availability status. Defaults to all if omitted or invalid."),
			mcp.Enum(requestStatuses...),
		),
		mcp.WithString("start_date",
			mcp.Description("Only include requests created on or after this date, formatted as 'YYYY-MM-DDTHH:MM:SS.mmmZ'."),
		),
		mcp.WithNumber("take",
			mcp.Description("The number of results to return (page size)."),
			mcp.DefaultNumber(defaultRequestsTake),
		),
		mcp.WithNumber("skip",
			mcp.Description("The number of results to skip (for pagination)."),
			mcp.DefaultNumber(0),
		),
		mcp.WithString("filter",
			mcp.Description(filterDescription),
		),
	)
}

func (t *RequestsTool) Call(ctx context.Context, req mcp.CallToolRequest) Result {
	var args requestsArgs
	if err := bind(req, &args); err != nil {
		return Failure("%v", err)
	}

	var match *filter.Filter
	if args.Filter != "" {
		f, err := t.deps.compile(args.Filter)
		if err != nil {
			return Failure("%v", err)
		}
		match = f
	}

	return t.deps.session(func(api overseerr.API) Result {
		resp, err := api.GetRequests(ctx, args.params())
		if err != nil {
			return Failure("Error fetching %s requests: %v", t.label(), err)
		}

		log := zerolog.Ctx(ctx)
		if t.kind.IsMovie() {
			rows, err := t.movieRows(ctx, api, args, resp.Results, match)
			if err != nil {
				return Failure("Error fetching %s requests: %v", t.label(), err)
			}
			log.Debug().Int("results", len(resp.Results)).Int("rows", len(rows)).Msg("Listed movie requests")
			return Success(rows)
		}

		rows, err := t.tvRows(ctx, api, args, resp.Results, match)
		if err != nil {
			return Failure("Error fetching %s requests: %v", t.label(), err)
		}
		log.Debug().Int("results", len(resp.Results)).Int("rows", len(rows)).Msg("Listed TV requests")
		return Success(rows)
	})
}

func (t *RequestsTool) movieRows(ctx context.Context, api overseerr.API, args requestsArgs, requests []overseerr.MediaRequest, match *filter.Filter) ([]movieRequestRow, error) {
	rows := make([]movieRequestRow, 0, len(requests))

	for _, r := range requests {
		if r.Media == nil || r.Media.IsTV() || args.before(r.CreatedAt) {
			continue
		}

		title := "Unknown Movie (No TMDB ID)"
		if id := r.Media.TmdbID; id != 0 {
			details, err := api.GetMovieDetails(ctx, id)
			switch {
			case err != nil:
				zerolog.Ctx(ctx).Debug().Err(err).Int("tmdb_id", id).Msg("Failed to fetch movie details")
				title = fmt.Sprintf("Unknown Movie (ID: %d)", id)
			case details.Title == "":
				title = "Unknown Movie"
			default:
				title = details.Title
			}
		}

		row := movieRequestRow{
			Title:             title,
			MediaAvailability: r.Media.Status.String(),
			RequestDate:       r.CreatedAt,
		}

		if match != nil {
			ok, err := match.Match(filterEnv(r, row.Title, row.MediaAvailability, 0))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *RequestsTool) tvRows(ctx context.Context, api overseerr.API, args requestsArgs, requests []overseerr.MediaRequest, match *filter.Filter) ([]tvRequestRow, error) {
	rows := make([]tvRequestRow, 0, len(requests))

	for _, r := range requests {
		if r.Media == nil || !r.Media.IsTV() || args.before(r.CreatedAt) {
			continue
		}

		for _, row := range t.showRows(ctx, api, r) {
			if match != nil {
				ok, err := match.Match(filterEnv(r, row.TVTitle, availabilityOf(row), row.season))
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// showRows expands one TV request into a row per season. Fetch failures degrade to
// placeholder text instead of dropping the request.
func (t *RequestsTool) showRows(ctx context.Context, api overseerr.API, r overseerr.MediaRequest) []tvRequestRow {
	log := zerolog.Ctx(ctx)
	tvID := r.Media.TmdbID
	titleAvailability := r.Media.Status.String()
	requested := r.RequestedSeasons()

	placeholder := func(title, reason string) []tvRequestRow {
		return []tvRequestRow{{
			TVTitle:             title,
			TVTitleAvailability: titleAvailability,
			TVEpisodes:          []episodeRow{{Error: reason}},
			RequestDate:         r.CreatedAt,
		}}
	}

	if tvID == 0 {
		return placeholder("Unknown TV Show (No TMDB ID)", "Could not fetch details without a TMDB ID")
	}

	var (
		title   string
		seasons []int
	)
	details, err := api.GetTVDetails(ctx, tvID)
	if err != nil {
		log.Debug().Err(err).Int("tmdb_id", tvID).Msg("Failed to fetch show details")
		if len(requested) == 0 {
			return placeholder(fmt.Sprintf("Unknown TV Show (ID: %d)", tvID), "Could not fetch show details")
		}
		// fall back to the seasons named on the request
		title = fmt.Sprintf("Unknown TV Show (ID: %d)", tvID)
		for n := range requested {
			seasons = append(seasons, n)
		}
		slices.Sort(seasons)
	} else {
		title = details.Name
		if title == "" {
			title = "Unknown TV Show"
		}
		for _, s := range details.Seasons {
			if s.SeasonNumber == nil {
				continue
			}
			seasons = append(seasons, *s.SeasonNumber)
		}
	}

	var rows []tvRequestRow
	for _, n := range seasons {
		if n == 0 {
			continue
		}
		if len(requested) > 0 && !requested[n] {
			continue
		}

		label := fmt.Sprintf("S%02d", n)
		rows = append(rows, tvRequestRow{
			TVTitle:              title,
			TVTitleAvailability:  titleAvailability,
			TVSeason:             label,
			TVSeasonAvailability: titleAvailability,
			TVEpisodes:           t.episodes(ctx, api, tvID, n, label),
			RequestDate:          r.CreatedAt,
			season:               n,
		})
	}
	return rows
}

func (t *RequestsTool) episodes(ctx context.Context, api overseerr.API, tvID, season int, label string) []episodeRow {
	details, err := api.GetSeasonDetails(ctx, tvID, season)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Int("tmdb_id", tvID).Int("season", season).Msg("Failed to fetch season details")
		return []episodeRow{{Error: fmt.Sprintf("Could not fetch details for %s", label)}}
	}

	episodes := make([]episodeRow, 0, len(details.Episodes))
	for _, e := range details.Episodes {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("Episode %d", e.EpisodeNumber)
		}
		episodes = append(episodes, episodeRow{
			EpisodeNumber: fmt.Sprintf("%02d", e.EpisodeNumber),
			EpisodeName:   name,
		})
	}
	return episodes
}

func availabilityOf(row tvRequestRow) string {
	if row.TVSeasonAvailability != "" {
		return row.TVSeasonAvailability
	}
	return row.TVTitleAvailability
}

func filterEnv(r overseerr.MediaRequest, title, availability string, season int) filter.Request {
	mediaType := string(overseerr.MediaTypeMovie)
	if r.Media != nil && r.Media.IsTV() {
		mediaType = string(overseerr.MediaTypeTV)
	}
	return filter.Request{
		Title:         title,
		MediaType:     mediaType,
		Availability:  availability,
		RequestStatus: r.Status.String(),
		RequestedBy:   r.RequestedBy.GetDisplayName(),
		RequestDate:   r.CreatedAt,
		Season:        season,
		Is4k:          r.Is4k,
	}
}
