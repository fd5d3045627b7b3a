package tools

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

type searchArgs struct {
	Query string `json:"query" validate:"required"`
	Page  *int   `json:"page" validate:"omitnil,gt=0"`
}

type searchRow struct {
	Type             string `json:"type"`
	Title            string `json:"title,omitempty"`
	Year             string `json:"year,omitempty"`
	TmdbID           int    `json:"tmdb_id,omitempty"`
	OriginalLanguage string `json:"original_language,omitempty"`
	Overview         string `json:"overview,omitempty"`
	OriginalTitle    string `json:"original_title,omitempty"`
	OriginalName     string `json:"original_name,omitempty"`
	OriginCountry    string `json:"origin_country,omitempty"`
}

// SearchTool searches the Overseerr catalog.
type SearchTool struct {
	deps *Deps
}

func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("overseerr_search_media",
		mcp.WithDescription("Search for movies and TV shows available on Overseerr. Person results are left out."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search term (e.g., movie or TV show title)."),
		),
		mcp.WithNumber("page",
			mcp.Description("The page number for pagination."),
			mcp.DefaultNumber(1),
		),
	)
}

func (t *SearchTool) Call(ctx context.Context, req mcp.CallToolRequest) Result {
	var args searchArgs
	if err := bind(req, &args); err != nil {
		return Failure("%v", err)
	}
	page := 1
	if args.Page != nil {
		page = *args.Page
	}

	return t.deps.session(func(api overseerr.API) Result {
		resp, err := api.SearchMedia(ctx, args.Query, page)
		if err != nil {
			return Failure("Error searching media: %v", err)
		}

		rows := make([]searchRow, 0, len(resp.Results))
		for _, hit := range resp.Results {
			if row, ok := reshapeSearchResult(hit); ok {
				rows = append(rows, row)
			}
		}

		if len(rows) == 0 {
			return Success(map[string]string{
				"message": fmt.Sprintf("No results found for query '%s' on page %d.", args.Query, page),
			})
		}
		return Success(rows)
	})
}

// reshapeSearchResult normalizes a movie or TV hit. Other hits, such as people, are skipped.
func reshapeSearchResult(hit overseerr.SearchResult) (searchRow, bool) {
	row := searchRow{
		TmdbID:           hit.ID,
		OriginalLanguage: hit.OriginalLanguage,
		Overview:         hit.Overview,
	}

	switch hit.MediaType {
	case overseerr.MediaTypeMovie:
		row.Type = "Movie"
		row.Title = cmp.Or(hit.Title, "Unknown Movie")
		row.OriginalTitle = hit.OriginalTitle
		row.Year = leadingYear(hit.ReleaseDate)
	case overseerr.MediaTypeTV:
		row.Type = "TV"
		row.Title = cmp.Or(hit.Name, "Unknown TV Show")
		row.OriginalName = hit.OriginalName
		row.OriginCountry = strings.Join(hit.OriginCountry, ", ")
		row.Year = leadingYear(hit.FirstAirDate)
	default:
		return searchRow{}, false
	}
	return row, true
}

// leadingYear returns the segment before the first '-' when it is four digits.
func leadingYear(date string) string {
	year, _, _ := strings.Cut(strings.TrimSpace(date), "-")
	if len(year) != 4 {
		return ""
	}
	for _, r := range year {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return year
}
