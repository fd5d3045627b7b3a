package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

type libraryRow struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Is4k      bool   `json:"is4k"`
	IsDefault bool   `json:"isDefault"`
}

// LibrariesTool lists the configured Radarr and Sonarr servers.
type LibrariesTool struct {
	deps *Deps
}

func (t *LibrariesTool) Definition() mcp.Tool {
	return mcp.NewTool("overseerr_list_libraries",
		mcp.WithDescription("List the Radarr (movie) and Sonarr (TV) libraries configured in Overseerr. No arguments required."),
	)
}

func (t *LibrariesTool) Call(ctx context.Context, _ mcp.CallToolRequest) Result {
	return t.deps.session(func(api overseerr.API) Result {
		radarr, err := api.GetRadarrSettings(ctx)
		if err != nil {
			return Failure("Error fetching movie libraries: %v", err)
		}
		sonarr, err := api.GetSonarrSettings(ctx)
		if err != nil {
			return Failure("Error fetching TV libraries: %v", err)
		}

		rows := make([]libraryRow, 0, len(radarr)+len(sonarr))
		rows = appendLibraries(rows, overseerr.MediaTypeMovie, radarr)
		rows = appendLibraries(rows, overseerr.MediaTypeTV, sonarr)
		return Success(rows)
	})
}

func appendLibraries(rows []libraryRow, kind overseerr.MediaType, servers []overseerr.ServiceSettings) []libraryRow {
	for _, s := range servers {
		rows = append(rows, libraryRow{
			ID:        s.ID,
			Name:      s.Name,
			Type:      string(kind),
			Is4k:      s.Is4k,
			IsDefault: s.IsDefault,
		})
	}
	return rows
}
