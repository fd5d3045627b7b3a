package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

type requestMediaArgs struct {
	TmdbID      int    `json:"tmdb_id" validate:"required,gt=0"`
	Seasons     []int  `json:"seasons" validate:"omitempty,dive,gte=0"`
	UserID      *int   `json:"user_id" validate:"omitnil,gt=0"`
	UserName    string `json:"user_name"`
	LibraryID   *int   `json:"library_id" validate:"omitnil,gte=0"`
	LibraryName string `json:"library_name"`
}

// RequestMediaTool submits a movie or TV request.
type RequestMediaTool struct {
	deps *Deps
	kind overseerr.MediaType
}

func (t *RequestMediaTool) label() string {
	if t.kind.IsMovie() {
		return "movie"
	}
	return "TV show"
}

func (t *RequestMediaTool) Definition() mcp.Tool {
	tables := t.deps.tables()
	backend := "Radarr"
	if !t.kind.IsMovie() {
		backend = "Sonarr"
	}

	libraryName := []mcp.PropertyOption{
		mcp.Description(fmt.Sprintf("Name of the %s library to send the request to. Ignored when library_id is set.", backend)),
	}
	if names := tables.LibraryNames(t.kind); len(names) > 0 {
		libraryName = append(libraryName, mcp.Enum(names...))
	}

	opts := []mcp.ToolOption{
		mcp.WithNumber("tmdb_id",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("The The Movie Database (TMDB) ID of the %s to request.", t.label())),
		),
	}
	if !t.kind.IsMovie() {
		opts = append(opts, mcp.WithArray("seasons",
			mcp.Description("List of season numbers to request. If omitted or empty, all seasons will be requested."),
			mcp.Items(map[string]any{"type": "integer"}),
		))
	}
	opts = append(opts,
		mcp.WithNumber("user_id",
			mcp.Description("Overseerr user ID to make the request as. Defaults to the configured request user."),
		),
		mcp.WithString("user_name",
			mcp.Description("Display name of the user to make the request as. Ignored when user_id is set."),
		),
		mcp.WithNumber("library_id",
			mcp.Description(fmt.Sprintf("%s server ID to send the request to. Defaults to Overseerr's default server.", backend)),
		),
		mcp.WithString("library_name", libraryName...),
	)

	name := "overseerr_request_movie"
	description := "Submit a movie request to Overseerr using its TMDB ID."
	if !t.kind.IsMovie() {
		name = "overseerr_request_tv"
		description = "Submit a TV show request to Overseerr using its TMDB ID. Optionally specify seasons."
	}

	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

func (t *RequestMediaTool) Call(ctx context.Context, req mcp.CallToolRequest) Result {
	var args requestMediaArgs
	if err := bind(req, &args); err != nil {
		return Failure("%v", err)
	}

	userID, serverID, err := t.resolve(args)
	if err != nil {
		return Failure("%v", err)
	}

	log := zerolog.Ctx(ctx)
	return t.deps.session(func(api overseerr.API) Result {
		var (
			result map[string]any
			err    error
		)
		if t.kind.IsMovie() {
			result, err = api.RequestMovie(ctx, args.TmdbID, userID, serverID)
		} else {
			result, err = api.RequestTV(ctx, args.TmdbID, args.Seasons, userID, serverID)
		}
		if err != nil {
			return Failure("Error submitting %s request: %v", t.label(), err)
		}

		log.Info().
			Int("tmdb_id", args.TmdbID).
			Str("type", string(t.kind)).
			Msg("Submitted media request")
		return Success(result)
	})
}

// resolve turns the id and name arguments into the ids to submit. Explicit ids win over
// names; a nil id leaves the choice to the client or to Overseerr.
func (t *RequestMediaTool) resolve(args requestMediaArgs) (userID, serverID *int, err error) {
	tables := t.deps.tables()

	userID = args.UserID
	if userID == nil && args.UserName != "" {
		id, ok := tables.UserID(args.UserName)
		if !ok {
			return nil, nil, unknownName("user", args.UserName, tables.UserNames())
		}
		userID = &id
	}

	serverID = args.LibraryID
	if serverID == nil && args.LibraryName != "" {
		id, ok := tables.LibraryID(t.kind, args.LibraryName)
		if !ok {
			return nil, nil, unknownName(fmt.Sprintf("%s library", t.kind), args.LibraryName, tables.LibraryNames(t.kind))
		}
		serverID = &id
	}

	return userID, serverID, nil
}

func unknownName(what, name string, valid []string) error {
	if len(valid) == 0 {
		return fmt.Errorf("unknown %s %q: no %s names were loaded at startup", what, name, what)
	}
	return fmt.Errorf("unknown %s %q, valid options: %s", what, name, strings.Join(valid, ", "))
}
