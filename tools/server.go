package tools

import (
	"github.com/mark3labs/mcp-go/server"
)

const instructions = `Tools for the Overseerr media request service.
Use overseerr_search_media to find a title and its TMDB ID, then overseerr_request_movie or
overseerr_request_tv to request it. overseerr_movie_requests and overseerr_tv_requests list
existing requests.`

// NewServer creates an MCP server with every tool registered.
func NewServer(name, version string, deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	Register(s, deps.Logger, All(deps)...)
	return s
}
