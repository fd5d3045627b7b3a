package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/s0up4200/overseerr-mcp/filter"
	"github.com/s0up4200/overseerr-mcp/overseerr"
	"github.com/s0up4200/overseerr-mcp/tools"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Overseerr tools over MCP stdio",
	Long: `Load library and user names from Overseerr, then serve the MCP tools on stdin/stdout.

Enrichment is best effort: if Overseerr cannot be reached the server still starts and
name-based library and user selection is unavailable.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tables, err := buildTables(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Int("movie_libraries", len(tables.Libraries(overseerr.MediaTypeMovie))).
		Int("tv_libraries", len(tables.Libraries(overseerr.MediaTypeTV))).
		Int("users", len(tables.Users())).
		Msg("Startup enrichment finished")

	deps := &tools.Deps{
		Connect: func() (overseerr.API, error) {
			return newClient()
		},
		Tables:  tables,
		Filters: filter.NewCompiler(filter.DefaultCacheSize),
		Logger:  logger,
	}

	s := tools.NewServer(appName, appVersion, deps)

	logger.Info().Str("version", appVersion).Str("url", cfg.Overseerr.URL).Msg("Serving MCP over stdio")
	if err := server.ServeStdio(s, server.WithErrorLogger(log.New(logger, "", 0))); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}
