package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/overseerr-mcp/config"
	"github.com/s0up4200/overseerr-mcp/enrich"
	"github.com/s0up4200/overseerr-mcp/overseerr"
)

const appName = "overseerr-mcp"

// startupTimeout bounds the enrichment fetches run before serving.
const startupTimeout = 2 * time.Minute

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	appVersion = "dev"
	buildTime  = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "MCP server for the Overseerr media request service",
	Long: `overseerr-mcp exposes Overseerr as Model Context Protocol tools over stdio.

Assistants can check server status, search the catalog, list movie and TV requests,
and submit new requests by TMDB ID. Library and user names are resolved from the
Radarr/Sonarr servers and users configured in Overseerr at startup.

Run without a subcommand to start the MCP server.`,
	PersistentPreRunE: initializeApp,
	RunE:              runServe,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion records build information for the version command and the MCP handshake.
func SetVersion(version, built string) {
	appVersion = version
	buildTime = built
	rootCmd.Version = version
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(librariesCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging, os.Stderr)

	if _, ok := cfg.Overseerr.UserID(); !ok {
		logger.Warn().
			Str("request_user_id", cfg.Overseerr.RequestUserID).
			Int("fallback", config.DefaultRequestUserID).
			Msg("Invalid request user id, using fallback")
	}

	return nil
}

// setupLogger configures the zerolog logger. Logs never go to stdout, which carries the
// MCP protocol.
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(out),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newClient creates an Overseerr client from the loaded configuration.
func newClient() (*overseerr.Client, error) {
	userID, _ := cfg.Overseerr.UserID()
	return overseerr.NewClient(cfg.Overseerr.URL, cfg.Overseerr.APIKey, logger,
		overseerr.WithTimeouts(cfg.Overseerr.ConnectTimeout, cfg.Overseerr.ReadTimeout),
		overseerr.WithPageSize(cfg.Overseerr.PageSize),
		overseerr.WithDefaultUserID(userID),
	)
}

// buildTables runs the startup enrichment with its own short-lived session.
func buildTables(ctx context.Context) (*enrich.Tables, error) {
	client, err := newClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Overseerr client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	return enrich.New(client, cfg.Libraries.Overrides(), cfg.Overseerr.PageSize, logger).Build(ctx), nil
}
