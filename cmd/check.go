package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/s0up4200/overseerr-mcp/backend"
	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the connection to Overseerr and its library backends",
	Long: `Test the connection and API key against Overseerr, show the server version, and ping
every Radarr and Sonarr server configured in Overseerr using the connection details
Overseerr stores for them.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, err := newClient()
	if err != nil {
		return fmt.Errorf("failed to create Overseerr client: %w", err)
	}
	defer client.Close()

	fmt.Fprintf(out, "Testing connection to Overseerr at %s...\n", cfg.Overseerr.URL)
	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintln(out, text.FgGreen.Sprint("✓ Connection successful!"))

	if status, err := client.GetStatus(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to get server status")
	} else if version, ok := status.Version(); ok {
		fmt.Fprintf(out, "- Overseerr version: %s\n", version)
	}

	results, err := checkBackends(ctx, client)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	renderHealth(out, results)

	var failed int
	for _, h := range results {
		if !h.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d library backends unreachable", failed, len(results))
	}
	return nil
}

func checkBackends(ctx context.Context, client overseerr.LibraryLister) ([]backend.Health, error) {
	radarrServers, err := client.GetRadarrSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Radarr settings: %w", err)
	}
	sonarrServers, err := client.GetSonarrSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Sonarr settings: %w", err)
	}

	checker := backend.NewChecker(cfg.Overseerr.ConnectTimeout, logger)
	results := checker.Check(ctx, overseerr.MediaTypeMovie, radarrServers)
	return append(results, checker.Check(ctx, overseerr.MediaTypeTV, sonarrServers)...), nil
}

func renderHealth(out io.Writer, results []backend.Health) {
	if len(results) == 0 {
		fmt.Fprintln(out, text.FgYellow.Sprint("No library backends configured in Overseerr"))
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Type", "ID", "Name", "URL", "Version", "Latency", "Status"})

	for _, h := range results {
		status := text.FgGreen.Sprint("OK")
		if !h.OK() {
			status = text.FgRed.Sprint(h.Err.Error())
		}
		t.AppendRow(table.Row{h.Kind, h.ID, h.Name, h.URL, h.Version, h.Latency.Round(time.Millisecond), status})
	}
	t.Render()
}
