package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/s0up4200/overseerr-mcp/enrich"
	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// librariesCmd represents the libraries command
var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "Show the library names the request tools accept",
	Long: `Run the startup enrichment and print the movie and TV library tables, after
configuration overrides and duplicate removal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := buildTables(cmd.Context())
		if err != nil {
			return err
		}
		renderLibraries(cmd.OutOrStdout(), tables)
		return nil
	},
}

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Show the user names the request tools accept",
	Long: `Run the startup enrichment and print the user table. Display names shared by more
than one user are left out because they cannot be resolved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := buildTables(cmd.Context())
		if err != nil {
			return err
		}
		renderUsers(cmd.OutOrStdout(), tables)
		return nil
	},
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func renderLibraries(out io.Writer, tables *enrich.Tables) {
	movie := tables.Libraries(overseerr.MediaTypeMovie)
	tv := tables.Libraries(overseerr.MediaTypeTV)
	if len(movie)+len(tv) == 0 {
		fmt.Fprintln(out, text.FgYellow.Sprint("No libraries available"))
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Type", "ID", "Name"})
	for _, l := range movie {
		t.AppendRow(table.Row{overseerr.MediaTypeMovie, l.ID, l.Name})
	}
	for _, l := range tv {
		t.AppendRow(table.Row{overseerr.MediaTypeTV, l.ID, l.Name})
	}
	t.Render()
}

func renderUsers(out io.Writer, tables *enrich.Tables) {
	users := tables.Users()
	if len(users) == 0 {
		fmt.Fprintln(out, text.FgYellow.Sprint("No users available"))
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Display Name"})
	for _, u := range users {
		t.AppendRow(table.Row{u.ID, u.DisplayName})
	}
	t.Render()
}
