package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// StatusTool reports the Overseerr server status.
type StatusTool struct {
	deps *Deps
}

func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("overseerr_status",
		mcp.WithDescription("Get the status of the Overseerr server. No arguments required."),
	)
}

func (t *StatusTool) Call(ctx context.Context, _ mcp.CallToolRequest) Result {
	return t.deps.session(func(api overseerr.API) Result {
		status, err := api.GetStatus(ctx)
		if err != nil {
			return Failure("Error fetching status: %v", err)
		}
		return Success(formatStatus(status))
	})
}

func formatStatus(status overseerr.Status) string {
	var b strings.Builder
	if _, ok := status.Version(); ok {
		b.WriteString("\n---\nOverseerr is available and these are the status data:\n")
	} else {
		b.WriteString("\n---\nOverseerr is not available and below is the request error: \n")
	}

	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s: %v", k, status[k])
	}
	return b.String()
}
