package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

const defaultUsersTake = 20

type usersArgs struct {
	Take *int `json:"take"`
	Skip *int `json:"skip"`
}

type userRow struct {
	ID           int    `json:"id"`
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	RequestCount int    `json:"requestCount"`
}

// UsersTool lists Overseerr users.
type UsersTool struct {
	deps *Deps
}

func (t *UsersTool) Definition() mcp.Tool {
	return mcp.NewTool("overseerr_list_users",
		mcp.WithDescription("List Overseerr users with their role and request count."),
		mcp.WithNumber("take",
			mcp.Description("The number of users to return (page size)."),
			mcp.DefaultNumber(defaultUsersTake),
		),
		mcp.WithNumber("skip",
			mcp.Description("The number of users to skip (for pagination)."),
			mcp.DefaultNumber(0),
		),
	)
}

func (t *UsersTool) Call(ctx context.Context, req mcp.CallToolRequest) Result {
	var args usersArgs
	if err := bind(req, &args); err != nil {
		return Failure("%v", err)
	}

	return t.deps.session(func(api overseerr.API) Result {
		resp, err := api.GetUsers(ctx, clamp(args.Take, defaultUsersTake), clamp(args.Skip, 0))
		if err != nil {
			return Failure("Error fetching users: %v", err)
		}

		rows := make([]userRow, 0, len(resp.Results))
		for _, u := range resp.Results {
			rows = append(rows, userRow{
				ID:           u.ID,
				DisplayName:  u.GetDisplayName(),
				Email:        u.Email,
				Role:         u.Role(),
				RequestCount: u.RequestCount,
			})
		}
		return Success(rows)
	})
}
