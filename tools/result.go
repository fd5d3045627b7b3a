package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Result is the outcome of a tool call: either a value or an error message, never both.
type Result struct {
	Value any
	Err   string
}

// Success wraps a tool's return value.
func Success(v any) Result {
	return Result{Value: v}
}

// Failure wraps a human-readable error message.
func Failure(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool {
	return r.Err != ""
}

// CallToolResult renders the result as MCP content. Strings are sent as plain text, other
// values as JSON. Failures become {"error": "..."} with IsError set.
func (r Result) CallToolResult() *mcp.CallToolResult {
	if r.Failed() {
		data, _ := json.Marshal(map[string]string{"error": r.Err})
		return mcp.NewToolResultError(string(data))
	}

	if s, ok := r.Value.(string); ok {
		return mcp.NewToolResultText(s)
	}

	data, err := json.MarshalIndent(r.Value, "", "  ")
	if err != nil {
		return Failure("failed to encode result: %v", err).CallToolResult()
	}
	return mcp.NewToolResultText(string(data))
}
