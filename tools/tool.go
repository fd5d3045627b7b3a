// Package tools implements the Overseerr MCP tools.
//
// Each tool validates its arguments before touching the network, opens a fresh client
// session for the call and closes it on every exit path. Tools never return Go errors to
// the protocol layer: failures are reported as a Result carrying an error message.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/s0up4200/overseerr-mcp/enrich"
	"github.com/s0up4200/overseerr-mcp/filter"
	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// Tool is a single MCP tool.
type Tool interface {
	Definition() mcp.Tool
	Call(ctx context.Context, req mcp.CallToolRequest) Result
}

// Deps are the collaborators shared by all tools.
type Deps struct {
	// Connect opens a client session. Tools close it before returning.
	Connect func() (overseerr.API, error)
	Tables  *enrich.Tables
	Filters *filter.Compiler
	Logger  zerolog.Logger
}

func (d *Deps) tables() *enrich.Tables {
	if d.Tables == nil {
		return enrich.Empty()
	}
	return d.Tables
}

func (d *Deps) compile(expression string) (*filter.Filter, error) {
	if d.Filters == nil {
		return filter.Compile(expression)
	}
	return d.Filters.Compile(expression)
}

// session runs fn with an open client and closes it afterwards.
func (d *Deps) session(fn func(api overseerr.API) Result) Result {
	api, err := d.Connect()
	if err != nil {
		return Failure("failed to create Overseerr client: %v", err)
	}
	defer func() {
		if err := api.Close(); err != nil {
			d.Logger.Debug().Err(err).Msg("Failed to close Overseerr session")
		}
	}()
	return fn(api)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the call arguments into dst and runs struct validation.
func bind(req mcp.CallToolRequest, dst any) error {
	args := req.GetArguments()
	if args == nil {
		args = map[string]any{}
	}

	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return fmt.Errorf("invalid value for %s: expected %s", typeErr.Field, typeErr.Type)
		}
		return fmt.Errorf("invalid arguments: %w", err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// Handler adapts a Tool to an mcp-go handler with call logging.
func Handler(t Tool, logger zerolog.Logger) server.ToolHandlerFunc {
	name := t.Definition().Name
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := logger.With().
			Str("call_id", uuid.NewString()).
			Str("tool", name).
			Logger()

		start := time.Now()
		log.Debug().Interface("arguments", req.GetArguments()).Msg("Tool call started")

		res := t.Call(log.WithContext(ctx), req)

		if res.Failed() {
			log.Warn().
				Str("error", res.Err).
				Dur("duration", time.Since(start)).
				Msg("Tool call failed")
		} else {
			log.Info().
				Dur("duration", time.Since(start)).
				Msg("Tool call completed")
		}
		return res.CallToolResult(), nil
	}
}

// Register adds every tool to the server.
func Register(s *server.MCPServer, logger zerolog.Logger, tools ...Tool) {
	for _, t := range tools {
		s.AddTool(t.Definition(), Handler(t, logger))
	}
}

// All returns the full tool set.
func All(deps *Deps) []Tool {
	return []Tool{
		&StatusTool{deps: deps},
		&RequestsTool{deps: deps, kind: overseerr.MediaTypeMovie},
		&RequestsTool{deps: deps, kind: overseerr.MediaTypeTV},
		&RequestMediaTool{deps: deps, kind: overseerr.MediaTypeMovie},
		&RequestMediaTool{deps: deps, kind: overseerr.MediaTypeTV},
		&SearchTool{deps: deps},
		&LibrariesTool{deps: deps},
		&UsersTool{deps: deps},
	}
}

func clamp(v *int, def int) int {
	if v == nil {
		return def
	}
	return max(0, *v)
}
