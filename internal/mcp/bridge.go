package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"secrules/internal/dispatch"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// userError marks a failure whose message is meant for the caller: unknown
// rule IDs, missing parameters, bad filter values. Everything else is
// treated as internal and crosses the boundary only when the operator
// opted into insecure error forwarding.
type userError struct {
	msg string
}

func (e userError) Error() string {
	return e.msg
}

func userErrorf(format string, args ...any) error {
	return userError{msg: fmt.Sprintf(format, args...)}
}

// errorText decides what an error looks like on the wire. The full detail
// always goes to the server log; the redacted form is the default on the
// wire (rule SEC-009 describes what happens otherwise).
func (s *Server) errorText(category dispatch.Category, name string, err error) string {
	var ue userError
	if errors.As(err, &ue) {
		return ue.msg
	}

	var unknown *dispatch.UnknownOperationError
	if errors.As(err, &unknown) {
		// Routing misses carry only the category and name the caller
		// already sent.
		return unknown.Error()
	}

	s.logger.Error("Handler failed", "category", category, "name", name, "error", err)

	if s.insecureErrors {
		return err.Error()
	}
	return fmt.Sprintf("%s %q failed; details are in the server log", category, name)
}

// resultText renders a handler result for the wire: strings pass through,
// anything else is serialized as JSON.
func resultText(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("cannot serialize result: %w", err)
		}
		return string(data), nil
	}
}

// bridgeTool adapts a registered tool to the protocol library. The closure
// captures only the name; the registry decides which handler runs.
func (s *Server) bridgeTool(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]any)
		if !ok || args == nil {
			args = map[string]any{}
		}

		result, err := s.registry.Dispatch(ctx, dispatch.CategoryTool, name, args)
		if err != nil {
			return mcp.NewToolResultError(s.errorText(dispatch.CategoryTool, name, err)), nil
		}

		text, err := resultText(result)
		if err != nil {
			return mcp.NewToolResultError(s.errorText(dispatch.CategoryTool, name, err)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// bridgeResource adapts a registered resource. Resources are keyed by URI
// in the registry, the URI doubling as the operation name.
func (s *Server) bridgeResource(uri string) server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		result, err := s.registry.Dispatch(ctx, dispatch.CategoryResource, uri, map[string]any{"uri": uri})
		if err != nil {
			return nil, errors.New(s.errorText(dispatch.CategoryResource, uri, err))
		}

		text, err := resultText(result)
		if err != nil {
			return nil, errors.New(s.errorText(dispatch.CategoryResource, uri, err))
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     text,
			},
		}, nil
	}
}

// bridgePrompt adapts a registered prompt. The handler returns the prompt
// text; the description on the result is the prompt's catalog description.
func (s *Server) bridgePrompt(name, description string) server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		params := make(map[string]any, len(request.Params.Arguments))
		for k, v := range request.Params.Arguments {
			params[k] = v
		}

		result, err := s.registry.Dispatch(ctx, dispatch.CategoryPrompt, name, params)
		if err != nil {
			return nil, errors.New(s.errorText(dispatch.CategoryPrompt, name, err))
		}

		text, err := resultText(result)
		if err != nil {
			return nil, errors.New(s.errorText(dispatch.CategoryPrompt, name, err))
		}

		return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	}
}

// requireString pulls a mandatory string parameter out of the params bag.
func requireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", userErrorf("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", userErrorf("parameter %q must be a string, got %T", key, v)
	}
	return s, nil
}

// optionalString pulls an optional string parameter with a fallback.
func optionalString(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
