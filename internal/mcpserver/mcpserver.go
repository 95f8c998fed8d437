// Package mcpserver adapts the router to the Model Context Protocol so MCP
// hosts (editors, agent frameworks) can call intents as first-class tools.
// It is a thin framing layer: every MCP tool call becomes a regular request
// envelope routed through Dispatch, and responses are serialized back as
// text content.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/intentd/internal/protocol"
	"github.com/flemzord/intentd/internal/router"
)

// Dispatcher is the router surface the adapter needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req protocol.Request) protocol.Response
	AgentContext() string
}

// Server wraps an MCP stdio server bound to the router.
type Server struct {
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New creates the MCP adapter. The router's agent context snippet is served
// as the MCP instructions block so hosts can prime their models.
func New(dispatcher Dispatcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := server.NewMCPServer(
		"intentd",
		version,
		server.WithInstructions(dispatcher.AgentContext()),
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("execute_intent",
		mcp.WithDescription("Resolve a plain-text operation description to a registered tool intent and execute it."),
		mcp.WithString("want",
			mcp.Required(),
			mcp.Description("Plain-text description of the operation to perform."),
		),
		mcp.WithObject("context",
			mcp.Description("Parameter values for the resolved intent."),
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Set true to approve an operation that previously asked for confirmation."),
		),
	), handler(dispatcher, router.MethodExecuteIntent, executeArgs))

	s.AddTool(mcp.NewTool("list_tools",
		mcp.WithDescription("List registered tools, optionally filtered by domain."),
		mcp.WithString("domain",
			mcp.Description("Restrict the listing to one domain."),
		),
	), handler(dispatcher, router.MethodListTools, passthroughArgs))

	s.AddTool(mcp.NewTool("describe_tool",
		mcp.WithDescription("Show a tool's intent patterns and behavior flags."),
		mcp.WithString("tool",
			mcp.Required(),
			mcp.Description("Tool name, e.g. \"disk-usage\"."),
		),
	), handler(dispatcher, router.MethodDescribeTool, passthroughArgs))

	s.AddTool(mcp.NewTool("get_intent_schema",
		mcp.WithDescription("Show the full parameter schema for one intent pattern of a tool."),
		mcp.WithString("tool",
			mcp.Required(),
			mcp.Description("Tool name."),
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("The intent pattern exactly as returned by describe_tool."),
		),
	), handler(dispatcher, router.MethodGetIntentSchema, passthroughArgs))

	return &Server{mcp: s, logger: logger}
}

// ServeStdio blocks serving MCP over stdin/stdout until the host closes the
// stream or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("mcp adapter serving on stdio")
	return server.ServeStdio(s.mcp, server.WithStdioContextFunc(
		func(context.Context) context.Context { return ctx },
	))
}

type argsFunc func(req mcp.CallToolRequest) (map[string]any, error)

func passthroughArgs(req mcp.CallToolRequest) (map[string]any, error) {
	return req.GetArguments(), nil
}

func executeArgs(req mcp.CallToolRequest) (map[string]any, error) {
	if _, err := req.RequireString("want"); err != nil {
		return nil, err
	}
	return req.GetArguments(), nil
}

func handler(dispatcher Dispatcher, method string, args argsFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params, err := args(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		resp := dispatcher.Dispatch(ctx, protocol.Request{Method: method, Params: params})
		if resp.Error != nil {
			payload, merr := json.Marshal(resp.Error)
			if merr != nil {
				return mcp.NewToolResultError(resp.Error.Message), nil
			}
			return mcp.NewToolResultError(string(payload)), nil
		}

		payload, merr := json.Marshal(resp.Result)
		if merr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", merr)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
