package api

import (
	"context"

	"github.com/james-see/ly2mei/pkg/converter"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes the LilyPond conversions as MCP tools.
func NewMCPServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"ly2mei",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("ly2mei",
		mcp.WithDescription("Convert LilyPond source to an MEI document"),
		mcp.WithString("source", mcp.Required(), mcp.Description("LilyPond source text")),
		mcp.WithString("prefix", mcp.Description("xml:id prefix")),
		mcp.WithString("ns", mcp.Description("Round-trip label namespace")),
	), handleMEITool)

	s.AddTool(mcp.NewTool("ly2events",
		mcp.WithDescription("Dump the flat event stream of LilyPond source"),
		mcp.WithString("source", mcp.Required(), mcp.Description("LilyPond source text")),
		mcp.WithString("format", mcp.Description("json or yaml"), mcp.Enum("json", "yaml")),
	), handleEventsTool)

	return s
}

func handleMEITool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	conv := converter.New(
		converter.WithIDPrefix(req.GetString("prefix", "")),
		converter.WithLabelNamespace(req.GetString("ns", "")),
	)
	out, err := conv.ConvertToMEI([]byte(src))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleEventsTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := converter.Format(req.GetString("format", string(converter.FormatJSON)))
	out, err := converter.New().ConvertToEvents([]byte(src), format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
