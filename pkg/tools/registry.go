// Package tools provides the postcode MCP tools implementations.
package tools

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/postcodemcp/pkg/resolve"
)

// Registry holds all MCP tool registrations for the postcode service.
type Registry struct {
	service *resolve.AddressService
	logger  *slog.Logger
}

// NewRegistry creates a new MCP tool registry backed by service.
func NewRegistry(service *resolve.AddressService, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		service: service,
		logger:  logger,
	}
}

// ToolDefinition represents a postcode MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns all postcode MCP tool definitions.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		// Address search tools
		{
			Name:        "normalize_address",
			Description: "Normalize a Korean place name or address to road-name address candidates",
			Tool:        NormalizeAddressTool(),
			Handler:     r.HandleNormalizeAddress,
		},
		{
			Name:        "get_postcode",
			Description: "Find the 5-digit postcode for a road or lot address",
			Tool:        GetPostcodeTool(),
			Handler:     r.HandleGetPostcode,
		},
		{
			Name:        "get_english_address",
			Description: "Render a Korean road address in English",
			Tool:        GetEnglishAddressTool(),
			Handler:     r.HandleGetEnglishAddress,
		},

		// Kakao place tools
		{
			Name:        "resolve_from_kakao_place",
			Description: "Resolve the postcode, detail and English address of a Kakao Map place",
			Tool:        ResolveFromKakaoPlaceTool(),
			Handler:     r.HandleResolveFromKakaoPlace,
		},
		{
			Name:        "resolve_from_kakao_places",
			Description: "Resolve every place in a list of Kakao Map places",
			Tool:        ResolveFromKakaoPlacesTool(),
			Handler:     r.HandleResolveFromKakaoPlaces,
		},
		{
			Name:        "resolve_postcode_auto",
			Description: "Resolve a postcode from Kakao place JSON when available, otherwise from a query",
			Tool:        ResolvePostcodeAutoTool(),
			Handler:     r.HandleResolvePostcodeAuto,
		},
	}
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, def.Handler)
	}
}

// toolLogger tags a handler's log lines with the tool name and a fresh
// request ID.
func (r *Registry) toolLogger(name string) *slog.Logger {
	return r.logger.With("tool", name, "request_id", uuid.NewString())
}

// failure logs err and converts it into a tool error result.
func failure(logger *slog.Logger, err error) *mcp.CallToolResult {
	apiErr := FromError(err)
	logger.Error("tool call failed", "error", err, "recoverable", apiErr.Recoverable)
	return ErrorWithGuidance(apiErr)
}
