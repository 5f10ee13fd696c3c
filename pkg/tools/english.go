package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// GetEnglishAddressTool returns a tool definition for English address lookup
func GetEnglishAddressTool() mcp.Tool {
	return mcp.NewTool("get_english_address",
		mcp.WithDescription("Render a Korean road-name address in English using the Juso English address API"),
		mcp.WithString("road_address",
			mcp.Required(),
			mcp.Description("Korean road-name address, e.g. \"Gyeonggi Suwon Paldal Hyowon-ro 241\""),
		),
		mcp.WithNumber("english_page_size",
			mcp.Description("Number of English renderings to return (1-20)"),
			mcp.DefaultNumber(defaultEnglishPageSize),
		),
	)
}

// HandleGetEnglishAddress runs the English stage on its own. An unconfigured
// English API or a blank address comes back as an errorCode in common.
func (r *Registry) HandleGetEnglishAddress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.toolLogger("get_english_address")

	address := stringArg(req, "road_address")
	block, err := r.service.English(ctx, address, countArg(req, "english_page_size", defaultEnglishPageSize))
	if err != nil {
		return failure(logger, err), nil
	}

	out := EnglishAddressOutput{
		Common:     block.Common,
		Best:       block.Best,
		Candidates: block.Candidates,
	}
	if block.Best != nil {
		out.EnglishAddress = optional(block.Best.RoadAddress)
	}
	return JSONResponse(logger, out), nil
}
