package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
	"github.com/NERVsystems/postcodemcp/pkg/resolve"
)

// NormalizeAddressTool returns a tool definition for normalizing addresses
func NormalizeAddressTool() mcp.Tool {
	return mcp.NewTool("normalize_address",
		mcp.WithDescription("Normalize a Korean place name or address to road-name address candidates with postcodes"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Place name or address, e.g. \"Suwon City Hall\" or \"Teheran-ro 142\""),
		),
		mcp.WithString("hint_city",
			mcp.Description("City name used to rank candidates, e.g. \"Suwon\". Never filters."),
		),
		mcp.WithNumber("max_candidates",
			mcp.Description("Maximum number of candidates to return (1-20)"),
			mcp.DefaultNumber(defaultMaxCandidates),
		),
	)
}

// HandleNormalizeAddress resolves a query without the detail and English stages.
func (r *Registry) HandleNormalizeAddress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.toolLogger("normalize_address")

	query := stringArg(req, "query")
	if query == "" {
		return ErrorResponse("Query must not be empty"), nil
	}

	res, err := r.service.Resolve(ctx, resolveOnly(query, stringArg(req, "hint_city"), countArg(req, "max_candidates", defaultMaxCandidates)))
	if err != nil {
		return failure(logger, err), nil
	}
	logger.Debug("normalized address", "query", query, "candidates", len(res.Candidates))

	return JSONResponse(logger, NormalizeAddressOutput{
		Normalized: res.Best,
		Candidates: res.Candidates,
		Message:    optional(res.Message),
	}), nil
}

// GetPostcodeTool returns a tool definition for postcode lookup
func GetPostcodeTool() mcp.Tool {
	return mcp.NewTool("get_postcode",
		mcp.WithDescription("Find the 5-digit Korean postcode for a road-name or lot-number address"),
		mcp.WithString("road_address",
			mcp.Description("Road-name address, e.g. \"Gyeonggi Suwon Paldal Hyowon-ro 241\". Preferred over lot_address."),
		),
		mcp.WithString("lot_address",
			mcp.Description("Lot-number (jibun) address, used when road_address is absent"),
		),
		mcp.WithString("hint_city",
			mcp.Description("City name used to rank candidates"),
		),
		mcp.WithNumber("max_candidates",
			mcp.Description("Maximum number of candidates to return (1-20)"),
			mcp.DefaultNumber(defaultMaxCandidates),
		),
	)
}

// HandleGetPostcode implements the postcode lookup. Missing input is reported
// in the message rather than as an error.
func (r *Registry) HandleGetPostcode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.toolLogger("get_postcode")

	query := stringArg(req, "road_address")
	if query == "" {
		query = stringArg(req, "lot_address")
	}
	if query == "" {
		msg := "provide road_address or lot_address"
		return JSONResponse(logger, GetPostcodeOutput{
			Candidates: []postcode.AddressCandidate{},
			Message:    &msg,
		}), nil
	}

	res, err := r.service.Resolve(ctx, resolveOnly(query, stringArg(req, "hint_city"), countArg(req, "max_candidates", defaultMaxCandidates)))
	if err != nil {
		return failure(logger, err), nil
	}

	out := GetPostcodeOutput{
		Best:       res.Best,
		Candidates: res.Candidates,
		Message:    optional(res.Message),
	}
	if res.Best != nil {
		out.Postcode = optional(res.Best.PostalCode)
	}
	logger.Debug("postcode lookup", "query", query, "postcode", out.Postcode != nil)

	return JSONResponse(logger, out), nil
}

// resolveOnly builds options that skip the optional stages.
func resolveOnly(query, hintCity string, maxCandidates int) resolve.ResolveOptions {
	return resolve.ResolveOptions{Query: query, HintCity: hintCity, MaxCandidates: maxCandidates}
}
