package tools

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
	"github.com/NERVsystems/postcodemcp/pkg/resolve"
)

const (
	msgNoPlaceAddress = "Kakao place has no usable road_address_name or address_name"
	msgNoUsableInput  = "No usable kakao road address, and query is empty. Provide query or kakao_place(s)."
)

// ResolveFromKakaoPlaceTool returns a tool definition for resolving one Kakao place
func ResolveFromKakaoPlaceTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Resolve the road address, postcode and optional detail/English address of a Kakao Map place object " +
			"(for example one result of a Kakao keyword search). road_address_name is preferred, address_name is the fallback."),
		mcp.WithObject("kakao_place",
			mcp.Required(),
			mcp.Description("Kakao place JSON with road_address_name and/or address_name"),
		),
	}
	return mcp.NewTool("resolve_from_kakao_place", append(opts, stageOptions()...)...)
}

// HandleResolveFromKakaoPlace resolves a single Kakao place object.
func (r *Registry) HandleResolveFromKakaoPlace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.toolLogger("resolve_from_kakao_place")

	place := objectArg(req, "kakao_place")
	if place == nil {
		return ErrorResponse("kakao_place must be a JSON object"), nil
	}

	res, err := r.resolvePlace(ctx, logger, place, stageArgs(req))
	if err != nil {
		return failure(logger, err), nil
	}
	return JSONResponse(logger, res), nil
}

// ResolveFromKakaoPlacesTool returns a tool definition for resolving a list of Kakao places
func ResolveFromKakaoPlacesTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Resolve every Kakao Map place in a list. Each place yields its own composite result; " +
			"a place that cannot be resolved carries a message instead of failing the batch."),
		mcp.WithArray("kakao_places",
			mcp.Required(),
			mcp.Description("List of Kakao place JSON objects"),
		),
	}
	return mcp.NewTool("resolve_from_kakao_places", append(opts, stageOptions()...)...)
}

// HandleResolveFromKakaoPlaces resolves each place in order.
func (r *Registry) HandleResolveFromKakaoPlaces(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.toolLogger("resolve_from_kakao_places")

	places := arrayArg(req, "kakao_places")
	if places == nil {
		return ErrorResponse("kakao_places must be a JSON array of place objects"), nil
	}

	opts := stageArgs(req)
	out := PlacesOutput{Items: make([]resolve.AddressResult, 0, len(places))}
	for i, p := range places {
		if err := ctx.Err(); err != nil {
			return failure(logger, err), nil
		}

		place := placeObject(p)
		if place == nil {
			out.Items = append(out.Items, messageResult(fmt.Sprintf("item %d is not a place object", i), nil))
			continue
		}

		res, err := r.resolvePlace(ctx, logger, place, opts)
		if err != nil {
			logger.Warn("place resolution failed", "index", i, "error", err)
			res = messageResult(FromError(err).Error(), map[string]any{"kakao_place_used": place})
		}
		out.Items = append(out.Items, res)
	}

	logger.Debug("resolved places", "count", len(out.Items))
	return JSONResponse(logger, out), nil
}

// ResolvePostcodeAutoTool returns a tool definition for automatic resolution
func ResolvePostcodeAutoTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Find the road address, lot address and 5-digit postcode from a place name/address or Kakao Map place JSON, " +
			"optionally with detail and English addresses. A Kakao place is used first when it carries an address; " +
			"otherwise the query is searched directly."),
		mcp.WithString("query",
			mcp.Description("Place name or address, used when no Kakao place carries an address"),
		),
		mcp.WithObject("kakao_place",
			mcp.Description("Single Kakao place JSON object"),
		),
		mcp.WithArray("kakao_places",
			mcp.Description("List of Kakao place JSON objects"),
		),
	}
	return mcp.NewTool("resolve_postcode_auto", append(opts, stageOptions()...)...)
}

// HandleResolvePostcodeAuto prefers a Kakao place address and falls back to
// the query.
func (r *Registry) HandleResolvePostcodeAuto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := r.toolLogger("resolve_postcode_auto")
	opts := stageArgs(req)

	address, picked := resolve.PickPlaceAddress(objectArg(req, "kakao_place"), arrayArg(req, "kakao_places"))
	if address != "" {
		opts.Query = address
		res, err := r.service.Resolve(ctx, opts)
		if err != nil {
			return failure(logger, err), nil
		}
		maps.Copy(res.Meta, map[string]any{
			"strategy":         StrategyPlace,
			"input_used":       address,
			"kakao_place_used": picked,
		})
		logger.Debug("resolved from kakao place", "input_used", address)
		return JSONResponse(logger, res), nil
	}

	opts.Query = stringArg(req, "query")
	if opts.Query == "" {
		return JSONResponse(logger, messageResult(msgNoUsableInput, map[string]any{"strategy": StrategyFallbackFailed})), nil
	}

	res, err := r.service.Resolve(ctx, opts)
	if err != nil {
		return failure(logger, err), nil
	}
	maps.Copy(res.Meta, map[string]any{
		"strategy":   StrategyFallback,
		"input_used": opts.Query,
	})
	logger.Debug("resolved from query", "input_used", opts.Query)
	return JSONResponse(logger, res), nil
}

// resolvePlace resolves the address carried by one place. A place without an
// address yields a message result, not an error.
func (r *Registry) resolvePlace(ctx context.Context, logger *slog.Logger, place map[string]any, opts resolve.ResolveOptions) (resolve.AddressResult, error) {
	address, picked := resolve.PickPlaceAddress(place, nil)
	if address == "" {
		logger.Debug("kakao place has no address", "place", place["place_name"])
		return messageResult(msgNoPlaceAddress, map[string]any{"kakao_place_used": place}), nil
	}

	opts.Query = address
	res, err := r.service.Resolve(ctx, opts)
	if err != nil {
		return resolve.AddressResult{}, err
	}
	maps.Copy(res.Meta, map[string]any{
		"strategy":         StrategyPlace,
		"input_used":       address,
		"kakao_place_used": picked,
	})
	return res, nil
}

// placeObject coerces a list element to a place object, or nil.
func placeObject(v any) map[string]any {
	m, err := cast.ToStringMapE(v)
	if err != nil || m == nil {
		return nil
	}
	return m
}

// messageResult is a composite with no candidates and an explanation.
func messageResult(message string, meta map[string]any) resolve.AddressResult {
	if meta == nil {
		meta = map[string]any{}
	}
	return resolve.AddressResult{
		Candidates: []postcode.AddressCandidate{},
		Message:    message,
		Meta:       meta,
	}
}
