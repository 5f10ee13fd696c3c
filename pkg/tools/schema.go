package tools

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/NERVsystems/postcodemcp/pkg/juso"
	"github.com/NERVsystems/postcodemcp/pkg/resolve"
)

// Bounds shared by the count arguments.
const (
	minCount = 1
	maxCount = 20

	defaultMaxCandidates   = resolve.DefaultMaxCandidates
	defaultEnglishPageSize = resolve.DefaultEnglishPageSize
)

// ErrorResponse is used for consistent error reporting
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// JSONResponse marshals v as the text result of a tool call.
func JSONResponse(logger *slog.Logger, v any) *mcp.CallToolResult {
	resultBytes, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result")
	}
	return mcp.NewToolResultText(string(resultBytes))
}

// clamp bounds n to [minCount, maxCount].
func clamp(n int) int {
	return max(minCount, min(n, maxCount))
}

// countArg reads a numeric argument and clamps it.
func countArg(req mcp.CallToolRequest, name string, def int) int {
	return clamp(int(mcp.ParseFloat64(req, name, float64(def))))
}

// stringArg reads a string argument and trims it.
func stringArg(req mcp.CallToolRequest, name string) string {
	return strings.TrimSpace(mcp.ParseString(req, name, ""))
}

// objectArg reads an object argument. Hosts sometimes send objects as JSON
// strings; both shapes are accepted. Anything else yields nil.
func objectArg(req mcp.CallToolRequest, name string) map[string]any {
	v, ok := req.Params.Arguments[name]
	if !ok || v == nil {
		return nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil
	}
	return m
}

// arrayArg reads an array argument, accepting a JSON-encoded string too.
func arrayArg(req mcp.CallToolRequest, name string) []any {
	v, ok := req.Params.Arguments[name]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		var arr []any
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			return nil
		}
		return arr
	}
	arr, err := cast.ToSliceE(v)
	if err != nil {
		return nil
	}
	return arr
}

// stageArgs reads the options shared by the place-driven tools. Query is
// left for the caller to fill in.
func stageArgs(req mcp.CallToolRequest) resolve.ResolveOptions {
	return resolve.ResolveOptions{
		HintCity:         stringArg(req, "hint_city"),
		MaxCandidates:    countArg(req, "max_candidates", defaultMaxCandidates),
		IncludeDetail:    mcp.ParseBoolean(req, "include_detail", true),
		DetailSearchMode: mcp.ParseString(req, "detail_search_type", juso.SearchModeDong),
		DongName:         stringArg(req, "dong_nm"),
		IncludeEnglish:   mcp.ParseBoolean(req, "include_english", true),
		EnglishPageSize:  countArg(req, "english_page_size", defaultEnglishPageSize),
	}
}

// stageOptions are the tool options shared by the place-driven tools.
func stageOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("hint_city",
			mcp.Description("City name used to rank candidates, e.g. \"Suwon\" or \"Seoul\". Never filters."),
		),
		mcp.WithNumber("max_candidates",
			mcp.Description("Maximum number of candidates to return (1-20)"),
			mcp.DefaultNumber(defaultMaxCandidates),
		),
		mcp.WithBoolean("include_detail",
			mcp.Description("Also look up the building's dong or floor/unit breakdown"),
			mcp.DefaultBool(true),
		),
		mcp.WithString("detail_search_type",
			mcp.Description("Detail lookup mode: dong (buildings) or floorho (floors and units)"),
			mcp.DefaultString(juso.SearchModeDong),
			mcp.Enum(juso.SearchModeDong, juso.SearchModeFloorHo),
		),
		mcp.WithString("dong_nm",
			mcp.Description("Building (dong) name passed to the detail lookup, e.g. \"101\""),
		),
		mcp.WithBoolean("include_english",
			mcp.Description("Also look up the English rendering of the best address"),
			mcp.DefaultBool(true),
		),
		mcp.WithNumber("english_page_size",
			mcp.Description("Number of English renderings to return (1-20)"),
			mcp.DefaultNumber(defaultEnglishPageSize),
		),
	}
}
