// Package prompts provides prompt templates for use with the MCP server.
package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterPostcodePrompts registers all postcode-related prompts with the MCP server
func RegisterPostcodePrompts(s *server.MCPServer) {
	s.AddPrompt(mcp.NewPrompt("postcode_lookup",
		mcp.WithPromptDescription("Instructions for properly using the Korean postcode tools"),
	), PostcodeLookupPromptHandler)

	s.AddPrompt(mcp.NewPrompt("kakao_place_examples",
		mcp.WithPromptDescription("Examples of chaining Kakao Map place results into postcode resolution"),
	), KakaoPlaceExamplesHandler)
}

// PostcodeLookupPromptHandler returns the main prompt for the postcode tools
func PostcodeLookupPromptHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemPrompt := `You have access to tools that resolve Korean places and addresses to road-name addresses and 5-digit postcodes.
When using these tools:

1. Use normalize_address for a free-form place name or address, get_postcode when you already hold a road or lot address
2. Pass hint_city (e.g. "Suwon", "Seoul") when the user mentions a city; it reranks candidates but never filters them
3. Keep max_candidates small (default 5, at most 20)
4. Use resolve_postcode_auto when you have Kakao Map place JSON; it prefers the place's road_address_name
5. Ask for include_detail only when building (dong) or floor/unit information matters

ADDRESS FORMATTING EXAMPLES:
✅ GOOD: "Gyeonggi Suwon Paldal Hyowon-ro 241"
❌ BAD: "city hall near the station"

✅ GOOD: "Seoul Gangnam Teheran-ro 142"
❌ BAD: "Teheran-ro" (matches too many addresses)

READING RESULTS:
- best is the top candidate, candidates the ranked alternatives
- message is set when nothing matched; rephrase the query with city and road name
- detail.common.errorCode and english.common.errorCode report optional stages that could not run
  (NO_DETAIL_PROVIDER, NO_ENGLISH_PROVIDER, NO_BEST, MISSING_KEYS, UPSTREAM_ERROR); the rest of the result is still valid`

	return mcp.NewGetPromptResult(
		"Postcode Tool Usage Guidelines",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(systemPrompt),
			),
		},
	), nil
}

// KakaoPlaceExamplesHandler returns examples for the Kakao place tools
func KakaoPlaceExamplesHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	examplesPrompt := `EXAMPLES OF EFFECTIVE KAKAO PLACE USAGE:

User: "What's the postcode of Suwon City Hall?" (after a Kakao keyword search returned a place)
AI: *uses resolve_from_kakao_place with kakao_place: {"place_name": "Suwon City Hall", "road_address_name": "Gyeonggi Suwon Paldal Hyowon-ro 241"}*

User: "Give me postcodes for these three cafes" (Kakao search returned a list)
AI: *uses resolve_from_kakao_places with the full list; each item comes back with its own result*

User: "Find the English address of Teheran-ro 142 in Gangnam"
AI: *uses resolve_postcode_auto with query: "Seoul Gangnam Teheran-ro 142", include_english: true*

ERROR CORRECTION PATTERN:
1. If meta.strategy is juso_fallback_failed, provide either a query or a place carrying road_address_name/address_name
2. If a place item carries a message instead of candidates, retry that place with resolve_postcode_auto and a query
3. If detail comes back with MISSING_KEYS, the best candidate cannot be broken down further; report the building-level result`

	return mcp.NewGetPromptResult(
		"Kakao Place Examples",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleAssistant,
				mcp.NewTextContent(examplesPrompt),
			),
		},
	), nil
}
