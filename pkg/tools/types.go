package tools

import (
	"github.com/NERVsystems/postcodemcp/pkg/juso"
	"github.com/NERVsystems/postcodemcp/pkg/postcode"
	"github.com/NERVsystems/postcodemcp/pkg/resolve"
)

// NormalizeAddressOutput is the result of normalize_address.
type NormalizeAddressOutput struct {
	Normalized *postcode.AddressCandidate  `json:"normalized"`
	Candidates []postcode.AddressCandidate `json:"candidates"`
	Message    *string                     `json:"message"`
}

// GetPostcodeOutput is the result of get_postcode.
type GetPostcodeOutput struct {
	Postcode   *string                     `json:"postcode"`
	Best       *postcode.AddressCandidate  `json:"best"`
	Candidates []postcode.AddressCandidate `json:"candidates"`
	Message    *string                     `json:"message"`
}

// EnglishAddressOutput is the result of get_english_address.
type EnglishAddressOutput struct {
	EnglishAddress *string            `json:"english_address"`
	Common         map[string]any     `json:"common"`
	Best           *juso.EnglishItem  `json:"best"`
	Candidates     []juso.EnglishItem `json:"candidates"`
}

// PlacesOutput is the result of resolve_from_kakao_places.
type PlacesOutput struct {
	Items []resolve.AddressResult `json:"items"`
}

// Resolution strategies reported in meta.strategy.
const (
	StrategyPlace          = "kakao_then_juso"
	StrategyFallback       = "juso_fallback"
	StrategyFallbackFailed = "juso_fallback_failed"
)

// optional renders "" as JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
