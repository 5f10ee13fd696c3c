package juso

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
)

// ExtractItems splits a Juso envelope {results:{common:{...}, juso:[...]}}
// into its common block and item list. It never fails: a missing or
// mis-shaped field yields an empty map or slice, and list elements that are
// not objects are dropped.
func ExtractItems(payload map[string]any) (map[string]any, []map[string]any) {
	results := cast.ToStringMap(payload["results"])
	common := cast.ToStringMap(results["common"])

	raw, ok := results["juso"].([]any)
	if !ok {
		return common, []map[string]any{}
	}

	items := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		item, err := cast.ToStringMapE(v)
		if err != nil || item == nil {
			continue
		}
		items = append(items, item)
	}
	return common, items
}

// errorCode returns the common block's errorCode, treating absence as success.
func errorCode(common map[string]any) string {
	code := strings.TrimSpace(cast.ToString(common["errorCode"]))
	if code == "" {
		return "0"
	}
	return code
}

// stringField returns item[key] rendered as a trimmed string. Numbers are
// formatted, nil and unconvertible values become "".
func stringField(item map[string]any, key string) string {
	v, ok := item[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// firstString returns the first key whose value is a non-blank string.
func firstString(item map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// candidateFromItem builds a candidate from one search item. Items without a
// road address or a 5-digit postal code are rejected.
func candidateFromItem(item map[string]any) (postcode.AddressCandidate, bool) {
	road := stringField(item, "roadAddr")
	zip := postcode.NormalizePostcode(stringField(item, "zipNo"))
	if road == "" || !postcode.IsPostcode5(zip) {
		return postcode.AddressCandidate{}, false
	}

	return postcode.AddressCandidate{
		RoadAddress:     road,
		LotAddress:      stringField(item, "jibunAddr"),
		PostalCode:      zip,
		BuildingName:    stringField(item, "bdNm"),
		Confidence:      1.0,
		AdmCode:         stringField(item, "admCd"),
		RoadNameMgmtSN:  stringField(item, "rnMgtSn"),
		UndergroundFlag: stringField(item, "udrtYn"),
		BuildingMainNo:  stringField(item, "buldMnnm"),
		BuildingSubNo:   stringField(item, "buldSlno"),
		BuildingMgmtSN:  stringField(item, "bdMgtSn"),
		EnglishAddress:  stringField(item, "engAddr"),
	}, true
}

// EnglishItem is an English-API item projected onto the candidate shape. The
// untouched upstream item is kept in Raw for debugging.
type EnglishItem struct {
	RoadAddress  string `json:"road_address,omitempty"`
	LotAddress   string `json:"lot_address,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	BuildingName string `json:"building_name,omitempty"`

	AdmCode         string `json:"adm_code,omitempty"`
	RoadNameMgmtSN  string `json:"road_name_mgmt_sn,omitempty"`
	UndergroundFlag string `json:"underground_flag,omitempty"`
	BuildingMainNo  string `json:"building_main_no,omitempty"`
	BuildingSubNo   string `json:"building_sub_no,omitempty"`
	BuildingMgmtSN  string `json:"building_mgmt_sn,omitempty"`

	Raw map[string]any `json:"_raw"`
}

// NormalizeEnglishItem projects a raw English-API item. Only non-blank string
// values are taken; anything else leaves the field empty.
func NormalizeEnglishItem(item map[string]any) EnglishItem {
	return EnglishItem{
		RoadAddress:     firstString(item, "roadAddr", "roadAddrPart1"),
		LotAddress:      firstString(item, "jibunAddr"),
		PostalCode:      firstString(item, "zipNo"),
		BuildingName:    firstString(item, "bdNm"),
		AdmCode:         firstString(item, "admCd"),
		RoadNameMgmtSN:  firstString(item, "rnMgtSn"),
		UndergroundFlag: firstString(item, "udrtYn"),
		BuildingMainNo:  firstString(item, "buldMnnm"),
		BuildingSubNo:   firstString(item, "buldSlno"),
		BuildingMgmtSN:  firstString(item, "bdMgtSn"),
		Raw:             item,
	}
}

// NormalizeEnglishItems projects every item in order.
func NormalizeEnglishItems(items []map[string]any) []EnglishItem {
	out := make([]EnglishItem, 0, len(items))
	for _, item := range items {
		out = append(out, NormalizeEnglishItem(item))
	}
	return out
}
