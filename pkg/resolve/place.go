package resolve

import (
	"strings"

	"github.com/spf13/cast"
)

// Kakao Local API place fields used to seed a resolution.
const (
	PlaceRoadAddressField = "road_address_name"
	PlaceAddressField     = "address_name"
)

// PickPlaceAddress chooses the address to resolve from a Kakao place object
// and/or a list of them. place comes first, then the map elements of places
// in order. The first non-blank road address wins; failing that, the first
// non-blank general address. It returns the trimmed address and the place it
// came from, or "" and nil when no place carries either.
func PickPlaceAddress(place map[string]any, places []any) (string, map[string]any) {
	var candidates []map[string]any
	if place != nil {
		candidates = append(candidates, place)
	}
	for _, p := range places {
		if m, err := cast.ToStringMapE(p); err == nil && m != nil {
			candidates = append(candidates, m)
		}
	}

	for _, field := range []string{PlaceRoadAddressField, PlaceAddressField} {
		for _, c := range candidates {
			if addr := placeString(c, field); addr != "" {
				return addr, c
			}
		}
	}
	return "", nil
}

func placeString(place map[string]any, field string) string {
	v, ok := place[field]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}
