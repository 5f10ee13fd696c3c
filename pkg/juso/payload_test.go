package juso

import (
	"testing"
)

func TestExtractItems(t *testing.T) {
	tests := []struct {
		name      string
		payload   map[string]any
		wantCode  any
		wantItems int
	}{
		{
			name:      "nil payload",
			payload:   nil,
			wantItems: 0,
		},
		{
			name:      "missing results",
			payload:   map[string]any{"other": 1},
			wantItems: 0,
		},
		{
			name:      "results not an object",
			payload:   map[string]any{"results": "oops"},
			wantItems: 0,
		},
		{
			name: "juso not a list",
			payload: map[string]any{"results": map[string]any{
				"common": map[string]any{"errorCode": "0"},
				"juso":   map[string]any{"roadAddr": "x"},
			}},
			wantCode:  "0",
			wantItems: 0,
		},
		{
			name: "juso null",
			payload: map[string]any{"results": map[string]any{
				"common": map[string]any{"errorCode": "0"},
				"juso":   nil,
			}},
			wantCode:  "0",
			wantItems: 0,
		},
		{
			name: "non-object elements dropped",
			payload: map[string]any{"results": map[string]any{
				"common": map[string]any{"errorCode": "0"},
				"juso":   []any{map[string]any{"roadAddr": "a"}, 42, nil, map[string]any{"roadAddr": "b"}},
			}},
			wantCode:  "0",
			wantItems: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			common, items := ExtractItems(tt.payload)
			if common == nil {
				t.Fatal("common should never be nil")
			}
			if items == nil {
				t.Fatal("items should never be nil")
			}
			if len(items) != tt.wantItems {
				t.Errorf("got %d items, want %d", len(items), tt.wantItems)
			}
			if tt.wantCode != nil && common["errorCode"] != tt.wantCode {
				t.Errorf("errorCode = %v, want %v", common["errorCode"], tt.wantCode)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		common map[string]any
		want   string
	}{
		{common: map[string]any{}, want: "0"},
		{common: map[string]any{"errorCode": "0"}, want: "0"},
		{common: map[string]any{"errorCode": 0.0}, want: "0"},
		{common: map[string]any{"errorCode": "E0001"}, want: "E0001"},
		{common: map[string]any{"errorCode": " -999 "}, want: "-999"},
	}

	for _, tt := range tests {
		if got := errorCode(tt.common); got != tt.want {
			t.Errorf("errorCode(%v) = %q, want %q", tt.common, got, tt.want)
		}
	}
}

func TestCandidateFromItem(t *testing.T) {
	tests := []struct {
		name    string
		item    map[string]any
		wantOK  bool
		wantZip string
	}{
		{
			name:    "complete item",
			item:    map[string]any{"roadAddr": "Gyeonggi Suwon Paldal Hyowon-ro 241", "zipNo": "16508", "bdNm": nil},
			wantOK:  true,
			wantZip: "16508",
		},
		{
			name:    "dashed postcode",
			item:    map[string]any{"roadAddr": "Seoul Gangnam Teheran-ro 142", "zipNo": "062-36"},
			wantOK:  true,
			wantZip: "06236",
		},
		{
			name:   "blank road address",
			item:   map[string]any{"roadAddr": "  ", "zipNo": "16508"},
			wantOK: false,
		},
		{
			name:   "missing postcode",
			item:   map[string]any{"roadAddr": "Seoul Gangnam Teheran-ro 142"},
			wantOK: false,
		},
		{
			name:   "short postcode",
			item:   map[string]any{"roadAddr": "Seoul Gangnam Teheran-ro 142", "zipNo": "0623"},
			wantOK: false,
		},
		{
			name:   "legacy six-digit postcode",
			item:   map[string]any{"roadAddr": "Seoul Gangnam Teheran-ro 142", "zipNo": "135-080"},
			wantOK: false,
		},
		{
			name:   "null postcode",
			item:   map[string]any{"roadAddr": "Seoul Gangnam Teheran-ro 142", "zipNo": nil},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := candidateFromItem(tt.item)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.PostalCode != tt.wantZip {
				t.Errorf("PostalCode = %q, want %q", c.PostalCode, tt.wantZip)
			}
			if c.Confidence != 1.0 {
				t.Errorf("Confidence = %v, want 1.0", c.Confidence)
			}
			if c.BuildingName != "" {
				t.Errorf("BuildingName = %q, want empty for null bdNm", c.BuildingName)
			}
		})
	}
}

func TestCandidateFromItem_NumericKeys(t *testing.T) {
	item := map[string]any{
		"roadAddr": "Gyeonggi Suwon Paldal Hyowon-ro 241",
		"zipNo":    16508.0,
		"buldMnnm": 241.0,
		"buldSlno": 0.0,
		"engAddr":  "241 Hyowon-ro, Paldal-gu, Suwon-si",
	}
	c, ok := candidateFromItem(item)
	if !ok {
		t.Fatal("numeric postcode should be accepted")
	}
	if c.PostalCode != "16508" || c.BuildingMainNo != "241" || c.BuildingSubNo != "0" {
		t.Errorf("numeric fields rendered as %q/%q/%q", c.PostalCode, c.BuildingMainNo, c.BuildingSubNo)
	}
	if c.EnglishAddress == "" {
		t.Error("engAddr should be carried onto the candidate")
	}
}

func TestNormalizeEnglishItem(t *testing.T) {
	item := map[string]any{
		"roadAddrPart1": "241 Hyowon-ro, Paldal-gu, Suwon-si, Gyeonggi-do",
		"jibunAddr":     "  ",
		"zipNo":         "16508",
		"admCd":         4111514100.0,
		"buldSlno":      "0",
	}

	got := NormalizeEnglishItem(item)
	if got.RoadAddress != "241 Hyowon-ro, Paldal-gu, Suwon-si, Gyeonggi-do" {
		t.Errorf("RoadAddress = %q, want roadAddrPart1 fallback", got.RoadAddress)
	}
	if got.LotAddress != "" {
		t.Errorf("LotAddress = %q, want empty for blank value", got.LotAddress)
	}
	if got.AdmCode != "" {
		t.Errorf("AdmCode = %q, want empty for non-string value", got.AdmCode)
	}
	if got.BuildingSubNo != "0" {
		t.Errorf("BuildingSubNo = %q, want \"0\"", got.BuildingSubNo)
	}
	if got.Raw["zipNo"] != "16508" {
		t.Error("raw item not preserved")
	}

	all := NormalizeEnglishItems([]map[string]any{item, {"roadAddr": "x"}})
	if len(all) != 2 || all[1].RoadAddress != "x" {
		t.Errorf("NormalizeEnglishItems() = %+v", all)
	}
}
