// Package postcode holds the core address model shared by the Juso providers,
// the resolution services and the MCP tools.
package postcode

// AddressCandidate is one resolved address option built from a single search
// result item. RoadAddress and PostalCode are always non-empty.
type AddressCandidate struct {
	RoadAddress  string  `json:"road_address"`
	LotAddress   string  `json:"lot_address,omitempty"`
	PostalCode   string  `json:"postal_code"`
	BuildingName string  `json:"building_name,omitempty"`
	Confidence   float64 `json:"confidence"`

	// Keys required by the detail-address lookup, carried verbatim from the
	// search response.
	AdmCode         string `json:"adm_code,omitempty"`
	RoadNameMgmtSN  string `json:"road_name_mgmt_sn,omitempty"`
	UndergroundFlag string `json:"underground_flag,omitempty"`
	BuildingMainNo  string `json:"building_main_no,omitempty"`
	BuildingSubNo   string `json:"building_sub_no,omitempty"`
	BuildingMgmtSN  string `json:"building_mgmt_sn,omitempty"`

	EnglishAddress string `json:"english_address,omitempty"`
}

// HasDetailKeys reports whether the candidate carries every key the detail
// lookup needs. A sub number of "0" is a valid value.
func (c AddressCandidate) HasDetailKeys() bool {
	return c.AdmCode != "" &&
		c.RoadNameMgmtSN != "" &&
		c.UndergroundFlag != "" &&
		c.BuildingMainNo != "" &&
		c.BuildingSubNo != ""
}

// ResolveResult is the outcome of a single resolution.
//
// When Candidates is empty, Best is nil and Message explains why. Otherwise
// Best points at Candidates[0].
type ResolveResult struct {
	Best       *AddressCandidate  `json:"best"`
	Candidates []AddressCandidate `json:"candidates"`
	Message    string             `json:"message,omitempty"`
}

// NewResolveResult builds a result whose Best is the first candidate.
func NewResolveResult(candidates []AddressCandidate) ResolveResult {
	if len(candidates) == 0 {
		return ResolveResult{Candidates: []AddressCandidate{}}
	}
	best := candidates[0]
	return ResolveResult{Best: &best, Candidates: candidates}
}

// EmptyResult builds a result with no candidates and an explanation.
func EmptyResult(message string) ResolveResult {
	return ResolveResult{Candidates: []AddressCandidate{}, Message: message}
}
