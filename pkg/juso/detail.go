package juso

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
)

// Detail search modes.
const (
	SearchModeDong    = "dong"
	SearchModeFloorHo = "floorho"
)

// DetailRequest identifies a building by the keys a search item carries and
// asks for its dong (building) or floor/unit breakdown.
type DetailRequest struct {
	AdmCode         string
	RoadNameMgmtSN  string
	UndergroundFlag string
	BuildingMainNo  string
	BuildingSubNo   string
	SearchMode      string // dong | floorho, empty means dong
	DongName        string // only meaningful with SearchModeDong
}

// DetailRequestFor builds a request from a candidate's detail-lookup keys.
func DetailRequestFor(c postcode.AddressCandidate, mode, dongName string) DetailRequest {
	return DetailRequest{
		AdmCode:         c.AdmCode,
		RoadNameMgmtSN:  c.RoadNameMgmtSN,
		UndergroundFlag: c.UndergroundFlag,
		BuildingMainNo:  c.BuildingMainNo,
		BuildingSubNo:   c.BuildingSubNo,
		SearchMode:      mode,
		DongName:        dongName,
	}
}

// NormalizeSearchMode lower-cases mode and defaults it to dong. It reports
// false for anything other than dong or floorho.
func NormalizeSearchMode(mode string) (string, bool) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "":
		return SearchModeDong, true
	case SearchModeDong, SearchModeFloorHo:
		return mode, true
	default:
		return mode, false
	}
}

// DetailProvider calls the detail address API (addrDetailApi.do).
type DetailProvider struct {
	client     *Client
	apiURL     string
	confirmKey string
	logger     *slog.Logger
}

// NewDetailProvider creates a detail provider. An empty apiURL selects the
// public endpoint.
func NewDetailProvider(client *Client, apiURL, confirmKey string, logger *slog.Logger) *DetailProvider {
	if apiURL == "" {
		apiURL = DetailAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DetailProvider{
		client:     client,
		apiURL:     apiURL,
		confirmKey: confirmKey,
		logger:     logger.With("component", "juso_detail"),
	}
}

// Search returns the raw detail payload. Transport and decoding failures
// come back exactly as the client reports them.
func (p *DetailProvider) Search(ctx context.Context, req DetailRequest) (map[string]any, error) {
	mode, ok := NormalizeSearchMode(req.SearchMode)
	if !ok {
		return nil, postcode.NewValidationError("search_type", "must be dong or floorho, got "+req.SearchMode)
	}

	params := url.Values{
		"confmKey":   {p.confirmKey},
		"resultType": {"json"},
		"admCd":      {req.AdmCode},
		"rnMgtSn":    {req.RoadNameMgmtSN},
		"udrtYn":     {req.UndergroundFlag},
		"buldMnnm":   {req.BuildingMainNo},
		"buldSlno":   {req.BuildingSubNo},
		"searchType": {mode},
	}
	if req.DongName != "" {
		params.Set("dongNm", req.DongName)
	}

	p.logger.Debug("detail lookup", "adm_code", req.AdmCode, "search_type", mode)
	return p.client.GetJSON(ctx, ServiceDetail, p.apiURL, params)
}
