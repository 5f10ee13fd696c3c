package resolve

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/NERVsystems/postcodemcp/pkg/juso"
	"github.com/NERVsystems/postcodemcp/pkg/postcode"
)

// DefaultEnglishPageSize is the number of English renderings requested when
// the caller does not say.
const DefaultEnglishPageSize = 5

// Error codes placed in the common block of a degraded optional stage.
const (
	CodeNoDetailProvider  = "NO_DETAIL_PROVIDER"
	CodeNoBest            = "NO_BEST"
	CodeMissingKeys       = "MISSING_KEYS"
	CodeNoEnglishProvider = "NO_ENGLISH_PROVIDER"
	CodeUpstreamError     = "UPSTREAM_ERROR"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeLookupFailed      = "LOOKUP_FAILED"
)

// DetailSearcher looks up the dong or floor/unit breakdown of a building.
type DetailSearcher interface {
	Search(ctx context.Context, req juso.DetailRequest) (map[string]any, error)
}

// EnglishSearcher renders an address in English.
type EnglishSearcher interface {
	Search(ctx context.Context, req juso.EnglishRequest) (map[string]any, error)
}

// ResolveOptions controls a full resolution.
type ResolveOptions struct {
	Query            string
	HintCity         string
	MaxCandidates    int
	IncludeDetail    bool
	DetailSearchMode string
	DongName         string
	IncludeEnglish   bool
	EnglishPageSize  int
}

// DetailBlock is the detail stage of an AddressResult.
type DetailBlock struct {
	Common map[string]any   `json:"common"`
	Items  []map[string]any `json:"items"`
}

// EnglishBlock is the English stage of an AddressResult.
type EnglishBlock struct {
	Common     map[string]any     `json:"common"`
	Best       *juso.EnglishItem  `json:"best"`
	Candidates []juso.EnglishItem `json:"candidates"`
}

// AddressResult is the composite outcome of AddressService.Resolve. Detail
// and English are nil unless requested; a requested stage that could not run
// carries an errorCode in its common block.
type AddressResult struct {
	Best       *postcode.AddressCandidate  `json:"best"`
	Candidates []postcode.AddressCandidate `json:"candidates"`
	Detail     *DetailBlock                `json:"detail"`
	English    *EnglishBlock               `json:"english"`
	Message    string                      `json:"message,omitempty"`
	Meta       map[string]any              `json:"meta"`
}

// AddressService runs the resolution pipeline: search and rank, then the
// optional detail and English stages. The detail and English providers may
// be nil; requesting an absent stage yields a degraded block.
type AddressService struct {
	resolver *Resolver
	detail   DetailSearcher
	english  EnglishSearcher
	logger   *slog.Logger
}

// NewAddressService wires the pipeline. Pass a nil interface, never a typed
// nil pointer, for an unconfigured provider.
func NewAddressService(resolver *Resolver, detail DetailSearcher, english EnglishSearcher, logger *slog.Logger) *AddressService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddressService{
		resolver: resolver,
		detail:   detail,
		english:  english,
		logger:   logger.With("component", "address_service"),
	}
}

// DetailEnabled reports whether a detail provider is configured.
func (s *AddressService) DetailEnabled() bool { return s.detail != nil }

// EnglishEnabled reports whether an English provider is configured.
func (s *AddressService) EnglishEnabled() bool { return s.english != nil }

// Resolve runs the pipeline for opts. Only failures of the search stage are
// returned as errors.
func (s *AddressService) Resolve(ctx context.Context, opts ResolveOptions) (AddressResult, error) {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if strings.TrimSpace(opts.DetailSearchMode) == "" {
		opts.DetailSearchMode = juso.SearchModeDong
	}

	base, err := s.resolver.Resolve(ctx, opts.Query, opts.HintCity, opts.MaxCandidates)
	if err != nil {
		return AddressResult{}, err
	}

	result := AddressResult{
		Best:       base.Best,
		Candidates: base.Candidates,
		Message:    base.Message,
		Meta: map[string]any{
			"query":              opts.Query,
			"hint_city":          opts.HintCity,
			"max_candidates":     opts.MaxCandidates,
			"include_detail":     opts.IncludeDetail,
			"detail_search_type": opts.DetailSearchMode,
			"include_english":    opts.IncludeEnglish,
		},
	}

	if opts.IncludeDetail {
		result.Detail = s.detailStage(ctx, base.Best, opts)
	}

	if opts.IncludeEnglish {
		input := opts.Query
		if base.Best != nil {
			if road := strings.TrimSpace(base.Best.RoadAddress); road != "" {
				input = road
			} else if lot := strings.TrimSpace(base.Best.LotAddress); lot != "" {
				input = lot
			}
		}

		block, err := s.English(ctx, input, opts.EnglishPageSize)
		if err != nil {
			s.logger.Warn("english stage degraded", "input", input, "error", err)
			block = &EnglishBlock{Common: failureCommon(err), Candidates: []juso.EnglishItem{}}
		}
		result.English = block
	}

	return result, nil
}

func (s *AddressService) detailStage(ctx context.Context, best *postcode.AddressCandidate, opts ResolveOptions) *DetailBlock {
	switch {
	case s.detail == nil:
		return degradedDetail(CodeNoDetailProvider, "detail API key/provider not configured")
	case best == nil:
		return degradedDetail(CodeNoBest, "no best address to resolve detail")
	case !best.HasDetailKeys():
		return degradedDetail(CodeMissingKeys,
			"best candidate lacks required keys for detail lookup (need admCd/rnMgtSn/udrtYn/buldMnnm/buldSlno)")
	}

	payload, err := s.detail.Search(ctx, juso.DetailRequestFor(*best, opts.DetailSearchMode, opts.DongName))
	if err != nil {
		s.logger.Warn("detail stage degraded", "road_address", best.RoadAddress, "error", err)
		return &DetailBlock{Common: failureCommon(err), Items: []map[string]any{}}
	}

	common, items := juso.ExtractItems(payload)
	return &DetailBlock{Common: common, Items: items}
}

// English runs the English lookup alone. A missing provider yields a
// NO_ENGLISH_PROVIDER block; provider failures are returned as errors.
func (s *AddressService) English(ctx context.Context, keyword string, pageSize int) (*EnglishBlock, error) {
	if s.english == nil {
		return &EnglishBlock{
			Common:     errorCommon(CodeNoEnglishProvider, "English API key/provider not configured"),
			Candidates: []juso.EnglishItem{},
		}, nil
	}
	if pageSize <= 0 {
		pageSize = DefaultEnglishPageSize
	}

	payload, err := s.english.Search(ctx, juso.EnglishRequest{Keyword: keyword, Page: 1, PageSize: pageSize})
	if err != nil {
		return nil, err
	}

	common, items := juso.ExtractItems(payload)
	block := &EnglishBlock{Common: common, Candidates: juso.NormalizeEnglishItems(items)}
	if len(block.Candidates) > 0 {
		best := block.Candidates[0]
		block.Best = &best
	}
	return block, nil
}

func degradedDetail(code, message string) *DetailBlock {
	return &DetailBlock{Common: errorCommon(code, message), Items: []map[string]any{}}
}

func errorCommon(code, message string) map[string]any {
	return map[string]any{"errorCode": code, "errorMessage": message}
}

// failureCommon classifies a provider error for a degraded block.
func failureCommon(err error) map[string]any {
	var ve *postcode.ValidationError
	var ue *postcode.UpstreamError
	switch {
	case errors.As(err, &ve):
		return errorCommon(CodeInvalidRequest, err.Error())
	case errors.As(err, &ue):
		return errorCommon(CodeUpstreamError, err.Error())
	default:
		return errorCommon(CodeLookupFailed, err.Error())
	}
}
