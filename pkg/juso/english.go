package juso

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

// ErrCodeEmptyKeyword marks the synthetic payload returned for a blank
// English lookup.
const ErrCodeEmptyKeyword = "EMPTY_KEYWORD"

// EnglishRequest asks for one page of English renderings of Keyword.
type EnglishRequest struct {
	Keyword  string
	Page     int
	PageSize int
}

// EnglishOptions configures the English address provider.
type EnglishOptions struct {
	APIURL     string
	ConfirmKey string
	PageSize   int
	FirstSort  string
	AddInfo    string
}

// EnglishProvider calls the English address API. It caches raw payloads,
// since callers project items themselves on every call.
type EnglishProvider struct {
	client *Client
	cache  Cache
	opts   EnglishOptions
	logger *slog.Logger
}

// NewEnglishProvider creates an English provider. cache may be nil.
func NewEnglishProvider(client *Client, cache Cache, opts EnglishOptions, logger *slog.Logger) *EnglishProvider {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EnglishProvider{
		client: client,
		cache:  cache,
		opts:   opts,
		logger: logger.With("component", "juso_english"),
	}
}

// Search returns the raw English payload for req.
func (p *EnglishProvider) Search(ctx context.Context, req EnglishRequest) (map[string]any, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return emptyKeywordPayload(), nil
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = p.opts.PageSize
	}

	key := fmt.Sprintf("juso:eng:%s:%d:%d:%s:%s", keyword, page, pageSize, p.opts.FirstSort, p.opts.AddInfo)
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			if payload, ok := cached.(map[string]any); ok {
				p.logger.Debug("cache hit", "keyword", keyword)
				return payload, nil
			}
		}
	}

	params := url.Values{
		"confmKey":     {p.opts.ConfirmKey},
		"keyword":      {keyword},
		"currentPage":  {strconv.Itoa(page)},
		"countPerPage": {strconv.Itoa(pageSize)},
		"resultType":   {"json"},
		"firstSort":    {p.opts.FirstSort},
		"addInfoYn":    {p.opts.AddInfo},
	}

	payload, err := p.client.GetJSON(ctx, ServiceEnglish, p.opts.APIURL, params)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Set(key, payload)
	}
	return payload, nil
}

func emptyKeywordPayload() map[string]any {
	return map[string]any{
		"results": map[string]any{
			"common": map[string]any{
				"errorCode":    ErrCodeEmptyKeyword,
				"errorMessage": "keyword is empty",
			},
			"juso": []any{},
		},
	}
}
