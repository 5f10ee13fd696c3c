package juso

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"

	"github.com/spf13/cast"
	"golang.org/x/sync/singleflight"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
)

// DefaultPageSize is the countPerPage sent upstream when none is configured.
const DefaultPageSize = 10

// Cache is the subset of the shared cache the providers use.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// SearchOptions configures the keyword search provider.
type SearchOptions struct {
	APIURL     string
	ConfirmKey string
	PageSize   int    // countPerPage, also the hard ceiling on results per search
	FirstSort  string // none | road | location
	AddInfo    string // Y | N
}

// SearchProvider pages through the keyword search API and caches the
// candidates it accumulates.
type SearchProvider struct {
	client *Client
	cache  Cache
	opts   SearchOptions
	group  singleflight.Group
	logger *slog.Logger
}

// NewSearchProvider creates a search provider sharing client and cache.
func NewSearchProvider(client *Client, cache Cache, opts SearchOptions, logger *slog.Logger) *SearchProvider {
	if opts.APIURL == "" {
		opts.APIURL = SearchAPIURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchProvider{
		client: client,
		cache:  cache,
		opts:   opts,
		logger: logger.With("component", "juso_search"),
	}
}

// PageSize returns the configured countPerPage.
func (p *SearchProvider) PageSize() int {
	return p.opts.PageSize
}

// Search returns up to min(maxResults, page size) candidates for keyword.
// A maxResults of zero or less means one full page.
func (p *SearchProvider) Search(ctx context.Context, keyword string, maxResults int) ([]postcode.AddressCandidate, error) {
	keyword = postcode.NormalizeQuery(keyword)
	if keyword == "" {
		return nil, postcode.NewValidationError("keyword", "search keyword is empty")
	}

	limit := p.opts.PageSize
	if maxResults > 0 && maxResults < limit {
		limit = maxResults
	}

	// The add-info flag is left out of the key; the English provider keys on it.
	key := fmt.Sprintf("juso:%s:%d:%s", keyword, limit, p.opts.FirstSort)

	if cached, ok := p.cache.Get(key); ok {
		p.logger.Debug("cache hit", "keyword", keyword)
		list, ok := cached.([]postcode.AddressCandidate)
		if !ok {
			return []postcode.AddressCandidate{}, nil
		}
		return slices.Clone(list), nil
	}

	// The shared fetch outlives any single caller's cancellation and is
	// bounded by the client timeout; each caller still honours its own ctx.
	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		candidates, err := p.fetch(fetchCtx, keyword, limit)
		if err != nil {
			return nil, err
		}
		// Empty results are not cached so a keyword can succeed later.
		if len(candidates) > 0 {
			p.cache.Set(key, candidates)
		}
		return candidates, nil
	})

	select {
	case <-ctx.Done():
		return nil, &postcode.UpstreamError{Service: ServiceSearch, Message: "search abandoned", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.logger.Debug("shared in-flight search", "keyword", keyword)
		}
		return slices.Clone(res.Val.([]postcode.AddressCandidate)), nil
	}
}

// fetch pages through the upstream until limit candidates are collected or
// the upstream runs out of results.
func (p *SearchProvider) fetch(ctx context.Context, keyword string, limit int) ([]postcode.AddressCandidate, error) {
	candidates := make([]postcode.AddressCandidate, 0, limit)
	seen := 0

	for page := 1; len(candidates) < limit; page++ {
		payload, err := p.client.GetJSON(ctx, ServiceSearch, p.opts.APIURL, p.params(keyword, page))
		if err != nil {
			p.logger.Error("search request failed", "keyword", keyword, "page", page, "error", err)
			return nil, err
		}

		common, items := ExtractItems(payload)
		if code := errorCode(common); code != "0" {
			message := cast.ToString(common["errorMessage"])
			if message == "" {
				message = "unknown error"
			}
			p.logger.Error("search API returned error", "code", code, "message", message)
			return nil, &postcode.UpstreamError{Service: ServiceSearch, Code: code, Message: message}
		}

		if len(items) == 0 {
			break
		}
		total := cast.ToInt(common["totalCount"])

		for _, item := range items {
			if len(candidates) >= limit {
				break
			}
			candidate, ok := candidateFromItem(item)
			if !ok {
				p.logger.Debug("skipping item without road address or postcode", "keyword", keyword)
				continue
			}
			candidates = append(candidates, candidate)
		}

		seen += len(items)
		if len(items) < p.opts.PageSize || seen >= total {
			break
		}
	}

	p.logger.Debug("search completed", "keyword", keyword, "candidates", len(candidates))
	return candidates, nil
}

func (p *SearchProvider) params(keyword string, page int) url.Values {
	return url.Values{
		"confmKey":     {p.opts.ConfirmKey},
		"keyword":      {keyword},
		"currentPage":  {strconv.Itoa(page)},
		"countPerPage": {strconv.Itoa(p.opts.PageSize)},
		"resultType":   {"json"},
		"firstSort":    {p.opts.FirstSort},
		"addInfoYn":    {p.opts.AddInfo},
	}
}
