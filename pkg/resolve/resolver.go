// Package resolve turns free-form Korean address queries into ranked postcode
// candidates and, on request, enriches the best one with detail and English
// lookups.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/NERVsystems/postcodemcp/pkg/postcode"
)

// DefaultMaxCandidates is used when a caller does not ask for a count.
const DefaultMaxCandidates = 5

// CandidateSearcher is the keyword search the resolver delegates to.
type CandidateSearcher interface {
	Search(ctx context.Context, keyword string, maxResults int) ([]postcode.AddressCandidate, error)
}

// Resolver ranks search candidates, optionally biased towards a city.
type Resolver struct {
	searcher CandidateSearcher
	logger   *slog.Logger
}

// NewResolver creates a resolver over searcher.
func NewResolver(searcher CandidateSearcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{searcher: searcher, logger: logger.With("component", "resolver")}
}

// Resolve searches for query and returns the best candidate plus up to
// maxCandidates alternatives. Search errors are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, query, hintCity string, maxCandidates int) (postcode.ResolveResult, error) {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	candidates, err := r.searcher.Search(ctx, query, maxCandidates)
	if err != nil {
		return postcode.ResolveResult{}, err
	}
	if len(candidates) == 0 {
		return postcode.EmptyResult(fmt.Sprintf("no results for '%s'", query)), nil
	}

	if hint := strings.ToLower(strings.TrimSpace(hintCity)); hint != "" {
		rankByCity(candidates, hint)
		r.logger.Debug("reranked by city hint", "hint_city", hint, "best", candidates[0].RoadAddress)
	}

	result := postcode.NewResolveResult(candidates)
	if len(result.Candidates) > maxCandidates {
		result.Candidates = result.Candidates[:maxCandidates]
	}
	return result, nil
}

// rankByCity halves the score of every candidate whose road address does not
// mention hint. Equal scores keep their upstream order.
func rankByCity(candidates []postcode.AddressCandidate, hint string) {
	score := func(c postcode.AddressCandidate) float64 {
		if postcode.ContainsFold(c.RoadAddress, hint) {
			return c.Confidence
		}
		return c.Confidence * 0.5
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return score(candidates[i]) > score(candidates[j])
	})
}
