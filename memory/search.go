package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Retrieval bounds for the memory search tool.
const (
	DefaultRetrievalK    = 6
	MaxRetrievalK        = 12
	retrievalMultiplier  = 4
	minRetrievalOverscan = 20
)

// Sentinel results for soft degradation. The agent treats these as answers,
// not errors.
const (
	ResultUnavailable = "Memory store is not available. Please wait for initialization or contact support."
	ResultNoMatches   = "No relevant results found in the memory store for your query."
)

// SearchService is the semantic query surface over the registry's corpus.
type SearchService struct {
	registry *Registry
	log      zerolog.Logger
}

// NewSearchService creates a SearchService over the given registry.
func NewSearchService(registry *Registry, log zerolog.Logger) *SearchService {
	return &SearchService{registry: registry, log: log}
}

// Search runs a semantic query and returns up to k formatted results.
// k is clamped to [1, MaxRetrievalK]; zero or negative means the default.
// Retrieval over-fetches max(k*4, 20) candidates then trims to k, which
// compensates for similarity ranking noise near the boundary without
// ranking the whole corpus.
func (s *SearchService) Search(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	if k > MaxRetrievalK {
		k = MaxRetrievalK
	}

	store, err := s.registry.Get()
	if err != nil {
		s.log.Warn().Str("query", query).Msg("memory search before store initialized")
		return ResultUnavailable, nil
	}

	overscan := k * retrievalMultiplier
	if overscan < minRetrievalOverscan {
		overscan = minRetrievalOverscan
	}

	raw, err := store.SimilaritySearch(ctx, query, overscan)
	if err != nil {
		return "", fmt.Errorf("memory search: %w", err)
	}
	if len(raw) > k {
		raw = raw[:k]
	}
	if len(raw) == 0 {
		return ResultNoMatches, nil
	}

	parts := make([]string, len(raw))
	for i, doc := range raw {
		parts[i] = fmt.Sprintf("[#%d %s]\n%s", i+1, docLabel(doc), doc.Text)
	}

	s.log.Debug().
		Str("query", query).
		Int("requested", k).
		Int("returned", len(raw)).
		Msg("memory search completed")

	return strings.Join(parts, "\n\n---\n\n"), nil
}

func docLabel(doc Document) string {
	if doc.Meta == nil {
		return "DOCUMENT unknown"
	}
	return doc.Meta.Label()
}
