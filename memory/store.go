package memory

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// BuildCounts reports how many documents of each kind went into a build.
type BuildCounts struct {
	Docs    int
	Account int
	Tx      int
	Month   int
}

// Store is one assembled corpus: the embedded documents, the account lookup
// table and the build counts. A Store is never mutated after Build returns;
// rebuilds produce a fresh Store that replaces the old one wholesale.
type Store struct {
	docs       []Document
	byID       map[string]*Document
	collection *chromem.Collection
	accounts   map[string]AccountLite
	counts     BuildCounts
	embedder   Embedder
}

// Documents returns the corpus in build order: accounts first, then month
// summaries, then transactions.
func (s *Store) Documents() []Document { return s.docs }

// Accounts returns the account lookup table shared with narrative labels.
func (s *Store) Accounts() map[string]AccountLite { return s.accounts }

// Counts returns the build counts.
func (s *Store) Counts() BuildCounts { return s.counts }

// SimilaritySearch returns up to n documents ranked by embedding similarity
// to the query, highest first.
func (s *Store) SimilaritySearch(ctx context.Context, query string, n int) ([]Document, error) {
	total := s.collection.Count()
	if total == 0 {
		return nil, nil
	}
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.collection.QueryEmbedding(ctx, vectors[0], n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}

	matched := make([]Document, 0, len(results))
	for _, result := range results {
		if doc, ok := s.byID[result.ID]; ok {
			matched = append(matched, *doc)
		}
	}
	return matched, nil
}
