package memory

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Source is the read-only fetch contract over the club's financial data.
// Each call is all-or-nothing: a query failure returns an error and no rows.
type Source interface {
	FetchAccounts(ctx context.Context) ([]AccountLite, error)
	FetchTransactions(ctx context.Context, params FetchParams) ([]TxLite, error)
}

// Embedder converts a batch of texts into vectors of fixed dimension.
// A failure on any text fails the whole batch.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Builder orchestrates one full corpus build: fetch, narrate, embed,
// assemble. Builds are batch and all-or-nothing; there is no incremental
// indexing.
type Builder struct {
	source          Source
	embedder        Embedder
	maxTransactions int
	log             zerolog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMaxTransactions caps how many most-recent transactions one build
// indexes.
func WithMaxTransactions(n int) BuilderOption {
	return func(b *Builder) { b.maxTransactions = n }
}

// WithBuildLogger sets the builder's logger.
func WithBuildLogger(log zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.log = log }
}

// NewBuilder creates a Builder over the given data source and embedder.
func NewBuilder(source Source, embedder Embedder, opts ...BuilderOption) *Builder {
	b := &Builder{
		source:          source,
		embedder:        embedder,
		maxTransactions: DefaultMaxTransactions,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches accounts and transactions in parallel, generates one
// document per account, per qualifying monthly bucket and per transaction,
// embeds everything and returns the assembled Store. Any fetch or embedding
// failure aborts the whole build; no partial store is ever returned.
func (b *Builder) Build(ctx context.Context) (*Store, error) {
	var (
		accounts     []AccountLite
		transactions []TxLite
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = b.source.FetchAccounts(gctx)
		if err != nil {
			return fmt.Errorf("fetch accounts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		transactions, err = b.source.FetchTransactions(gctx, FetchParams{Limit: b.maxTransactions})
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.log.Info().
		Int("accounts", len(accounts)).
		Int("transactions", len(transactions)).
		Msg("fetched club data")

	accByID := make(map[string]AccountLite, len(accounts))
	for _, account := range accounts {
		accByID[account.ID] = account
	}

	monthDocs := BuildMonthlySummaries(transactions, accByID)

	// Document order: accounts, then month summaries, then transactions.
	// Search is unordered; the fixed order keeps fixtures reproducible.
	docs := make([]Document, 0, len(accounts)+len(monthDocs)+len(transactions))
	for _, account := range accounts {
		docs = append(docs, NewAccountDocument(account))
	}
	docs = append(docs, monthDocs...)
	for _, tx := range transactions {
		docs = append(docs, NewTransactionDocument(tx, accByID))
	}

	counts := BuildCounts{
		Docs:    len(docs),
		Account: len(accounts),
		Tx:      len(transactions),
		Month:   len(monthDocs),
	}

	b.log.Info().
		Int("docs", counts.Docs).
		Int("account_docs", counts.Account).
		Int("tx_docs", counts.Tx).
		Int("month_docs", counts.Month).
		Msg("creating embeddings")

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("finance", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	byID := make(map[string]*Document, len(docs))
	for i := range docs {
		doc := &docs[i]
		byID[doc.ID] = doc

		err := collection.AddDocument(ctx, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Text,
			Embedding: vectors[i],
			Metadata:  map[string]string{"docType": doc.Meta.DocType()},
		})
		if err != nil {
			return nil, fmt.Errorf("add document: %w", err)
		}
	}

	b.log.Info().Int("docs", counts.Docs).Msg("memory store built")

	return &Store{
		docs:       docs,
		byID:       byID,
		collection: collection,
		accounts:   accByID,
		counts:     counts,
		embedder:   b.embedder,
	}, nil
}
