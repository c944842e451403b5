package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peacockclub/assistant/memory"
	"github.com/peacockclub/assistant/memory/embedder/mock"
)

// fakeSource serves fixed accounts and transactions, with injectable errors.
type fakeSource struct {
	accounts []memory.AccountLite
	txs      []memory.TxLite

	accountsErr error
	txsErr      error

	gotParams memory.FetchParams
}

func (f *fakeSource) FetchAccounts(ctx context.Context) ([]memory.AccountLite, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeSource) FetchTransactions(ctx context.Context, params memory.FetchParams) ([]memory.TxLite, error) {
	f.gotParams = params
	if f.txsErr != nil {
		return nil, f.txsErr
	}
	return f.txs, nil
}

// failingEmbedder always fails the batch.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding backend down")
}

func (failingEmbedder) Dimensions() int { return 8 }

func newFakeSource() *fakeSource {
	accounts := testAccounts()
	return &fakeSource{
		accounts: []memory.AccountLite{accounts["m1"], accounts["m2"], accounts["v1"]},
		txs: []memory.TxLite{
			{ID: "t1", FromID: "m1", ToID: "m2", Amount: 500, Currency: "INR",
				Type: "DEPOSIT", Method: "UPI", OccurredAt: date("2024-03-05")},
			{ID: "t2", FromID: "m2", ToID: "v1", Amount: 50, Currency: "INR",
				Type: "FEE", Method: "CASH", OccurredAt: date("2024-03-06")},
		},
	}
}

func TestBuilderBuild(t *testing.T) {
	source := newFakeSource()
	builder := memory.NewBuilder(source, mock.New(64))

	store, err := builder.Build(context.Background())
	require.NoError(t, err)

	counts := store.Counts()
	assert.Equal(t, 3, counts.Account)
	assert.Equal(t, 2, counts.Tx)
	// m1/2024-03 and m2/2024-03; the vendor side of t2 gets no bucket.
	assert.Equal(t, 2, counts.Month)
	assert.Equal(t, 7, counts.Docs)

	docs := store.Documents()
	require.Len(t, docs, 7)

	// Accounts first, then month summaries, then transactions.
	assert.Equal(t, memory.DocTypeAccount, docs[0].Meta.DocType())
	assert.Equal(t, memory.DocTypeMonthSummary, docs[3].Meta.DocType())
	assert.Equal(t, memory.DocTypeTx, docs[5].Meta.DocType())

	assert.Len(t, store.Accounts(), 3)
}

func TestBuilderPassesTransactionLimit(t *testing.T) {
	source := newFakeSource()
	builder := memory.NewBuilder(source, mock.New(16), memory.WithMaxTransactions(500))

	_, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500, source.gotParams.Limit)
}

func TestBuilderFetchFailureAborts(t *testing.T) {
	source := newFakeSource()
	source.accountsErr = errors.New("connection refused")
	builder := memory.NewBuilder(source, mock.New(16))

	store, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "fetch accounts")
}

func TestBuilderEmbedFailureAborts(t *testing.T) {
	source := newFakeSource()
	builder := memory.NewBuilder(source, failingEmbedder{})

	store, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "embed corpus")
}

func TestStoreSimilaritySearch(t *testing.T) {
	source := newFakeSource()
	builder := memory.NewBuilder(source, mock.New(64))

	store, err := builder.Build(context.Background())
	require.NoError(t, err)

	results, err := store.SimilaritySearch(context.Background(), "deposits in March", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Requests beyond the corpus size are clamped, not failed.
	results, err = store.SimilaritySearch(context.Background(), "everything", 50)
	require.NoError(t, err)
	assert.Len(t, results, 7)
}
