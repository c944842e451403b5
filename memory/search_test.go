package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peacockclub/assistant/memory"
	"github.com/peacockclub/assistant/memory/embedder/mock"
)

func readyRegistry(t *testing.T) *memory.Registry {
	t.Helper()
	registry := memory.NewRegistry(zerolog.Nop())
	builder := memory.NewBuilder(newFakeSource(), mock.New(32))
	require.NoError(t, registry.Initialize(context.Background(), builder))
	return registry
}

func TestSearchUnavailableBeforeInitialize(t *testing.T) {
	registry := memory.NewRegistry(zerolog.Nop())
	service := memory.NewSearchService(registry, zerolog.Nop())

	result, err := service.Search(context.Background(), "anything", 6)
	require.NoError(t, err)
	assert.Equal(t, memory.ResultUnavailable, result)
}

func TestSearchEmptyCorpusReturnsNoMatches(t *testing.T) {
	// A club with no accounts and no transactions builds an empty corpus;
	// searching it reports "no results" rather than erroring.
	registry := memory.NewRegistry(zerolog.Nop())
	builder := memory.NewBuilder(&fakeSource{}, mock.New(32))
	require.NoError(t, registry.Initialize(context.Background(), builder))

	service := memory.NewSearchService(registry, zerolog.Nop())
	result, err := service.Search(context.Background(), "deposits", 6)
	require.NoError(t, err)
	assert.Equal(t, memory.ResultNoMatches, result)
}

func TestSearchReturnsAtMostK(t *testing.T) {
	service := memory.NewSearchService(readyRegistry(t), zerolog.Nop())

	result, err := service.Search(context.Background(), "deposits", 2)
	require.NoError(t, err)

	entries := strings.Split(result, "\n\n---\n\n")
	assert.Len(t, entries, 2)
	assert.True(t, strings.HasPrefix(entries[0], "[#1 "))
	assert.True(t, strings.HasPrefix(entries[1], "[#2 "))
}

func TestSearchSmallCorpusReturnsEverything(t *testing.T) {
	// Corpus has 7 documents; asking for more returns them all.
	service := memory.NewSearchService(readyRegistry(t), zerolog.Nop())

	result, err := service.Search(context.Background(), "club", 10)
	require.NoError(t, err)

	entries := strings.Split(result, "\n\n---\n\n")
	assert.Len(t, entries, 7)
}

func TestSearchClampsK(t *testing.T) {
	service := memory.NewSearchService(readyRegistry(t), zerolog.Nop())

	// Zero k falls back to the default, which exceeds this corpus.
	result, err := service.Search(context.Background(), "members", 0)
	require.NoError(t, err)
	assert.NotEqual(t, memory.ResultNoMatches, result)

	// Oversized k is clamped to the maximum rather than rejected.
	_, err = service.Search(context.Background(), "members", 100)
	require.NoError(t, err)
}

func TestSearchLabelsResults(t *testing.T) {
	service := memory.NewSearchService(readyRegistry(t), zerolog.Nop())

	result, err := service.Search(context.Background(), "Asha Rao account", 7)
	require.NoError(t, err)

	// All three document kinds carry their label in the header line.
	assert.Contains(t, result, "ACCOUNT ")
	assert.Contains(t, result, "TRANSACTION ")
	assert.Contains(t, result, "MONTH SUMMARY ")
}
