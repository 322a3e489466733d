package search_index

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocuments() []domain.Document {
	return []domain.Document{
		{
			ID:          "nz",
			Title:       "New Zealand",
			URI:         "https://docs.example/nz",
			StorageName: "nz.pdf",
			Paragraphs: []string{
				"New Zealand is an island country in the Pacific Ocean.",
				"Wellington is the capital of New Zealand. It is known for wind.",
			},
		},
		{
			ID:          "au",
			Title:       "Australia",
			URI:         "https://docs.example/au",
			StorageName: "au.pdf",
			Paragraphs: []string{
				"Canberra is the capital of Australia. It was purpose built.",
				"Sydney is the largest city in Australia.",
			},
		},
	}
}

func TestBleveIndex_IndexAndSearch(t *testing.T) {
	idx, err := NewMemBleveIndex(discardLogger())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.IndexDocuments(context.Background(), seedDocuments()))
	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	hits, err := idx.Search(context.Background(), defaultRequest("Wellington"))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Greater(t, hit.Score, 0.0)
	assert.Equal(t, "nz", hit.Source.DocumentID)
	assert.Equal(t, "New Zealand", hit.Source.Title)
	assert.Equal(t, "nz.pdf", hit.Source.StorageName)
	assert.Len(t, hit.Paragraphs, 2)

	highlights := hit.ParagraphHighlights()
	require.NotEmpty(t, highlights)
	assert.Contains(t, highlights[0], "<em>Wellington</em>")

	plain := strings.NewReplacer("<em>", "", "</em>", "").Replace(highlights[0])
	assert.Contains(t, hit.Paragraphs[1], plain)
}

func TestBleveIndex_SearchRespectsTop(t *testing.T) {
	idx, err := NewMemBleveIndex(discardLogger())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	require.NoError(t, idx.IndexDocuments(context.Background(), seedDocuments()))

	req := defaultRequest("capital")
	req.Top = 1
	hits, err := idx.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBleveIndex_RejectsDocumentWithoutID(t *testing.T) {
	idx, err := NewMemBleveIndex(discardLogger())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	err = idx.IndexDocuments(context.Background(), []domain.Document{{Title: "orphan"}})
	assert.Error(t, err)
}

func TestOpenBleveIndex_CreatesThenReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mrc.bleve")

	idx, err := OpenBleveIndex(path, discardLogger())
	require.NoError(t, err)
	require.NoError(t, idx.IndexDocuments(context.Background(), seedDocuments()))
	require.NoError(t, idx.Ping(context.Background()))
	require.NoError(t, idx.Close())

	reopened, err := OpenBleveIndex(path, discardLogger())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestCleanBleveFragment(t *testing.T) {
	assert.Equal(t, "the <em>capital</em> &amp; more", cleanBleveFragment("…the <mark>capital</mark> &amp;amp; more…"))
	assert.Equal(t, "Tom's <em>dog</em>", cleanBleveFragment("Tom&#39;s <mark>dog</mark>"))
}
