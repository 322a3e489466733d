package search_index

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func defaultRequest(text string) domain.SearchRequest {
	return domain.SearchRequest{
		Text:            text,
		SearchFields:    []string{"paragraphs"},
		HighlightFields: []string{"paragraphs-3"},
		SelectFields:    []string{"paragraphs", "metadata_storage_name", "document_id", "document_uri", "title"},
		Top:             5,
	}
}

func TestAzureSearchClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/indexes/docs/docs/search", r.URL.Path)
		assert.Equal(t, "2020-06-30", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "capital of new zealand", body["search"])
		assert.Equal(t, "paragraphs", body["searchFields"])
		assert.Equal(t, "paragraphs-3", body["highlight"])
		assert.Equal(t, "paragraphs,metadata_storage_name,document_id,document_uri,title", body["select"])
		assert.Equal(t, float64(5), body["top"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"value": [{
				"@search.score": 7.25,
				"@search.highlights": {"paragraphs": ["Wellington is the <em>capital</em> of New Zealand"]},
				"paragraphs": ["Wellington is the capital of New Zealand. It is windy."],
				"metadata_storage_name": "nz.pdf",
				"document_id": "doc-1",
				"document_uri": "https://docs.example/nz.pdf",
				"title": "New Zealand"
			}]
		}`))
	}))
	defer server.Close()

	client := NewAzureSearchClient(server.URL+"/", "docs", "secret", "2020-06-30", server.Client(), discardLogger())
	hits, err := client.Search(context.Background(), defaultRequest("capital of new zealand"))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, 7.25, hits[0].Score)
	assert.Equal(t, []string{"Wellington is the capital of New Zealand. It is windy."}, hits[0].Paragraphs)
	assert.Equal(t, []string{"Wellington is the <em>capital</em> of New Zealand"}, hits[0].ParagraphHighlights())
	assert.Equal(t, domain.SourceMetadata{
		DocumentID:  "doc-1",
		Title:       "New Zealand",
		DocumentURI: "https://docs.example/nz.pdf",
		StorageName: "nz.pdf",
	}, hits[0].Source)
	assert.Equal(t, "azure", client.Name())
}

func TestAzureSearchClient_Search_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	client := NewAzureSearchClient(server.URL, "docs", "wrong", "2020-06-30", server.Client(), discardLogger())
	_, err := client.Search(context.Background(), defaultRequest("q"))

	var cerr *domain.ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusForbidden, cerr.StatusCode)
	assert.Contains(t, cerr.Body, "bad key")
}

func TestAzureSearchClient_Search_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value": [`))
	}))
	defer server.Close()

	client := NewAzureSearchClient(server.URL, "docs", "k", "2020-06-30", server.Client(), discardLogger())
	_, err := client.Search(context.Background(), defaultRequest("q"))
	assert.Error(t, err)
}

func TestAzureSearchClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/indexes/docs/docs/$count", r.URL.Path)
		if r.Header.Get("api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("42"))
	}))
	defer server.Close()

	ok := NewAzureSearchClient(server.URL, "docs", "secret", "2020-06-30", server.Client(), discardLogger())
	assert.NoError(t, ok.Ping(context.Background()))

	bad := NewAzureSearchClient(server.URL, "docs", "nope", "2020-06-30", server.Client(), discardLogger())
	assert.Error(t, bad.Ping(context.Background()))
}
