package mrc_reader

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestHTTPReaderClient_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ExtractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is the capital?", req.Question)
		assert.Equal(t, []string{"Wellington is the capital.", "It is windy."}, req.Contexts)

		_ = json.NewEncoder(w).Encode(ExtractResponse{
			Predictions: map[string]string{"0": "Wellington", "1": "empty", "7": "stray", "x": "bad"},
			Model:       "distilbert-squad2",
		})
	}))
	defer server.Close()

	client := NewHTTPReaderClient(server.URL+"/", "distilbert-squad2", time.Second, discardLogger())
	got, err := client.Extract(context.Background(), "What is the capital?", []string{"Wellington is the capital.", "It is windy."})
	require.NoError(t, err)

	assert.Equal(t, map[int]string{0: "Wellington", 1: "empty"}, got)
	assert.Equal(t, "distilbert-squad2", client.ModelName())
}

func TestHTTPReaderClient_Extract_NoPassages(t *testing.T) {
	client := NewHTTPReaderClient("http://unused.invalid", "m", time.Second, discardLogger())

	got, err := client.Extract(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHTTPReaderClient_Extract_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("model loading"))
	}))
	defer server.Close()

	client := NewHTTPReaderClient(server.URL, "m", time.Second, discardLogger(), server.Client())
	_, err := client.Extract(context.Background(), "q", []string{"p"})

	var cerr *domain.ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusServiceUnavailable, cerr.StatusCode)
	assert.Equal(t, "model loading", cerr.Body)
}

func TestHTTPReaderClient_Extract_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewHTTPReaderClient(server.URL, "m", 0, discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Extract(ctx, "q", []string{"p"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
