package mrc_reader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaServer(t *testing.T, reply func(passage string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)

		prompt := req.Messages[0].Content
		passage := prompt[strings.LastIndex(prompt, "Passage: ")+len("Passage: "):]

		var resp chatResponse
		resp.Message.Content = reply(passage)
		resp.Done = true
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOllamaReader_Extract(t *testing.T) {
	server := ollamaServer(t, func(passage string) string {
		switch {
		case strings.Contains(passage, "Wellington"):
			return `{"found": true, "answer": "Wellington"}`
		case strings.Contains(passage, "Auckland"):
			return `{"found": true, "answer": "Christchurch"}`
		case strings.Contains(passage, "garbled"):
			return `not json`
		default:
			return `{"found": false, "answer": ""}`
		}
	})
	defer server.Close()

	reader := NewOllamaReader(server.URL, "qwen", 5*time.Second, discardLogger())
	got, err := reader.Extract(context.Background(), "What is the capital?", []string{
		"Wellington is the capital.",
		"Auckland is the largest city.",
		"It is windy.",
		"garbled passage",
	})
	require.NoError(t, err)

	assert.Equal(t, map[int]string{
		0: "Wellington",
		1: domain.NoAnswerToken,
		2: domain.NoAnswerToken,
		3: domain.NoAnswerToken,
	}, got)
	assert.Equal(t, "qwen", reader.ModelName())
}

func TestOllamaReader_Extract_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reader := NewOllamaReader(server.URL, "qwen", 5*time.Second, discardLogger())
	_, err := reader.Extract(context.Background(), "q", []string{"a", "b"})

	var cerr *domain.ClientError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusInternalServerError, cerr.StatusCode)
}

func TestNewOllamaReader_Client(t *testing.T) {
	server := ollamaServer(t, func(string) string {
		return `{"found": true, "answer": "Wellington"}`
	})
	defer server.Close()

	injected := server.Client()
	reader := NewOllamaReader(server.URL, "qwen", 5*time.Second, discardLogger(), injected)
	assert.Same(t, injected, reader.Client)

	got, err := reader.Extract(context.Background(), "q", []string{"Wellington is the capital."})
	require.NoError(t, err)
	assert.Equal(t, "Wellington", got[0])

	fallback := NewOllamaReader(server.URL, "qwen", 5*time.Second, discardLogger())
	assert.Equal(t, 5*time.Second, fallback.Client.Timeout)
}
