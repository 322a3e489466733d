package di_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/AzureSearch-MRC/internal/adapter/mrc_reader"
	"github.com/microsoft/AzureSearch-MRC/internal/di"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/config"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/httpclient"
)

func testConfig() *config.Config {
	return &config.Config{
		SearchBackend:       config.BackendBleve,
		SearchTimeout:       time.Second,
		SearchFields:        []string{"paragraphs"},
		HighlightFields:     []string{"paragraphs-3"},
		SelectFields:        []string{"paragraphs", "title"},
		ReaderBackend:       config.ReaderHTTP,
		ReaderURL:           "http://reader.invalid",
		ReaderTimeout:       time.Second,
		SentenceLanguage:    "en",
		DefaultDocuments:    5,
		DefaultThreshold:    0,
		DefaultTokenize:     true,
		DefaultRerankBudget: 3,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApplicationComponents_Bleve(t *testing.T) {
	c, err := di.NewApplicationComponents(testConfig(), discardLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "bleve", c.Index.Name())
	assert.NotNil(t, c.AnswerUsecase)
	assert.NotNil(t, c.Handler)
	assert.Equal(t, 3, c.Defaults.RerankBudget)
	assert.IsType(t, &mrc_reader.HTTPReaderClient{}, c.Reader)
}

func TestNewApplicationComponents_UnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.SearchBackend = "solr"

	_, err := di.NewApplicationComponents(cfg, discardLogger())
	assert.Error(t, err)
}

func TestNewReader_Ollama(t *testing.T) {
	cfg := testConfig()
	cfg.ReaderBackend = config.ReaderOllama
	cfg.ReaderModel = "qwen2.5"

	reader, ok := di.NewReader(cfg, discardLogger()).(*mrc_reader.OllamaReader)
	require.True(t, ok)
	assert.Equal(t, httpclient.NewPooledClient(0).Transport, reader.Client.Transport)
	assert.Equal(t, cfg.ReaderTimeout, reader.Client.Timeout)
}
