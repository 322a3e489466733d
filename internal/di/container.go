package di

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/meilisearch/meilisearch-go"

	"github.com/microsoft/AzureSearch-MRC/internal/adapter/mrc_http"
	"github.com/microsoft/AzureSearch-MRC/internal/adapter/mrc_reader"
	"github.com/microsoft/AzureSearch-MRC/internal/adapter/search_index"
	"github.com/microsoft/AzureSearch-MRC/internal/adapter/sentence"
	"github.com/microsoft/AzureSearch-MRC/internal/domain"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/config"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/httpclient"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/logger"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase/ranking"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Index     domain.SearchIndex
	Tokenizer domain.SentenceTokenizer
	Reader    domain.AnswerExtractor
	Reranker  domain.PassageReranker

	AnswerUsecase usecase.AnswerQuestionUsecase
	Handler       *mrc_http.Handler
	Defaults      mrc_http.Defaults

	closers []io.Closer
}

// NewApplicationComponents wires every collaborator from config. Tokenizer
// models and the search backend are initialised once here.
func NewApplicationComponents(cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	c := &ApplicationComponents{}

	tokenizer, err := NewSentenceTokenizer(cfg.SentenceLanguage)
	if err != nil {
		return nil, err
	}
	c.Tokenizer = tokenizer

	index, err := c.newSearchIndex(cfg, log)
	if err != nil {
		return nil, err
	}
	c.Index = index

	c.Reader = NewReader(cfg, log)
	c.Reranker = ranking.NewReranker(ranking.NewModel(), log)

	normalizer := retrieval.NewNormalizer(retrieval.NewExtractor(tokenizer), log)
	c.AnswerUsecase = usecase.NewAnswerQuestionUsecase(
		index,
		normalizer,
		c.Reranker,
		c.Reader,
		usecase.AnswerQuestionConfig{
			SearchFields:    cfg.SearchFields,
			HighlightFields: cfg.HighlightFields,
			SelectFields:    cfg.SelectFields,
			SearchTimeout:   cfg.SearchTimeout,
			ReaderTimeout:   cfg.ReaderTimeout,
		},
		log,
	)

	c.Defaults = mrc_http.Defaults{
		Documents:    cfg.DefaultDocuments,
		Threshold:    cfg.DefaultThreshold,
		Tokenize:     cfg.DefaultTokenize,
		RerankBudget: cfg.DefaultRerankBudget,
	}
	c.Handler = mrc_http.NewHandler(c.AnswerUsecase, c.Defaults, index, logger.NewContextLogger(log))

	return c, nil
}

// NewSentenceTokenizer builds the tokenizer for the configured language mode.
func NewSentenceTokenizer(language string) (domain.SentenceTokenizer, error) {
	punkt, err := sentence.NewPunktTokenizer()
	if err != nil {
		return nil, fmt.Errorf("load punkt model: %w", err)
	}
	if language == "en" {
		return punkt, nil
	}
	kagome, err := sentence.NewKagomeTokenizer()
	if err != nil {
		return nil, fmt.Errorf("load kagome dictionary: %w", err)
	}
	return sentence.NewLanguageRouter(punkt, kagome), nil
}

func (c *ApplicationComponents) newSearchIndex(cfg *config.Config, log *slog.Logger) (domain.SearchIndex, error) {
	switch cfg.SearchBackend {
	case config.BackendAzure:
		return search_index.NewAzureSearchClient(
			cfg.AzureEndpoint(),
			cfg.AzureSearchIndexName,
			cfg.AzureSearchAPIKey,
			cfg.AzureSearchAPIVersion,
			httpclient.NewPooledClient(cfg.SearchTimeout),
			log,
		), nil
	case config.BackendMeilisearch:
		client := meilisearch.New(cfg.MeilisearchHost, meilisearch.WithAPIKey(cfg.MeilisearchAPIKey))
		return search_index.NewMeilisearchClient(client, cfg.MeilisearchIndex, log), nil
	case config.BackendBleve:
		idx, err := OpenBleve(cfg.BleveIndexPath, log)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, idx)
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.SearchBackend)
	}
}

// OpenBleve opens the on-disk index at path, or an in-memory one when path
// is empty.
func OpenBleve(path string, log *slog.Logger) (*search_index.BleveIndex, error) {
	if path == "" {
		idx, err := search_index.NewMemBleveIndex(log)
		if err != nil {
			return nil, fmt.Errorf("create in-memory bleve index: %w", err)
		}
		return idx, nil
	}
	idx, err := search_index.OpenBleveIndex(path, log)
	if err != nil {
		return nil, fmt.Errorf("open bleve index %s: %w", path, err)
	}
	return idx, nil
}

// NewReader builds the extractive QA client for the configured backend.
func NewReader(cfg *config.Config, log *slog.Logger) domain.AnswerExtractor {
	if cfg.ReaderBackend == config.ReaderOllama {
		return mrc_reader.NewOllamaReader(
			cfg.ReaderURL,
			cfg.ReaderModel,
			cfg.ReaderTimeout,
			log,
			httpclient.NewPooledClient(cfg.ReaderTimeout),
		)
	}
	return mrc_reader.NewHTTPReaderClient(
		cfg.ReaderURL,
		cfg.ReaderModel,
		cfg.ReaderTimeout,
		log,
		httpclient.NewPooledClient(cfg.ReaderTimeout),
	)
}

// Close releases the resources opened by NewApplicationComponents.
func (c *ApplicationComponents) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
