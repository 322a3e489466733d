package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/microsoft/AzureSearch-MRC/internal/domain"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/logger"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase/ranking"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSearchIndex struct {
	mock.Mock
}

func (m *mockSearchIndex) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Hit, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Hit), args.Error(1)
}

func (m *mockSearchIndex) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSearchIndex) Name() string {
	return "mock"
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Extract(ctx context.Context, question string, passages []string) (map[int]string, error) {
	args := m.Called(ctx, question, passages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]string), args.Error(1)
}

func (m *mockReader) ModelName() string {
	return "mock-reader"
}

type mockReranker struct {
	mock.Mock
}

func (m *mockReranker) Rerank(ctx context.Context, query string, candidates domain.CandidateSet, budget int) (domain.CandidateSet, error) {
	args := m.Called(ctx, query, candidates, budget)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.CandidateSet), args.Error(1)
}

// lineTokenizer treats every ". "-terminated chunk as a sentence.
type lineTokenizer struct{}

func (lineTokenizer) Tokenize(text string) []string {
	var out []string
	for _, s := range strings.SplitAfter(text, ". ") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testConfig() usecase.AnswerQuestionConfig {
	return usecase.AnswerQuestionConfig{
		SearchFields:    []string{"paragraphs"},
		HighlightFields: []string{"paragraphs-3"},
		SelectFields:    []string{"paragraphs", "metadata_storage_name", "document_id", "document_uri", "title"},
		SearchTimeout:   time.Second,
		ReaderTimeout:   time.Second,
	}
}

func newUsecase(index domain.SearchIndex, reranker domain.PassageReranker, reader domain.AnswerExtractor) usecase.AnswerQuestionUsecase {
	normalizer := retrieval.NewNormalizer(retrieval.NewExtractor(lineTokenizer{}), discardLogger())
	return usecase.NewAnswerQuestionUsecase(index, normalizer, reranker, reader, testConfig(), discardLogger())
}

func docHit(id string, score float64, paragraph, highlight string) domain.Hit {
	return domain.Hit{
		Score:      score,
		Paragraphs: []string{paragraph},
		Highlights: map[string][]string{domain.ParagraphsField: {highlight}},
		Source: domain.SourceMetadata{
			DocumentID:  id,
			Title:       "Title " + id,
			DocumentURI: "https://docs.example/" + id,
			StorageName: id + ".pdf",
		},
	}
}

func defaultInput(question string) usecase.AnswerQuestionInput {
	return usecase.AnswerQuestionInput{
		Question:     question,
		Documents:    5,
		Threshold:    5,
		Tokenize:     true,
		RerankBudget: 3,
	}
}

func TestAnswerQuestion_NoQuestion(t *testing.T) {
	index := new(mockSearchIndex)
	reader := new(mockReader)
	uc := newUsecase(index, new(mockReranker), reader)

	out, err := uc.Execute(context.Background(), defaultInput("   "))
	assert.ErrorIs(t, err, domain.ErrNoQuestion)
	assert.Nil(t, out)
	index.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	reader.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerQuestion_EmptyCandidatesSkipsReader(t *testing.T) {
	index := new(mockSearchIndex)
	reader := new(mockReader)
	uc := newUsecase(index, new(mockReranker), reader)

	index.On("Search", mock.Anything, mock.Anything).Return([]domain.Hit{
		docHit("low", 4.9, "Alpha one. Bravo two.", "Alpha"),
	}, nil)

	out, err := uc.Execute(context.Background(), defaultInput("what is alpha"))
	require.NoError(t, err)
	assert.Equal(t, domain.StageEmpty, out.Stage)
	assert.Empty(t, out.Answers)
	assert.Equal(t, domain.AnswerCounts{}, out.Counts)
	assert.NotEmpty(t, out.RequestID)
	reader.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerQuestion_SearchRequestShape(t *testing.T) {
	index := new(mockSearchIndex)
	uc := newUsecase(index, new(mockReranker), new(mockReader))

	index.On("Search", mock.Anything, mock.MatchedBy(func(req domain.SearchRequest) bool {
		return req.Text == "capital of new zealand" &&
			req.Top == 7 &&
			assert.ObjectsAreEqual([]string{"paragraphs"}, req.SearchFields) &&
			assert.ObjectsAreEqual([]string{"paragraphs-3"}, req.HighlightFields) &&
			len(req.SelectFields) == 5
	})).Return([]domain.Hit{}, nil)

	in := defaultInput("capital of new zealand")
	in.Documents = 7
	_, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	index.AssertExpectations(t)
}

func TestAnswerQuestion_WithinBudgetSkipsReranker(t *testing.T) {
	index := new(mockSearchIndex)
	reranker := new(mockReranker)
	reader := new(mockReader)
	uc := newUsecase(index, reranker, reader)

	index.On("Search", mock.Anything, mock.Anything).Return([]domain.Hit{
		docHit("a", 10, "Wellington is the capital. It is windy.", "Wellington"),
		docHit("b", 9, "Auckland is larger. It is not the capital.", "Auckland"),
	}, nil)
	reader.On("Extract", mock.Anything, "capital?", []string{
		"Wellington is the capital.. It is windy.",
		"Auckland is larger.. It is not the capital.",
	}).Return(map[int]string{0: "Wellington", 1: "empty"}, nil)

	out, err := uc.Execute(context.Background(), defaultInput("capital?"))
	require.NoError(t, err)

	assert.Equal(t, domain.StageDone, out.Stage)
	assert.Equal(t, domain.AnswerCounts{Documents: 2, Answers: 1}, out.Counts)
	require.Len(t, out.Answers, 1)
	assert.Equal(t, domain.AnswerRecord{
		Answer:      "Wellington",
		Title:       "Title a",
		StorageName: "a.pdf",
		DocumentID:  "a",
		DocumentURI: "https://docs.example/a",
	}, out.Answers[0])
	reranker.AssertNotCalled(t, "Rerank", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	reader.AssertExpectations(t)
}

func TestAnswerQuestion_OverBudgetReranks(t *testing.T) {
	index := new(mockSearchIndex)
	reader := new(mockReader)
	reranker := ranking.NewReranker(ranking.NewModel(), discardLogger())
	uc := newUsecase(index, reranker, reader)

	index.On("Search", mock.Anything, mock.Anything).Return([]domain.Hit{
		docHit("d1", 10, "Dogs bark loudly. Dogs run fast.", "Dogs bark"),
		docHit("d2", 10, "Cats purr softly. Cats sleep a lot.", "Cats purr"),
		docHit("d3", 10, "Birds sing. Birds fly.", "Birds sing"),
		docHit("d4", 10, "Cats hunt mice. Cats climb trees.", "Cats hunt"),
	}, nil)

	var got []string
	reader.On("Extract", mock.Anything, "cats", mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).([]string) }).
		Return(map[int]string{0: "purr", 1: "mice", 2: ""}, nil)

	in := defaultInput("cats")
	in.RerankBudget = 3
	out, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, 3, out.Counts.Documents)
	assert.Equal(t, 2, out.Counts.Answers)
	// Both cat passages tie on score and keep retrieval order; the first
	// zero-score passage fills the last slot.
	assert.Contains(t, got[0], "Cats purr")
	assert.Contains(t, got[1], "Cats hunt")
	assert.Contains(t, got[2], "Dogs")
	require.Len(t, out.Answers, 2)
	assert.Equal(t, "d2", out.Answers[0].DocumentID)
	assert.Equal(t, "d4", out.Answers[1].DocumentID)
}

func TestAnswerQuestion_DropsNoAnswerSentinels(t *testing.T) {
	index := new(mockSearchIndex)
	reader := new(mockReader)
	uc := newUsecase(index, new(mockReranker), reader)

	index.On("Search", mock.Anything, mock.Anything).Return([]domain.Hit{
		docHit("a", 10, "One a. Two a.", "One"),
		docHit("b", 10, "One b. Two b.", "One"),
		docHit("c", 10, "One c. Two c.", "One"),
	}, nil)
	reader.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(map[int]string{0: "", 1: "empty"}, nil)

	out, err := uc.Execute(context.Background(), defaultInput("one"))
	require.NoError(t, err)
	assert.Empty(t, out.Answers)
	assert.Equal(t, domain.AnswerCounts{Documents: 3, Answers: 0}, out.Counts)
}

func TestAnswerQuestion_SearchFailure(t *testing.T) {
	index := new(mockSearchIndex)
	reader := new(mockReader)
	uc := newUsecase(index, new(mockReranker), reader)

	boom := errors.New("index unavailable")
	index.On("Search", mock.Anything, mock.Anything).Return(nil, boom)

	out, err := uc.Execute(context.Background(), defaultInput("q"))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, boom)

	var perr *domain.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.StageRetrieving, perr.Stage)
	reader.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerQuestion_RerankFailure(t *testing.T) {
	index := new(mockSearchIndex)
	reranker := new(mockReranker)
	uc := newUsecase(index, reranker, new(mockReader))

	index.On("Search", mock.Anything, mock.Anything).Return([]domain.Hit{
		docHit("a", 10, "One a. Two a.", "One"),
		docHit("b", 10, "One b. Two b.", "One"),
	}, nil)
	reranker.On("Rerank", mock.Anything, "q", mock.Anything, 1).Return(nil, domain.ErrEmptyCorpus)

	in := defaultInput("q")
	in.RerankBudget = 1
	_, err := uc.Execute(context.Background(), in)

	var perr *domain.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.StageReranking, perr.Stage)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)
}

func TestAnswerQuestion_ReaderFailure(t *testing.T) {
	index := new(mockSearchIndex)
	reader := new(mockReader)
	uc := newUsecase(index, new(mockReranker), reader)

	index.On("Search", mock.Anything, mock.Anything).Return([]domain.Hit{
		docHit("a", 10, "One a. Two a.", "One"),
	}, nil)
	reader.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	_, err := uc.Execute(context.Background(), defaultInput("q"))

	var perr *domain.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.StageExtracting, perr.Stage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnswerQuestion_KeepsIncomingRequestID(t *testing.T) {
	index := new(mockSearchIndex)
	uc := newUsecase(index, new(mockReranker), new(mockReader))
	index.On("Search", mock.Anything, mock.Anything).Return([]domain.Hit{}, nil)

	ctx := logger.WithRequestID(context.Background(), "req-42")
	out, err := uc.Execute(ctx, defaultInput("q"))
	require.NoError(t, err)
	assert.Equal(t, "req-42", out.RequestID)
}
