package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnassist/internal/domain"
	"learnassist/internal/quiz"
)

type fakeAnswerer struct {
	closed  bool
	err     error
	queries []string
}

func (f *fakeAnswerer) Answer(_ context.Context, query string) (domain.Answer, error) {
	if f.err != nil {
		return domain.Answer{}, f.err
	}
	f.queries = append(f.queries, query)
	return domain.Answer{Text: "answer to " + query, Context: "ctx"}, nil
}

func (f *fakeAnswerer) Close(context.Context) error {
	f.closed = true
	return nil
}

type fakeIngestor struct{ err error }

func (f fakeIngestor) Ingest(_ context.Context, name string, data []byte) (domain.Document, error) {
	if f.err != nil {
		return domain.Document{}, f.err
	}
	return domain.Document{
		ID:     "doc",
		Name:   name,
		Size:   len(data),
		Pages:  []domain.Page{{Number: 1, Text: "Chlorophyll absorbs light."}},
		Chunks: []domain.Chunk{{DocumentID: "doc", ChunkID: "doc:0", Text: "Chlorophyll absorbs light."}},
	}, nil
}

type fakeIndexer struct {
	answerer *fakeAnswerer
	err      error
}

func (f *fakeIndexer) Index(context.Context, domain.Document) (domain.Answerer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.answerer, nil
}

type fakeQuizzer struct {
	questions []string
	qErr      error
	evalErrs  []error
	evalCalls int
}

func (f *fakeQuizzer) GenerateQuestions(context.Context, domain.Answerer, string) ([]string, error) {
	return f.questions, f.qErr
}

func (f *fakeQuizzer) Evaluate(_ context.Context, _ domain.Answerer, questions, answers []string) (quiz.Report, error) {
	i := f.evalCalls
	f.evalCalls++
	if i < len(f.evalErrs) && f.evalErrs[i] != nil {
		return quiz.Report{}, f.evalErrs[i]
	}
	results := make([]quiz.Result, len(answers))
	for j := range answers {
		results[j] = quiz.Result{Question: questions[j], Answer: answers[j], Score: 7}
	}
	return quiz.Report{Results: results, Total: 7 * len(answers), Max: 10 * len(questions)}, nil
}

type fixture struct {
	ctrl     *Controller
	store    *Store
	indexer  *fakeIndexer
	quizzer  *fakeQuizzer
	answerer *fakeAnswerer
}

func newFixture(ingestErr error) *fixture {
	ans := &fakeAnswerer{}
	f := &fixture{
		store:    NewStore(time.Hour, nil),
		indexer:  &fakeIndexer{answerer: ans},
		quizzer:  &fakeQuizzer{questions: []string{"What is chlorophyll?", "Describe the light reaction.", "Why is water needed?"}},
		answerer: ans,
	}
	f.ctrl = NewController(f.store, fakeIngestor{err: ingestErr}, f.indexer, f.quizzer, stubSummarizer{}, zap.NewNop())
	return f
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(text string, _ int) (string, error) { return "overview: " + text, nil }

func TestControllerQuizRoundTrip(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s := f.ctrl.Start()

	s, err := f.ctrl.Upload(ctx, s.ID, "bio.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, ModeUnselected, s.State())
	assert.Equal(t, "overview: Chlorophyll absorbs light.", s.Overview)
	assert.Equal(t, "bio.pdf", s.Document.Name)

	s, err = f.ctrl.SelectMode(s.ID, ModeQuiz)
	require.NoError(t, err)
	s, err = f.ctrl.StartQuiz(ctx, s.ID, "  Photosynthesis ")
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis", s.Topic)
	assert.Equal(t, QuizAnswering, s.State())

	for _, a := range []string{"a pigment", "splits water", "electrons"} {
		s, err = f.ctrl.SubmitAnswer(ctx, s.ID, a)
		require.NoError(t, err)
	}
	assert.Equal(t, QuizDone, s.State())
	assert.Equal(t, 21, s.Report.Total)
	assert.Equal(t, 30, s.Report.Max)
	assert.Equal(t, 1, f.quizzer.evalCalls)

	stored, ok := f.store.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, QuizDone, stored.State())
}

func TestControllerUploadRateLimited(t *testing.T) {
	f := newFixture(nil)
	f.indexer.err = domain.StatusFailure(domain.ErrEmbedding, 429, "quota exceeded")
	s := f.ctrl.Start()

	s, err := f.ctrl.Upload(context.Background(), s.ID, "bio.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, NoDocument, s.State())
	assert.Nil(t, s.Answerer)
	assert.Nil(t, s.Document)
	assert.Equal(t, "Rate limit or quota exceeded. Please wait or check your plan.", s.Notice)
}

func TestControllerUploadBadPDF(t *testing.T) {
	f := newFixture(fmt.Errorf("%w: not a PDF", domain.ErrIngest))
	s := f.ctrl.Start()

	s, err := f.ctrl.Upload(context.Background(), s.ID, "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, domain.ErrIngest)
	assert.Equal(t, NoDocument, s.State())
	assert.Contains(t, s.Notice, "Could not read PDF")
}

func TestControllerUploadTwiceRejected(t *testing.T) {
	f := newFixture(nil)
	s := f.ctrl.Start()
	s, err := f.ctrl.Upload(context.Background(), s.ID, "a.pdf", nil)
	require.NoError(t, err)

	_, err = f.ctrl.Upload(context.Background(), s.ID, "b.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestControllerNoQuestionsStaysOnTopic(t *testing.T) {
	f := newFixture(nil)
	f.quizzer.questions = nil
	f.quizzer.qErr = domain.ErrNoQuestions
	ctx := context.Background()
	s := f.ctrl.Start()
	s, _ = f.ctrl.Upload(ctx, s.ID, "a.pdf", nil)
	s, _ = f.ctrl.SelectMode(s.ID, ModeQuiz)

	s, err := f.ctrl.StartQuiz(ctx, s.ID, "Nothing")
	assert.ErrorIs(t, err, domain.ErrNoQuestions)
	assert.Equal(t, QuizTopic, s.State())
	assert.Equal(t, "Could not generate questions. Try a different topic.", s.Notice)

	_, err = f.ctrl.StartQuiz(ctx, s.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestControllerEvaluationRetry(t *testing.T) {
	f := newFixture(nil)
	f.quizzer.questions = []string{"only question"}
	f.quizzer.evalErrs = []error{domain.StatusFailure(domain.ErrProvider, 500, "upstream")}
	ctx := context.Background()
	s := f.ctrl.Start()
	s, _ = f.ctrl.Upload(ctx, s.ID, "a.pdf", nil)
	s, _ = f.ctrl.SelectMode(s.ID, ModeQuiz)
	s, _ = f.ctrl.StartQuiz(ctx, s.ID, "topic")

	s, err := f.ctrl.SubmitAnswer(ctx, s.ID, "answer")
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, QuizEvaluating, s.State())
	assert.Equal(t, []string{"answer"}, s.Answers)

	s, err = f.ctrl.Evaluate(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, QuizDone, s.State())
	assert.Equal(t, 7, s.Report.Total)
	assert.Equal(t, 10, s.Report.Max)
}

func TestControllerDoubtChat(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s := f.ctrl.Start()
	s, _ = f.ctrl.Upload(ctx, s.ID, "a.pdf", nil)
	s, _ = f.ctrl.SelectMode(s.ID, ModeDoubt)

	s, err := f.ctrl.Ask(ctx, s.ID, "What is chlorophyll?")
	require.NoError(t, err)
	require.Len(t, s.ChatHistory, 2)
	assert.Equal(t, "answer to What is chlorophyll?", s.ChatHistory[1].Content)

	f.answerer.err = errors.New("connection reset")
	s, err = f.ctrl.Ask(ctx, s.ID, "And water?")
	assert.Error(t, err)
	assert.Len(t, s.ChatHistory, 2)
	assert.Equal(t, "Error: connection reset", s.Notice)
}

func TestControllerRestartClearsEverything(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s := f.ctrl.Start()
	s, _ = f.ctrl.Upload(ctx, s.ID, "a.pdf", nil)
	s, _ = f.ctrl.SelectMode(s.ID, ModeDoubt)
	s, _ = f.ctrl.Ask(ctx, s.ID, "q")
	oldID := s.ID

	s = f.ctrl.Restart(ctx, oldID)
	assert.True(t, f.answerer.closed)
	assert.Equal(t, NoDocument, s.State())
	assert.NotEqual(t, oldID, s.ID)
	assert.Equal(t, Session{ID: s.ID}, s)

	_, ok := f.store.Get(oldID)
	assert.False(t, ok)
	_, ok = f.store.Get(s.ID)
	assert.True(t, ok)
}

func TestControllerRequiresDocument(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	s := f.ctrl.Start()

	_, err := f.ctrl.SelectMode(s.ID, ModeQuiz)
	assert.ErrorIs(t, err, domain.ErrNoDocument)
	_, err = f.ctrl.StartQuiz(ctx, s.ID, "topic")
	assert.ErrorIs(t, err, domain.ErrNoDocument)
	s, err = f.ctrl.Ask(ctx, s.ID, "question")
	assert.ErrorIs(t, err, domain.ErrNoDocument)
	assert.Equal(t, NoDocument, s.State())
	assert.Equal(t, "Upload a PDF first.", s.Notice)
}

func TestMessage(t *testing.T) {
	assert.Empty(t, Message(nil))
	assert.Equal(t, "Upload a PDF first.", Message(domain.ErrNoDocument))
	assert.Equal(t, "That action is not available right now.", Message(fmt.Errorf("wrap: %w", domain.ErrInvalidTransition)))
	assert.Contains(t, Message(domain.StatusFailure(domain.ErrProvider, 500, "boom")), "Model provider error")
}
