package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"learnassist/internal/domain"
	"learnassist/internal/quiz"
)

type Ingestor interface {
	Ingest(ctx context.Context, name string, data []byte) (domain.Document, error)
}

type Indexer interface {
	Index(ctx context.Context, doc domain.Document) (domain.Answerer, error)
}

type Quizzer interface {
	GenerateQuestions(ctx context.Context, answerer domain.Answerer, topic string) ([]string, error)
	Evaluate(ctx context.Context, answerer domain.Answerer, questions, answers []string) (quiz.Report, error)
}

type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Controller performs the collaborator calls behind each user action and
// feeds their results through Reduce. Every operation loads the session by
// ID, saves the outcome and returns it; on failure the returned session only
// differs from the stored one by its Notice.
type Controller struct {
	store      *Store
	ingestor   Ingestor
	indexer    Indexer
	quizzer    Quizzer
	summarizer Summarizer
	log        *zap.Logger
}

func NewController(store *Store, ingestor Ingestor, indexer Indexer, quizzer Quizzer, summarizer Summarizer, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:      store,
		ingestor:   ingestor,
		indexer:    indexer,
		quizzer:    quizzer,
		summarizer: summarizer,
		log:        log,
	}
}

// Start creates and stores a new session.
func (c *Controller) Start() Session {
	s := New()
	c.store.Save(s)
	return s
}

// Upload ingests a PDF and indexes it. Nothing is installed unless both
// steps succeed.
func (c *Controller) Upload(ctx context.Context, id, name string, data []byte) (Session, error) {
	s := c.load(id)
	if s.State() != NoDocument {
		return c.fail(s, fmt.Errorf("%w: document already loaded", domain.ErrInvalidTransition))
	}
	doc, err := c.ingestor.Ingest(ctx, name, data)
	if err != nil {
		return c.fail(s, err)
	}
	answerer, err := c.indexer.Index(ctx, doc)
	if err != nil {
		return c.fail(s, err)
	}
	next, err := Reduce(s, DocumentIndexed{Document: doc, Answerer: answerer, Overview: c.overview(doc)})
	if err != nil {
		if cerr := answerer.Close(ctx); cerr != nil {
			c.log.Warn("close unused index", zap.Error(cerr))
		}
		return c.fail(s, err)
	}
	c.log.Info("document ready", zap.String("session", id), zap.String("name", name), zap.Int("chunks", len(doc.Chunks)))
	return c.save(next), nil
}

func (c *Controller) SelectMode(id string, mode Mode) (Session, error) {
	s := c.load(id)
	if s.Answerer == nil {
		return c.fail(s, domain.ErrNoDocument)
	}
	next, err := Reduce(s, ModeSelected{Mode: mode})
	if err != nil {
		return c.fail(s, err)
	}
	return c.save(next), nil
}

// StartQuiz generates the questions for topic. An empty question list keeps
// the session on the topic step.
func (c *Controller) StartQuiz(ctx context.Context, id, topic string) (Session, error) {
	s := c.load(id)
	if s.Answerer == nil {
		return c.fail(s, domain.ErrNoDocument)
	}
	topic = strings.TrimSpace(topic)
	if s.State() != QuizTopic || topic == "" {
		return c.fail(s, fmt.Errorf("%w: cannot start quiz", domain.ErrInvalidTransition))
	}
	questions, err := c.quizzer.GenerateQuestions(ctx, s.Answerer, topic)
	if err != nil {
		return c.fail(s, err)
	}
	next, err := Reduce(s, QuestionsGenerated{Topic: topic, Questions: questions})
	if err != nil {
		return c.fail(s, err)
	}
	return c.save(next), nil
}

// SubmitAnswer records the answer to the current question. After the last
// answer the quiz is evaluated straight away.
func (c *Controller) SubmitAnswer(ctx context.Context, id, answer string) (Session, error) {
	s := c.load(id)
	next, err := Reduce(s, AnswerSubmitted{Answer: answer})
	if err != nil {
		return c.fail(s, err)
	}
	c.save(next)
	if next.State() == QuizEvaluating {
		return c.Evaluate(ctx, id)
	}
	return next, nil
}

// Evaluate grades the answers. It can be retried while the session waits
// for its report.
func (c *Controller) Evaluate(ctx context.Context, id string) (Session, error) {
	s := c.load(id)
	if s.State() != QuizEvaluating {
		return c.fail(s, fmt.Errorf("%w: nothing to evaluate", domain.ErrInvalidTransition))
	}
	report, err := c.quizzer.Evaluate(ctx, s.Answerer, s.Questions, s.Answers)
	if err != nil {
		return c.fail(s, err)
	}
	next, err := Reduce(s, Evaluated{Report: report})
	if err != nil {
		return c.fail(s, err)
	}
	c.log.Info("quiz evaluated", zap.String("session", id), zap.Int("total", report.Total), zap.Int("max", report.Max))
	return c.save(next), nil
}

// Ask answers a doubt and appends the exchange to the chat history. A failed
// call leaves the history untouched.
func (c *Controller) Ask(ctx context.Context, id, question string) (Session, error) {
	s := c.load(id)
	if s.Answerer == nil {
		return c.fail(s, domain.ErrNoDocument)
	}
	question = strings.TrimSpace(question)
	if s.State() != DoubtActive || question == "" {
		return c.fail(s, fmt.Errorf("%w: cannot ask now", domain.ErrInvalidTransition))
	}
	ans, err := s.Answerer.Answer(ctx, question)
	if err != nil {
		return c.fail(s, err)
	}
	next, err := Reduce(s, ChatExchanged{Question: question, Answer: ans.Text})
	if err != nil {
		return c.fail(s, err)
	}
	return c.save(next), nil
}

// Restart discards the session and its index and returns a fresh one.
func (c *Controller) Restart(_ context.Context, id string) Session {
	// the store closes the old index on delete
	c.store.Delete(id)
	next, _ := Reduce(Session{ID: id}, Restarted{})
	return c.save(next)
}

func (c *Controller) load(id string) Session {
	if s, ok := c.store.Get(id); ok {
		return s
	}
	s := New()
	s.ID = id
	return s
}

func (c *Controller) save(s Session) Session {
	c.store.Save(s)
	return s
}

// fail records the user-facing message for err on s without touching any
// other field.
func (c *Controller) fail(s Session, err error) (Session, error) {
	if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrNoDocument) {
		c.log.Debug("rejected action", zap.String("session", s.ID), zap.String("state", s.State().String()), zap.Error(err))
	} else {
		c.log.Warn("action failed", zap.String("session", s.ID), zap.String("state", s.State().String()), zap.Error(err))
	}
	s.Notice = Message(err)
	return c.save(s), err
}

func (c *Controller) overview(doc domain.Document) string {
	if c.summarizer == nil {
		return ""
	}
	texts := make([]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		texts = append(texts, p.Text)
	}
	summary, err := c.summarizer.Summarize(strings.Join(texts, "\n"), 3)
	if err != nil {
		c.log.Warn("summarize document", zap.Error(err))
		return ""
	}
	return summary
}
