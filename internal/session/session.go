// Package session holds the per-user learning session and the state machine
// that moves it between upload, mode selection, quiz and doubt chat.
package session

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"learnassist/internal/domain"
	"learnassist/internal/quiz"
)

// State is derived from the session fields; it is never stored.
type State int

const (
	NoDocument State = iota
	ModeUnselected
	QuizTopic
	QuizAnswering
	QuizEvaluating
	QuizDone
	DoubtActive
)

func (s State) String() string {
	switch s {
	case NoDocument:
		return "no-document"
	case ModeUnselected:
		return "mode-unselected"
	case QuizTopic:
		return "quiz-topic"
	case QuizAnswering:
		return "quiz-answering"
	case QuizEvaluating:
		return "quiz-evaluating"
	case QuizDone:
		return "quiz-done"
	case DoubtActive:
		return "doubt-active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Mode string

const (
	ModeUnset Mode = ""
	ModeQuiz  Mode = "quiz"
	ModeDoubt Mode = "doubt"
)

// Session is the whole state of one user's interaction. Answers never
// outnumber Questions, and Step only advances after an answer is appended.
type Session struct {
	ID          string
	Mode        Mode
	Step        int
	Topic       string
	Questions   []string
	Answers     []string
	ChatHistory []domain.Message

	// Answerer is set once a document is indexed and gates every quiz and
	// chat action.
	Answerer domain.Answerer
	Document *domain.Document
	Overview string
	Report   *quiz.Report
	Notice   string
}

// New returns an empty session with a fresh ID.
func New() Session {
	return Session{ID: uuid.NewString()}
}

func (s Session) State() State {
	switch {
	case s.Answerer == nil:
		return NoDocument
	case s.Mode == ModeDoubt:
		return DoubtActive
	case s.Mode != ModeQuiz:
		return ModeUnselected
	case s.Step == 0:
		return QuizTopic
	case s.Step <= len(s.Questions):
		return QuizAnswering
	case s.Report == nil:
		return QuizEvaluating
	default:
		return QuizDone
	}
}

// CurrentQuestion returns the question being answered, if any.
func (s Session) CurrentQuestion() (string, bool) {
	if s.State() != QuizAnswering {
		return "", false
	}
	return s.Questions[s.Step-1], true
}

// Event is an input to Reduce.
type Event interface {
	event()
}

type DocumentIndexed struct {
	Document domain.Document
	Answerer domain.Answerer
	Overview string
}

type ModeSelected struct {
	Mode Mode
}

type QuestionsGenerated struct {
	Topic     string
	Questions []string
}

type AnswerSubmitted struct {
	Answer string
}

type Evaluated struct {
	Report quiz.Report
}

type ChatExchanged struct {
	Question string
	Answer   string
}

type Restarted struct{}

func (DocumentIndexed) event()    {}
func (ModeSelected) event()       {}
func (QuestionsGenerated) event() {}
func (AnswerSubmitted) event()    {}
func (Evaluated) event()          {}
func (ChatExchanged) event()      {}
func (Restarted) event()          {}

// Reduce applies ev to s and returns the next session. Events that do not
// apply to the current state return s unchanged and an error wrapping
// domain.ErrInvalidTransition. Reduce has no side effects; s is not modified.
func Reduce(s Session, ev Event) (Session, error) {
	state := s.State()
	invalid := func() (Session, error) {
		return s, fmt.Errorf("%w: %T in state %s", domain.ErrInvalidTransition, ev, state)
	}

	switch e := ev.(type) {
	case Restarted:
		return New(), nil

	case DocumentIndexed:
		if state != NoDocument || e.Answerer == nil {
			return invalid()
		}
		doc := e.Document
		next := New()
		next.ID = s.ID
		next.Answerer = e.Answerer
		next.Document = &doc
		next.Overview = e.Overview
		next.Notice = "PDF processed! Choose what to do next."
		return next, nil

	case ModeSelected:
		if state != ModeUnselected {
			return invalid()
		}
		switch e.Mode {
		case ModeQuiz:
			s.Step = 0
		case ModeDoubt:
		default:
			return invalid()
		}
		s.Mode = e.Mode
		s.Notice = ""
		return s, nil

	case QuestionsGenerated:
		if state != QuizTopic {
			return invalid()
		}
		if len(e.Questions) == 0 {
			return s, domain.ErrNoQuestions
		}
		s.Topic = e.Topic
		s.Questions = slices.Clone(e.Questions[:min(len(e.Questions), quiz.MaxQuestions)])
		s.Answers = nil
		s.Step = 1
		s.Notice = ""
		return s, nil

	case AnswerSubmitted:
		if state != QuizAnswering {
			return invalid()
		}
		s.Answers = append(slices.Clone(s.Answers), e.Answer)
		s.Step++
		s.Notice = ""
		return s, nil

	case Evaluated:
		if state != QuizEvaluating {
			return invalid()
		}
		report := e.Report
		s.Report = &report
		s.Notice = "Quiz Completed!"
		return s, nil

	case ChatExchanged:
		if state != DoubtActive {
			return invalid()
		}
		s.ChatHistory = append(slices.Clone(s.ChatHistory),
			domain.Message{Role: domain.RoleUser, Content: e.Question},
			domain.Message{Role: domain.RoleAssistant, Content: e.Answer},
		)
		s.Notice = ""
		return s, nil
	}
	return invalid()
}
