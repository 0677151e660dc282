package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnassist/internal/domain"
	"learnassist/internal/quiz"
)

func indexed(t *testing.T) Session {
	t.Helper()
	s, err := Reduce(New(), DocumentIndexed{Document: domain.Document{ID: "d"}, Answerer: &fakeAnswerer{}})
	require.NoError(t, err)
	return s
}

func TestReduceQuizFlow(t *testing.T) {
	s := indexed(t)
	assert.Equal(t, ModeUnselected, s.State())
	assert.Equal(t, "PDF processed! Choose what to do next.", s.Notice)

	s, err := Reduce(s, ModeSelected{Mode: ModeQuiz})
	require.NoError(t, err)
	assert.Equal(t, QuizTopic, s.State())
	assert.Equal(t, 0, s.Step)

	s, err = Reduce(s, QuestionsGenerated{Topic: "Photosynthesis", Questions: []string{"Q1", "Q2", "Q3"}})
	require.NoError(t, err)
	assert.Equal(t, QuizAnswering, s.State())
	assert.Equal(t, 1, s.Step)

	for i, a := range []string{"A1", "A2", "A3"} {
		q, ok := s.CurrentQuestion()
		require.True(t, ok)
		assert.Equal(t, s.Questions[i], q)

		s, err = Reduce(s, AnswerSubmitted{Answer: a})
		require.NoError(t, err)
		assert.Len(t, s.Answers, i+1)
		assert.Equal(t, i+2, s.Step)
		assert.LessOrEqual(t, len(s.Answers), len(s.Questions))
	}
	assert.Equal(t, QuizEvaluating, s.State())

	_, err = Reduce(s, AnswerSubmitted{Answer: "extra"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	s, err = Reduce(s, Evaluated{Report: quiz.Report{Total: 20, Max: 30}})
	require.NoError(t, err)
	assert.Equal(t, QuizDone, s.State())
	assert.Equal(t, 20, s.Report.Total)
}

func TestReduceShortQuizEndsAfterLastQuestion(t *testing.T) {
	s := indexed(t)
	s, _ = Reduce(s, ModeSelected{Mode: ModeQuiz})
	s, err := Reduce(s, QuestionsGenerated{Topic: "t", Questions: []string{"only"}})
	require.NoError(t, err)
	s, err = Reduce(s, AnswerSubmitted{Answer: "a"})
	require.NoError(t, err)
	assert.Equal(t, QuizEvaluating, s.State())
}

func TestReduceCapsQuestions(t *testing.T) {
	s := indexed(t)
	s, _ = Reduce(s, ModeSelected{Mode: ModeQuiz})
	s, err := Reduce(s, QuestionsGenerated{Topic: "t", Questions: []string{"1", "2", "3", "4"}})
	require.NoError(t, err)
	assert.Len(t, s.Questions, 3)
}

func TestReduceEmptyQuestionsStayOnTopic(t *testing.T) {
	s := indexed(t)
	s, _ = Reduce(s, ModeSelected{Mode: ModeQuiz})
	next, err := Reduce(s, QuestionsGenerated{Topic: "t"})
	assert.ErrorIs(t, err, domain.ErrNoQuestions)
	assert.Equal(t, QuizTopic, next.State())
}

func TestReduceDoubtLoop(t *testing.T) {
	s := indexed(t)
	s, err := Reduce(s, ModeSelected{Mode: ModeDoubt})
	require.NoError(t, err)
	assert.Equal(t, DoubtActive, s.State())

	for i := 0; i < 3; i++ {
		s, err = Reduce(s, ChatExchanged{Question: "q", Answer: "a"})
		require.NoError(t, err)
	}
	require.Len(t, s.ChatHistory, 6)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "q"}, s.ChatHistory[4])
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "a"}, s.ChatHistory[5])
	assert.Equal(t, DoubtActive, s.State())
}

func TestReduceRejectsInvalidTransitions(t *testing.T) {
	doubt, _ := Reduce(indexed(t), ModeSelected{Mode: ModeDoubt})

	tests := []struct {
		name string
		s    Session
		ev   Event
	}{
		{"select mode without document", New(), ModeSelected{Mode: ModeQuiz}},
		{"answer without document", New(), AnswerSubmitted{Answer: "a"}},
		{"chat without document", New(), ChatExchanged{Question: "q"}},
		{"index twice", indexed(t), DocumentIndexed{Answerer: &fakeAnswerer{}}},
		{"index without answerer", New(), DocumentIndexed{}},
		{"unknown mode", indexed(t), ModeSelected{Mode: "exam"}},
		{"questions in doubt mode", doubt, QuestionsGenerated{Questions: []string{"q"}}},
		{"evaluate in doubt mode", doubt, Evaluated{}},
		{"reselect mode", doubt, ModeSelected{Mode: ModeQuiz}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Reduce(tt.s, tt.ev)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, tt.s, next)
		})
	}
}

func TestReduceDoesNotAliasHistory(t *testing.T) {
	s, _ := Reduce(indexed(t), ModeSelected{Mode: ModeDoubt})
	a, _ := Reduce(s, ChatExchanged{Question: "q1", Answer: "a1"})
	b, _ := Reduce(a, ChatExchanged{Question: "q2", Answer: "a2"})
	c, _ := Reduce(a, ChatExchanged{Question: "q3", Answer: "a3"})

	assert.Len(t, a.ChatHistory, 2)
	assert.Equal(t, "q2", b.ChatHistory[2].Content)
	assert.Equal(t, "q3", c.ChatHistory[2].Content)
}

func TestReduceRestartFromAnyState(t *testing.T) {
	quizzing, _ := Reduce(indexed(t), ModeSelected{Mode: ModeQuiz})
	quizzing, _ = Reduce(quizzing, QuestionsGenerated{Topic: "t", Questions: []string{"q"}})

	for _, s := range []Session{New(), indexed(t), quizzing} {
		next, err := Reduce(s, Restarted{})
		require.NoError(t, err)
		assert.Equal(t, NoDocument, next.State())
		assert.NotEqual(t, s.ID, next.ID)
		assert.Equal(t, Session{ID: next.ID}, next)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "quiz-answering", QuizAnswering.String())
	assert.Equal(t, "state(42)", State(42).String())
}
