package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"learnassist/internal/domain"
	"learnassist/internal/session"
	"learnassist/internal/textutil"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	headingStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI Learning Assistant"))
	b.WriteString("\n\n")
	b.WriteString(m.body())
	b.WriteString("\n\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help()))
	return b.String()
}

func (m Model) body() string {
	s := m.sess
	switch s.State() {
	case session.NoDocument:
		return headingStyle.Render("Step 1: Upload your textbook PDF") + "\n" +
			boxStyle.Render(m.pathInput.View())

	case session.ModeUnselected:
		return boxStyle.Render(m.viewport.View()) + "\n" +
			headingStyle.Render("Step 2: Choose what you want to do:") + "\n" +
			"  [q] Take a Quiz    [d] Ask a Doubt"

	case session.QuizTopic:
		return headingStyle.Render("Quiz Mode") + "\n" +
			"Enter a topic you'd like to be quizzed on:\n" +
			boxStyle.Render(m.topicInput.View())

	case session.QuizAnswering:
		q, _ := s.CurrentQuestion()
		header := fmt.Sprintf("Quiz Mode: %s (%d/%d)", s.Topic, s.Step, len(s.Questions))
		return headingStyle.Render(header) + "\n" +
			titleStyle.Render(fmt.Sprintf("Question %d: %s", s.Step, q)) + "\n" +
			m.answerArea.View()

	case session.QuizEvaluating:
		if m.busy {
			return headingStyle.Render("Quiz Mode") + "\nEvaluating your answers..."
		}
		return headingStyle.Render("Quiz Mode") + "\nEvaluation did not finish. Press r to retry."

	case session.QuizDone:
		return okStyle.Render("Quiz Completed!") + "\n" + boxStyle.Render(m.viewport.View())

	case session.DoubtActive:
		return headingStyle.Render("Doubt Mode (Chat)") + "\n" +
			boxStyle.Render(m.viewport.View()) + "\n" +
			boxStyle.Render(m.chatInput.View())
	}
	return ""
}

func (m Model) status() string {
	if m.busy {
		return m.spinner.View() + " Working..."
	}
	if m.sess.Notice == "" {
		return ""
	}
	if m.lastErr != nil {
		return errStyle.Render(m.sess.Notice)
	}
	return okStyle.Render(m.sess.Notice)
}

func (m Model) help() string {
	keys := []string{"ctrl+r restart", "ctrl+c quit"}
	switch m.sess.State() {
	case session.NoDocument:
		keys = append([]string{"enter upload"}, keys...)
	case session.QuizTopic:
		keys = append([]string{"enter start quiz"}, keys...)
	case session.QuizAnswering:
		keys = append([]string{"ctrl+s submit answer"}, keys...)
	case session.QuizEvaluating:
		keys = append([]string{"r retry evaluation"}, keys...)
	case session.QuizDone:
		keys = append([]string{"up/down scroll"}, keys...)
	case session.DoubtActive:
		keys = append([]string{"enter ask", "pgup/pgdown scroll"}, keys...)
	}
	return strings.Join(keys, " • ")
}

func renderDocument(s session.Session, width int) string {
	if s.Document == nil {
		return ""
	}
	d := s.Document
	var b strings.Builder
	fmt.Fprintf(&b, "%s  (%d pages indexed, %d chunks)", d.Name, len(d.Pages), len(d.Chunks))
	if s.Overview != "" {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(wrap(s.Overview, width)))
	}
	return b.String()
}

// renderChat shows the history with the sentence of each answer that best
// matches its question highlighted.
func renderChat(history []domain.Message, width int) string {
	if len(history) == 0 {
		return dimStyle.Render("No questions yet.")
	}
	var b strings.Builder
	lastQuestion := ""
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case domain.RoleUser:
			lastQuestion = msg.Content
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(wrap(msg.Content, width))
		default:
			b.WriteString(assistantStyle.Render("Assistant: "))
			b.WriteString(wrap(highlightBestSentence(msg.Content, lastQuestion), width))
		}
	}
	return b.String()
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	qTokens := textutil.TokenSet(query)
	if len(qTokens) == 0 || len(sentences) == 0 {
		return text
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := textutil.Overlap(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	if bestScore == 0 {
		return text
	}
	best := sentences[bestIdx]
	return strings.Replace(text, best, highlightStyle.Render(best), 1)
}
