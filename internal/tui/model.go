package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"learnassist/internal/session"
)

// Controller is the TUI-facing subset of the session controller.
type Controller interface {
	Upload(ctx context.Context, id, name string, data []byte) (session.Session, error)
	SelectMode(id string, mode session.Mode) (session.Session, error)
	StartQuiz(ctx context.Context, id, topic string) (session.Session, error)
	SubmitAnswer(ctx context.Context, id, answer string) (session.Session, error)
	Evaluate(ctx context.Context, id string) (session.Session, error)
	Ask(ctx context.Context, id, question string) (session.Session, error)
	Restart(ctx context.Context, id string) session.Session
}

// sessionMsg carries the outcome of a controller call back into Update.
type sessionMsg struct {
	sess session.Session
	err  error
}

// Model is the Bubble Tea model for the assistant. View renders only from
// the current session and the input widgets.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	sess     session.Session
	lastErr  error
	busy     bool
	ready    bool
	width    int
	readFile func(string) ([]byte, error)
	initial  string

	pathInput  textinput.Model
	topicInput textinput.Model
	chatInput  textinput.Model
	answerArea textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
}

// New creates the model for sess. A non-empty pdfPath is uploaded on start.
func New(ctx context.Context, ctrl Controller, sess session.Session, pdfPath string) Model {
	path := textinput.New()
	path.Prompt = "PDF> "
	path.Placeholder = "path/to/textbook.pdf"
	path.CharLimit = 0

	topic := textinput.New()
	topic.Prompt = "Topic> "
	topic.Placeholder = "e.g. Photosynthesis"

	chat := textinput.New()
	chat.Prompt = "> "
	chat.Placeholder = "Ask a doubt about your uploaded PDF..."
	chat.CharLimit = 0

	answer := textarea.New()
	answer.Placeholder = "Your answer"
	answer.ShowLineNumbers = false
	answer.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		ctx:        ctx,
		ctrl:       ctrl,
		sess:       sess,
		readFile:   os.ReadFile,
		initial:    strings.TrimSpace(pdfPath),
		pathInput:  path,
		topicInput: topic,
		chatInput:  chat,
		answerArea: answer,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
	}
	m.focusForState()
	return m
}

func (m Model) Init() tea.Cmd {
	if m.initial != "" {
		return func() tea.Msg { return uploadRequest{path: m.initial} }
	}
	return textinput.Blink
}

// uploadRequest asks Update to upload a file, as if typed into the path input.
type uploadRequest struct{ path string }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		w := max(20, msg.Width-4)
		m.viewport.Width = w
		m.viewport.Height = max(5, msg.Height-12)
		m.answerArea.SetWidth(w)
		m.answerArea.SetHeight(6)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		m.busy = false
		m.lastErr = msg.err
		m.sess = msg.sess
		if msg.err == nil {
			m.resetInputs()
		}
		m.focusForState()
		m.refreshViewport()
		return m, nil

	case uploadRequest:
		return m.upload(msg.path)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if msg.Type == tea.KeyCtrlR {
			id := m.sess.ID
			return m.run(func(ctx context.Context) (session.Session, error) {
				return m.ctrl.Restart(ctx, id), nil
			})
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}
	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	id := m.sess.ID
	switch m.sess.State() {
	case session.NoDocument:
		if msg.Type == tea.KeyEnter {
			next, cmd := m.upload(m.pathInput.Value())
			return next, cmd, true
		}
	case session.ModeUnselected:
		switch msg.String() {
		case "q":
			s, err := m.ctrl.SelectMode(id, session.ModeQuiz)
			return m.apply(s, err), textinput.Blink, true
		case "d":
			s, err := m.ctrl.SelectMode(id, session.ModeDoubt)
			return m.apply(s, err), textinput.Blink, true
		}
	case session.QuizTopic:
		if msg.Type == tea.KeyEnter {
			topic := strings.TrimSpace(m.topicInput.Value())
			if topic == "" {
				return m, nil, true
			}
			next, cmd := m.run(func(ctx context.Context) (session.Session, error) {
				return m.ctrl.StartQuiz(ctx, id, topic)
			})
			return next, cmd, true
		}
	case session.QuizAnswering:
		if msg.Type == tea.KeyCtrlS {
			answer := m.answerArea.Value()
			next, cmd := m.run(func(ctx context.Context) (session.Session, error) {
				return m.ctrl.SubmitAnswer(ctx, id, answer)
			})
			return next, cmd, true
		}
	case session.QuizEvaluating:
		if msg.String() == "r" {
			next, cmd := m.run(func(ctx context.Context) (session.Session, error) {
				return m.ctrl.Evaluate(ctx, id)
			})
			return next, cmd, true
		}
	case session.DoubtActive:
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(m.chatInput.Value())
			if question == "" {
				return m, nil, true
			}
			next, cmd := m.run(func(ctx context.Context) (session.Session, error) {
				return m.ctrl.Ask(ctx, id, question)
			})
			return next, cmd, true
		}
	}
	return m, nil, false
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.sess.State() {
	case session.NoDocument:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case session.QuizTopic:
		m.topicInput, cmd = m.topicInput.Update(msg)
	case session.QuizAnswering:
		m.answerArea, cmd = m.answerArea.Update(msg)
	case session.DoubtActive:
		var vpCmd tea.Cmd
		if key, ok := msg.(tea.KeyMsg); ok && (key.Type == tea.KeyPgUp || key.Type == tea.KeyPgDown) {
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}
		m.chatInput, cmd = m.chatInput.Update(msg)
	case session.QuizDone, session.ModeUnselected:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) upload(path string) (Model, tea.Cmd) {
	path = strings.TrimSpace(path)
	if path == "" {
		return m, nil
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		m.sess.Notice = "Only PDF files are supported."
		m.lastErr = fmt.Errorf("not a pdf: %s", path)
		return m, nil
	}
	data, err := m.readFile(path)
	if err != nil {
		m.sess.Notice = "Could not open file: " + err.Error()
		m.lastErr = err
		return m, nil
	}
	id, name := m.sess.ID, filepath.Base(path)
	return m.run(func(ctx context.Context) (session.Session, error) {
		return m.ctrl.Upload(ctx, id, name, data)
	})
}

// run starts a controller call in the background. Keys other than ctrl+c are
// ignored until its sessionMsg arrives.
func (m Model) run(op func(ctx context.Context) (session.Session, error)) (Model, tea.Cmd) {
	m.busy = true
	ctx := m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		s, err := op(ctx)
		return sessionMsg{sess: s, err: err}
	})
}

func (m Model) apply(s session.Session, err error) Model {
	m.lastErr = err
	m.sess = s
	m.resetInputs()
	m.focusForState()
	m.refreshViewport()
	return m
}

func (m *Model) resetInputs() {
	m.pathInput.Reset()
	m.topicInput.Reset()
	m.chatInput.Reset()
	m.answerArea.Reset()
}

func (m *Model) focusForState() {
	m.pathInput.Blur()
	m.topicInput.Blur()
	m.chatInput.Blur()
	m.answerArea.Blur()
	switch m.sess.State() {
	case session.NoDocument:
		m.pathInput.Focus()
	case session.QuizTopic:
		m.topicInput.Focus()
	case session.QuizAnswering:
		m.answerArea.Focus()
	case session.DoubtActive:
		m.chatInput.Focus()
	}
}

func (m *Model) refreshViewport() {
	switch m.sess.State() {
	case session.ModeUnselected:
		m.viewport.SetContent(renderDocument(m.sess, m.viewport.Width))
		m.viewport.GotoTop()
	case session.QuizDone:
		m.viewport.SetContent(wrap(m.sess.Report.Render(), m.viewport.Width))
		m.viewport.GotoTop()
	case session.DoubtActive:
		m.viewport.SetContent(renderChat(m.sess.ChatHistory, m.viewport.Width))
		m.viewport.GotoBottom()
	default:
		m.viewport.SetContent("")
	}
}

// SessionID returns the ID of the session currently shown.
func (m Model) SessionID() string { return m.sess.ID }
