// Package chat provides the question and answer view of the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driving"
)

// Title is the header shown above the conversation.
const Title = "Assistente do Regulamento Pedagógico da ESTG"

// View holds one conversation: the question input, the last answer with its
// sources, and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	sources   *list.SourceList
	statusbar *status.Bar

	askService driving.AskService
	ctx        context.Context

	session domain.Session
	last    *messages.AnswerReceived
	pending string
	notice  string
	err     error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view with a fresh session.
func NewView(s *styles.Styles, km *keymap.KeyMap, askService driving.AskService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km),
		askService: askService,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
	if askService != nil {
		v.session = askService.NewSession()
	}
	return v
}

// WithContext sets the context used for questions.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.CacheCleared:
		if msg.Err != nil {
			v.setError(msg.Err)
		} else {
			v.statusbar.SetMessage("Cache limpa")
		}
		return v, nil

	case messages.SessionReset:
		v.session = msg.Session
		v.last = nil
		v.notice = ""
		v.err = nil
		v.sources.SetSources(nil)
		v.statusbar.Clear()
		v.statusbar.SetMessage("Nova conversa")
		return v, nil

	case messages.IndexStatusLoaded:
		v.statusbar.SetIndexChunks(msg.Status.Chunks)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	// One question at a time.
	if v.pending != "" {
		return v, nil
	}

	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, v.keymap.Submit):
		return v.submit()
	case keymap.Matches(keyStr, v.keymap.ClearCache):
		return v, v.clearCache()
	case keymap.Matches(keyStr, v.keymap.NewSession):
		return v, v.newSession()
	case keymap.Matches(keyStr, v.keymap.History):
		return v, changeView(messages.ViewHistory)
	case keymap.Matches(keyStr, v.keymap.Help):
		return v, changeView(messages.ViewHelp)
	case keymap.Matches(keyStr, v.keymap.Up), keymap.Matches(keyStr, v.keymap.Down):
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() (*View, tea.Cmd) {
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return v, nil
	}
	if domain.IsExitWord(question) {
		return v, func() tea.Msg { return messages.Quit{} }
	}

	v.input.Reset()
	v.notice = ""
	v.err = nil
	v.pending = question
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateThinking)
	return v, v.ask(question)
}

// ask runs the question against a snapshot of the session.
func (v *View) ask(question string) tea.Cmd {
	session := v.session
	return func() tea.Msg {
		if v.askService == nil {
			return messages.ErrorOccurred{Err: ErrNoAskService}
		}
		answer, updated, err := v.askService.Ask(v.ctx, session, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Session: updated, Err: err}
	}
}

func (v *View) clearCache() tea.Cmd {
	return func() tea.Msg {
		if v.askService == nil {
			return messages.ErrorOccurred{Err: ErrNoAskService}
		}
		return messages.CacheCleared{Err: v.askService.ClearCache(v.ctx)}
	}
}

func (v *View) newSession() tea.Cmd {
	return func() tea.Msg {
		if v.askService == nil {
			return messages.ErrorOccurred{Err: ErrNoAskService}
		}
		return messages.SessionReset{Session: v.askService.NewSession()}
	}
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: view} }
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = ""
	if msg.Err != nil {
		if errors.Is(msg.Err, domain.ErrValidation) {
			v.notice = fmt.Sprintf("A pergunta deve ter pelo menos %d caracteres.", domain.MinQuestionLength)
			v.statusbar.SetState(status.StateReady)
			return
		}
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.session = msg.Session
	v.last = &msg
	v.sources.SetSources(msg.Answer.Sources)
	v.statusbar.SetAnswer(msg.Answer.Latency, msg.Answer.FromCache)
	v.statusbar.SetTurns(v.session.Len())
}

func (v *View) setError(err error) {
	v.pending = ""
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render(Title), "")

	switch {
	case v.pending != "":
		sections = append(sections,
			v.styles.Question.Render("> "+v.pending),
			v.styles.Muted.Render("  A pensar..."), "")
	case v.last != nil:
		sections = append(sections, v.renderTurn(), "")
	default:
		sections = append(sections, v.renderWelcome(), "")
	}

	if v.notice != "" {
		sections = append(sections, v.styles.Warning.Render("Aviso: "+v.notice), "")
	}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Erro: "+v.err.Error()), "")
	}

	sections = append(sections, v.input.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderTurn() string {
	answerStyle := v.styles.Answer.Width(max(v.width-4, 20))
	if v.last.Answer.IsDegraded() {
		answerStyle = answerStyle.Foreground(v.styles.Theme().Error)
	}

	parts := []string{
		v.styles.Question.Render("> " + v.last.Question),
		answerStyle.Render(v.last.Answer.Text),
	}
	if v.sources.Count() > 0 {
		parts = append(parts, "", v.sources.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v *View) renderWelcome() string {
	lines := []string{v.styles.Subtitle.Render("Exemplos de perguntas:")}
	for _, q := range domain.ExampleQuestions() {
		lines = append(lines, v.styles.Normal.Render("  • "+q))
	}
	lines = append(lines, "", v.styles.Help.Render(exitHint(v.keymap.Quit)))
	return strings.Join(lines, "\n")
}

func exitHint(quit key.Binding) string {
	return fmt.Sprintf("Escreva 'sair' ou prima %s para terminar.", quit.Help().Key)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, max(height/3, 4))
	v.statusbar.SetWidth(width)
}

// Session returns the conversation so far.
func (v *View) Session() domain.Session {
	return v.session
}

// Last returns the most recent answered turn, or nil.
func (v *View) Last() *messages.AnswerReceived {
	return v.last
}

// Pending returns the question awaiting an answer, if any.
func (v *View) Pending() string {
	return v.pending
}

// Notice returns the current warning, if any.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Input returns the typed question.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput sets the typed question.
func (v *View) SetInput(question string) {
	v.input.SetValue(question)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
