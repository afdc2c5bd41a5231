// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateAnswered State = "answered"
	StateError    State = "error"
	StateHistory  State = "history"
)

// Bar displays the pipeline state, the last answer's timing and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	latency   time.Duration
	fromCache bool
	turns     int
	chunks    int
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (b *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op: the bar is driven through its setters.
func (b *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	return b, nil
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	inner := b.width - b.styles.StatusBar.GetHorizontalPadding()
	padding := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	var text string
	switch b.state {
	case StateThinking:
		return b.styles.Muted.Render("A pensar...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Erro: " + b.message)
		}
		return b.styles.Error.Render("Erro")
	case StateAnswered:
		text = fmt.Sprintf("%.2fs", b.latency.Seconds())
		if b.fromCache {
			text += " (cache)"
		}
	case StateHistory:
		text = fmt.Sprintf("%d perguntas", b.turns)
	case StateReady:
		text = "Pronto"
	}

	if b.chunks > 0 {
		text += fmt.Sprintf(" | %d excertos", b.chunks)
	}
	if b.message != "" {
		text += " | " + b.message
	}
	return b.styles.Normal.Render(text)
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateHistory {
		bindings = b.keymap.HistoryHelp()
	} else {
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets a transient message shown next to the state.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetAnswer records the timing of the last answer and switches to StateAnswered.
func (b *Bar) SetAnswer(latency time.Duration, fromCache bool) {
	b.state = StateAnswered
	b.latency = latency
	b.fromCache = fromCache
}

// SetTurns sets the number of turns in the session.
func (b *Bar) SetTurns(n int) {
	b.turns = n
}

// SetIndexChunks sets the number of indexed chunks.
func (b *Bar) SetIndexChunks(n int) {
	b.chunks = n
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Clear resets the state and message, keeping the index size.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.latency = 0
	b.fromCache = false
}
