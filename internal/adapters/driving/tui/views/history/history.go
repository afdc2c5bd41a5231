// Package history provides the view listing the turns of the current session.
package history

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/regbot/internal/core/domain"
)

// View lists past questions and shows the answer of the selected one.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	turns    []domain.Turn
	selected int

	width  int
	height int
	ready  bool
}

// NewView creates a history view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StateHistory)

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: bar,
		width:     80,
		height:    24,
	}
}

// SetSession replaces the listed turns and selects the most recent one.
func (v *View) SetSession(session domain.Session) {
	v.turns = session.History
	v.selected = max(len(v.turns)-1, 0)
	v.statusbar.SetTurns(len(v.turns))
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		keyStr := msg.String()
		switch {
		case keymap.Matches(keyStr, v.keymap.Back), keymap.Matches(keyStr, v.keymap.History):
			return v, changeView(messages.ViewChat)
		case keymap.Matches(keyStr, v.keymap.Help):
			return v, changeView(messages.ViewHelp)
		case keymap.Matches(keyStr, v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(keyStr, v.keymap.Down):
			if v.selected < len(v.turns)-1 {
				v.selected++
			}
		}
	}
	return v, nil
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: view} }
}

// View renders the history view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render(fmt.Sprintf("Histórico (%d)", len(v.turns))),
		"",
	}

	if len(v.turns) == 0 {
		sections = append(sections, v.styles.Muted.Render("Ainda não foram feitas perguntas nesta sessão."))
	} else {
		sections = append(sections, v.renderTurns(), "", v.renderSelected())
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderTurns() string {
	lines := make([]string, 0, len(v.turns))
	for i, turn := range v.turns {
		line := fmt.Sprintf("%2d. %s  [%s, %s]", i+1, turn.Question, turn.Answer.Kind, formatLatency(turn.Answer))
		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render("> "+line))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderSelected() string {
	turn := v.turns[v.selected]

	parts := []string{
		v.styles.Question.Render("> " + turn.Question),
		v.styles.Answer.Width(max(v.width-4, 20)).Render(turn.Answer.Text),
	}
	if len(turn.Answer.Sources) > 0 {
		locators := make([]string, 0, len(turn.Answer.Sources))
		for _, c := range turn.Answer.Sources {
			locators = append(locators, c.Locator.String())
		}
		parts = append(parts, v.styles.Locator.Render("Fontes: "+strings.Join(locators, "; ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func formatLatency(a domain.Answer) string {
	if a.FromCache {
		return "cache"
	}
	return fmt.Sprintf("%.2fs", a.Latency.Seconds())
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Turns returns the listed turns.
func (v *View) Turns() []domain.Turn {
	return v.turns
}

// Selected returns the index of the selected turn.
func (v *View) Selected() int {
	return v.selected
}
