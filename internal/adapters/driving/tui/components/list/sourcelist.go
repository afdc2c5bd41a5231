// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/regbot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/regbot/internal/core/domain"
)

// linesPerSource is the height of one rendered source: citation plus excerpt.
const linesPerSource = 2

// SourceList displays the sources of an answer in a navigable list.
// The selected source is shown with a longer excerpt.
type SourceList struct {
	sources  []domain.Chunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles arrow-key navigation.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			l.MoveUp()
		case tea.KeyDown:
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of sources.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("Sem fontes")
	}

	lines := make([]string, 0, len(l.sources)*linesPerSource+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Fontes (%d)", len(l.sources))), "")

	visible := max((l.height-2)/linesPerSource, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.sources))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderSource(i int) string {
	src := l.sources[i]
	label := fmt.Sprintf("[%d] %s", i+1, src.Locator)

	var head string
	if i == l.selected {
		head = l.styles.Selected.Render("> " + label)
	} else {
		head = "  " + l.styles.Locator.Render(label)
	}

	excerpt := strings.Join(strings.Fields(src.Excerpt(l.excerptLength())), " ")
	return head + "\n" + l.styles.Muted.Render("    "+excerpt)
}

// excerptLength fits an excerpt on one line of the current width.
func (l *SourceList) excerptLength() int {
	return max(l.width-8, 20)
}

// SetSources replaces the list contents and selects the first source.
func (l *SourceList) SetSources(sources []domain.Chunk) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.Chunk {
	return l.sources
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedSource returns the selected source, or nil if the list is empty.
func (l *SourceList) SelectedSource() *domain.Chunk {
	if len(l.sources) == 0 {
		return nil
	}
	return &l.sources[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}
