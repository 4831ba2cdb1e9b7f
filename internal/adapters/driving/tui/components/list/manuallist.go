// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// ManualList displays registered manuals with the active one marked.
type ManualList struct {
	manuals  []domain.Manual
	activeID string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewManualList creates an empty manual list.
func NewManualList(s *styles.Styles) *ManualList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ManualList{styles: s, width: 80, height: 10}
}

// View renders the list.
func (l *ManualList) View() string {
	if len(l.manuals) == 0 {
		return l.styles.Muted.Render("No manuals yet. Run 'manualqa ingest <file>' to add one.")
	}

	lines := make([]string, 0, len(l.manuals)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Manuals (%d)", len(l.manuals))), "")

	visible := max(l.height-3, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.manuals))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderManual(i))
	}
	return strings.Join(lines, "\n")
}

func (l *ManualList) renderManual(i int) string {
	m := &l.manuals[i]

	indicator := "  "
	if i == l.selected {
		indicator = "> "
	}
	marker := " "
	if m.ID == l.activeID {
		marker = l.styles.Active.Render("●")
	}

	name := m.Name
	maxName := max(l.width-40, 10)
	if len([]rune(name)) > maxName {
		name = string([]rune(name)[:maxName-1]) + "…"
	}

	detail := fmt.Sprintf("%-9s %3d pages %3d icons %4d chunks", m.Status, m.PageCount, m.IconCount, m.ChunkCount)
	if m.Kind == domain.ManualKindMarkdown {
		detail = fmt.Sprintf("%-9s markdown           %4d chunks", m.Status, m.ChunkCount)
	}

	line := fmt.Sprintf("%s%-*s  ", indicator, maxName, name)
	if i == l.selected {
		return marker + " " + l.styles.Selected.Render(line) + l.styles.Muted.Render(detail)
	}
	style := l.styles.Normal
	if m.Status == domain.ManualStatusFailed {
		style = l.styles.Error
	}
	return marker + " " + style.Render(line) + l.styles.Muted.Render(detail)
}

// SetManuals replaces the list contents. The selection is kept when possible.
func (l *ManualList) SetManuals(manuals []domain.Manual, activeID string) {
	l.manuals = manuals
	l.activeID = activeID
	if l.selected >= len(manuals) {
		l.selected = max(len(manuals)-1, 0)
	}
}

// SetActive marks id as the active manual.
func (l *ManualList) SetActive(id string) {
	l.activeID = id
}

// ActiveID returns the id of the marked manual.
func (l *ManualList) ActiveID() string {
	return l.activeID
}

// Manuals returns the listed manuals.
func (l *ManualList) Manuals() []domain.Manual {
	return l.manuals
}

// Selected returns the index of the selected manual.
func (l *ManualList) Selected() int {
	return l.selected
}

// SelectedManual returns the selected manual, or nil if the list is empty.
func (l *ManualList) SelectedManual() *domain.Manual {
	if l.selected < 0 || l.selected >= len(l.manuals) {
		return nil
	}
	return &l.manuals[l.selected]
}

// MoveUp moves selection up.
func (l *ManualList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ManualList) MoveDown() {
	if l.selected < len(l.manuals)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ManualList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}
