// Package status provides the status bar shown under every view.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// State represents what the app is doing, for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Bar displays the active manual, ingest progress and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	hints    []key.Binding
	state    State
	message  string
	manual   string
	progress domain.Progress
	width    int
}

// NewBar creates a status bar.
func NewBar(s *styles.Styles) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Bar{
		styles:   s,
		state:    StateReady,
		progress: domain.IdleProgress(),
		width:    80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	parts := make([]string, 0, 3)

	manual := "no manual"
	if b.manual != "" {
		manual = b.manual
	}
	parts = append(parts, b.styles.Normal.Render(manual))

	if p := b.progressText(); p != "" {
		parts = append(parts, b.styles.Warning.Render(p))
	}

	switch b.state {
	case StateThinking:
		parts = append(parts, b.styles.Muted.Render("thinking…"))
	case StateError:
		msg := "error"
		if b.message != "" {
			msg = "error: " + b.message
		}
		parts = append(parts, b.styles.Error.Render(msg))
	case StateReady:
		if b.message != "" {
			parts = append(parts, b.styles.Success.Render(b.message))
		}
	}
	return strings.Join(parts, "  ")
}

// progressText describes a running ingest; it is empty when idle or complete.
func (b *Bar) progressText() string {
	switch {
	case b.progress.Phase == domain.PhaseError:
		return "ingest failed"
	case b.progress.Phase == domain.PhaseIdle || b.progress.Done():
		return ""
	default:
		return fmt.Sprintf("ingesting: %s %d%%", b.progress.Phase, b.progress.Progress)
	}
}

func (b *Bar) renderRight() string {
	hints := make([]string, 0, len(b.hints))
	for _, h := range b.hints {
		help := h.Help()
		hints = append(hints, help.Key+": "+help.Desc)
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

// SetMessage sets the message shown next to the state.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetManual sets the active manual name; empty means none.
func (b *Bar) SetManual(name string) {
	b.manual = name
}

// Manual returns the displayed manual name.
func (b *Bar) Manual() string {
	return b.manual
}

// SetProgress updates the ingest progress indicator.
func (b *Bar) SetProgress(p domain.Progress) {
	b.progress = p
}

// SetHints sets the keybinding hints shown on the right.
func (b *Bar) SetHints(hints []key.Binding) {
	b.hints = hints
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}
