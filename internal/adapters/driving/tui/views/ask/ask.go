// Package ask provides the question and answer view.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// ErrNoQAService indicates that no QA service was provided.
var ErrNoQAService = errors.New("qa service is required")

// reservedRows is the height taken by the title, input and status bar.
const reservedRows = 8

// sourcePreview is the number of runes of each retrieved section shown.
const sourcePreview = 240

// Exchange is one answered question.
type Exchange struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// View is the ask view: a question input above a scrollable transcript.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	statusbar  *status.Bar

	qa  driving.QAService
	ctx context.Context

	history     []Exchange
	pending     string
	showSources bool
	width       int
	height      int
}

// NewView creates the ask view. The status bar is shared with the app.
func NewView(s *styles.Styles, km *keymap.KeyMap, bar *status.Bar, qa driving.QAService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if bar == nil {
		bar = status.NewBar(s)
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: viewport.New(80, 16),
		statusbar:  bar,
		qa:         qa,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
	v.render()
	return v
}

// WithContext sets the context questions are asked under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Submit):
		return v, v.submit()

	case keymap.Matches(k, v.keymap.Clear):
		v.input.Reset()
		return v, nil

	case keymap.Matches(k, v.keymap.Sources):
		v.showSources = !v.showSources
		v.render()
		return v, nil

	case keymap.Matches(k, v.keymap.Up), keymap.Matches(k, v.keymap.Down):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question unless one is already in flight.
func (v *View) submit() tea.Cmd {
	question := v.input.Value()
	if question == "" || v.pending != "" {
		return nil
	}

	v.pending = question
	v.input.Reset()
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	v.render()
	return v.ask(question)
}

func (v *View) ask(question string) tea.Cmd {
	qa, ctx := v.qa, v.ctx
	return func() tea.Msg {
		if qa == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoQAService}
		}
		ans, err := qa.Ask(ctx, question)
		return messages.AnswerReceived{Question: question, Answer: ans, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = ""
	ex := Exchange{Question: msg.Question, Err: msg.Err}
	if msg.Answer != nil {
		ex.Answer = *msg.Answer
	}
	v.history = append(v.history, ex)

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else {
		v.statusbar.SetState(status.StateReady)
	}
	v.render()
}

// render rebuilds the transcript and scrolls to the newest exchange.
func (v *View) render() {
	if len(v.history) == 0 && v.pending == "" {
		v.transcript.SetContent(v.styles.Muted.Render(
			"Ask anything about the active manual, including what its icons mean."))
		return
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.history)+1)
	for i := range v.history {
		blocks = append(blocks, v.renderExchange(&v.history[i], wrap))
	}
	if v.pending != "" {
		blocks = append(blocks, v.styles.Question.Render("Q: "+v.pending)+"\n"+v.styles.Muted.Render("…"))
	}

	v.transcript.SetContent(strings.Join(blocks, "\n\n"))
	v.transcript.GotoBottom()
}

func (v *View) renderExchange(ex *Exchange, wrap lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(v.styles.Question.Render("Q: " + ex.Question))
	b.WriteString("\n")

	if ex.Err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + ex.Err.Error()))
		return b.String()
	}
	if ex.Answer.Intent != "" {
		b.WriteString(v.styles.Intent.Render("[" + string(ex.Answer.Intent) + "]"))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Normal.Render(wrap.Render(ex.Answer.Answer)))

	if v.showSources && len(ex.Answer.Chunks) > 0 {
		for _, hit := range ex.Answer.Chunks {
			b.WriteString("\n")
			header := fmt.Sprintf("%s  %.3f", hit.ID, hit.Score)
			b.WriteString(v.styles.Source.Render(header + "\n" + wrap.Render(preview(hit.Text))))
		}
	}
	return b.String()
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= sourcePreview {
		return text
	}
	return string(r[:sourcePreview]) + "…"
}

// View renders the ask view.
func (v *View) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("manualqa"),
		"",
		v.input.View(),
		"",
		v.transcript.View(),
	)
}

// SetDimensions sizes the input and transcript.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.transcript.Width = width
	v.transcript.Height = max(height-reservedRows, 3)
	v.render()
}

// Focus gives the question input keyboard focus.
func (v *View) Focus() tea.Cmd {
	return v.input.Focus()
}

// History returns the answered questions, oldest first.
func (v *View) History() []Exchange {
	return v.history
}

// Pending returns the question awaiting an answer, if any.
func (v *View) Pending() string {
	return v.pending
}

// ShowSources reports whether retrieved sections are displayed.
func (v *View) ShowSources() bool {
	return v.showSources
}

// Input returns the question input.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// Transcript returns the rendered transcript.
func (v *View) Transcript() string {
	return v.transcript.View()
}
