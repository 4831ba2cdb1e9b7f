package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/views/manuals"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// DefaultPollInterval is how often the ingest progress file is read.
const DefaultPollInterval = 2 * time.Second

// App is the main TUI application following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	statusbar   *status.Bar
	askView     *ask.View
	manualsView *manuals.View

	currentView  messages.ViewType
	pollInterval time.Duration
	lastProgress domain.Progress

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s)
	bar.SetHints(km.AskHelp())
	if m := ports.QA.ActiveManual(); m != nil {
		bar.SetManual(m.Name)
	}

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		statusbar:    bar,
		askView:      ask.NewView(s, km, bar, ports.QA),
		manualsView:  manuals.NewView(s, km, bar, ports.Manuals),
		currentView:  messages.ViewAsk,
		pollInterval: DefaultPollInterval,
		lastProgress: domain.IdleProgress(),
	}, nil
}

// WithContext sets the context service calls run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.manualsView.WithContext(ctx)
	return a
}

// WithPollInterval changes how often ingest progress is polled.
func (a *App) WithPollInterval(d time.Duration) *App {
	if d > 0 {
		a.pollInterval = d
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("manualqa"),
		a.askView.Init(),
		a.manualsView.Init(),
		a.pollProgress(),
	)
}

// pollProgress schedules the next read of the progress file.
func (a *App) pollProgress() tea.Cmd {
	if a.ports.Ingest == nil {
		return nil
	}
	ingest := a.ports.Ingest
	return tea.Tick(a.pollInterval, func(time.Time) tea.Msg {
		p, err := ingest.Status()
		return messages.ProgressUpdated{Progress: p, Err: err}
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		k := msg.String()
		if keymap.Matches(k, a.keymap.Quit) {
			return a, tea.Quit
		}
		if keymap.Matches(k, a.keymap.Switch) {
			return a, a.switchTo(a.currentView.Next())
		}
		if a.currentView == messages.ViewManuals {
			a.manualsView, cmd = a.manualsView.Update(msg)
			return a, cmd
		}
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.AnswerReceived:
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.ManualsLoaded:
		a.manualsView, cmd = a.manualsView.Update(msg)
		return a, cmd

	case messages.ManualActivated:
		a.manualsView, cmd = a.manualsView.Update(msg)
		if msg.Err == nil && msg.Manual != nil {
			a.statusbar.SetManual(msg.Manual.Name)
		}
		return a, cmd

	case messages.ProgressUpdated:
		return a, a.handleProgress(msg)

	case messages.ErrorOccurred:
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil
	}

	if a.currentView == messages.ViewAsk {
		a.askView, cmd = a.askView.Update(msg)
	}
	return a, cmd
}

// handleProgress updates the status bar and reloads the manual list when
// an ingest finishes.
func (a *App) handleProgress(msg messages.ProgressUpdated) tea.Cmd {
	if msg.Err != nil {
		return a.pollProgress()
	}

	prev := a.lastProgress
	a.lastProgress = msg.Progress
	a.statusbar.SetProgress(msg.Progress)

	finished := msg.Progress.Done() && !prev.Done() && prev.Phase != domain.PhaseIdle
	if finished {
		return tea.Batch(a.manualsView.Init(), a.pollProgress())
	}
	return a.pollProgress()
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	if view == messages.ViewManuals {
		a.statusbar.SetHints(a.keymap.ManualsHelp())
		a.askView.Input().Blur()
		return nil
	}
	a.statusbar.SetHints(a.keymap.AskHelp())
	return a.askView.Focus()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	body := a.askView.View()
	if a.currentView == messages.ViewManuals {
		body = a.manualsView.View()
	}

	gap := max(a.height-lipgloss.Height(body)-1, 1)
	return lipgloss.JoinVertical(lipgloss.Left, body, lipgloss.NewStyle().Height(gap).Render(""), a.statusbar.View())
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// StatusBar returns the shared status bar.
func (a *App) StatusBar() *status.Bar {
	return a.statusbar
}

// AskView returns the ask view.
func (a *App) AskView() *ask.View {
	return a.askView
}

// ManualsView returns the manuals view.
func (a *App) ManualsView() *manuals.View {
	return a.manualsView
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.statusbar.SetWidth(width)
	a.askView.SetDimensions(width, height)
	a.manualsView.SetDimensions(width, height)
}
