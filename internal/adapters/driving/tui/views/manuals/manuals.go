// Package manuals provides the view for browsing and activating manuals.
package manuals

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// ErrNoManualService indicates that no manual service was provided.
var ErrNoManualService = errors.New("manual service is required")

// View lists the registry and activates the selected manual.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.ManualList
	statusbar *status.Bar

	manuals driving.ManualService
	ctx     context.Context

	loading    bool
	activating bool
	err        error
}

// NewView creates the manuals view. The status bar is shared with the app.
func NewView(s *styles.Styles, km *keymap.KeyMap, bar *status.Bar, manuals driving.ManualService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if bar == nil {
		bar = status.NewBar(s)
	}
	return &View{
		styles:    s,
		keymap:    km,
		list:      list.NewManualList(s),
		statusbar: bar,
		manuals:   manuals,
		ctx:       context.Background(),
	}
}

// WithContext sets the context service calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the manual list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc, ctx := v.manuals, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ManualsLoaded{Err: ErrNoManualService}
		}
		manuals, err := svc.List(ctx)
		if err != nil {
			return messages.ManualsLoaded{Err: err}
		}
		activeID, err := svc.ActiveID(ctx)
		return messages.ManualsLoaded{Manuals: manuals, ActiveID: activeID, Err: err}
	}
}

func (v *View) activate(ref string) tea.Cmd {
	svc, ctx := v.manuals, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ManualActivated{Err: ErrNoManualService}
		}
		m, err := svc.Activate(ctx, ref)
		return messages.ManualActivated{Manual: m, Err: err}
	}
}

// Update handles messages for the manuals view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.ManualsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.list.SetManuals(msg.Manuals, msg.ActiveID)
		}
		return v, nil

	case messages.ManualActivated:
		v.activating = false
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		if msg.Manual != nil {
			v.list.SetActive(msg.Manual.ID)
			v.statusbar.SetState(status.StateReady)
			v.statusbar.SetMessage("Using " + msg.Manual.Name)
		}
		return v, nil
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Activate):
		m := v.list.SelectedManual()
		if m == nil || v.activating {
			return v, nil
		}
		if m.Status != domain.ManualStatusReady {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(m.Name + " is " + string(m.Status))
			return v, nil
		}
		v.activating = true
		v.statusbar.SetState(status.StateThinking)
		return v, v.activate(m.ID)

	case keymap.Matches(k, v.keymap.Refresh):
		return v, v.Init()

	case keymap.Matches(k, v.keymap.Up), k == "k":
		v.list.MoveUp()
	case keymap.Matches(k, v.keymap.Down), k == "j":
		v.list.MoveDown()
	}
	return v, nil
}

// View renders the manuals view.
func (v *View) View() string {
	body := v.list.View()
	switch {
	case v.loading:
		body = v.styles.Muted.Render("Loading manuals…")
	case v.err != nil && len(v.list.Manuals()) == 0:
		body = v.styles.Error.Render("Error: " + v.err.Error())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("manualqa"),
		"",
		body,
	)
}

// SetDimensions sizes the list.
func (v *View) SetDimensions(width, height int) {
	v.list.SetDimensions(width, height-4)
}

// List returns the underlying manual list.
func (v *View) List() *list.ManualList {
	return v.list
}

// Err returns the last load or activation error.
func (v *View) Err() error {
	return v.err
}

// Loading reports whether the list is being fetched.
func (v *View) Loading() bool {
	return v.loading
}
