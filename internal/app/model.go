package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplayer/internal/router"
	"github.com/abhisek/lessonplayer/internal/screens/home"
	"github.com/abhisek/lessonplayer/internal/screens/player"
	"github.com/abhisek/lessonplayer/internal/ui/layout"
)

// Options select who plays and, optionally, which exploration opens first.
type Options struct {
	ProfileID     string
	ExplorationID string
}

// Lifecycle is told when the terminal gains or loses focus.
// *learningtime.SessionTimer implements it.
type Lifecycle interface {
	OnAppInForeground(ctx context.Context)
	OnAppInBackground(ctx context.Context)
}

type keyHinter interface {
	KeyHints() []layout.KeyHint
}

type statusReporter interface {
	Status() string
}

// Model is the root Bubble Tea model.
type Model struct {
	router    *router.Router
	lifecycle Lifecycle
	first     router.Screen
	width     int
	height    int
}

// NewModel builds the root model over a's services.
func NewModel(a *App, opts Options) Model {
	pd := player.Deps{
		Sessions:            a.Sessions,
		Checkpoints:         a.Checkpoints,
		Loader:              a.Loader,
		ProfileID:           opts.ProfileID,
		SavePartialProgress: a.Config.Checkpoint.SavePartialProgress,
		Logger:              a.Logger,
	}
	m := newModel(home.New(home.Deps{
		Player:       pd,
		Catalog:      a.Loader,
		LearningTime: a.LearningTime,
	}), a.Timer)
	if opts.ExplorationID != "" {
		m.first = player.New(pd, opts.ExplorationID)
	}
	return m
}

func newModel(root router.Screen, lifecycle Lifecycle) Model {
	return Model{router: router.New(root), lifecycle: lifecycle}
}

func (m Model) Init() tea.Cmd {
	cmd := m.router.Active().Init()
	if m.first != nil {
		return tea.Batch(cmd, router.Push(m.first))
	}
	return cmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		m.lifecycle.OnAppInForeground(context.Background())
		return m, nil

	case tea.BlurMsg:
		m.lifecycle.OnAppInBackground(context.Background())
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, m.router.Update(msg)
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	status := ""
	if sr, ok := active.(statusReporter); ok {
		status = sr.Status()
	}
	header := layout.RenderHeader(active.Title(), status, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if kh, ok := active.(keyHinter); ok {
		hints = kh.KeyHints()
	}
	footer := layout.RenderFooter(hints, m.width)

	content := m.router.View(m.width, layout.ContentHeight(header, footer, m.height))
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run plays until the learner quits, then stops any open session so its
// progress and learning time are recorded.
func (a *App) Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(a, opts), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
	}
	if stopErr := a.Sessions.StopAll(context.WithoutCancel(ctx)); stopErr != nil {
		a.Logger.Error("failed to stop sessions on exit", zap.Error(stopErr))
	}
	return err
}
