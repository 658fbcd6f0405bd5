// Package home is the lesson picker shown when the player starts.
package home

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/learningtime"
	"github.com/abhisek/lessonplayer/internal/router"
	"github.com/abhisek/lessonplayer/internal/screens/player"
	"github.com/abhisek/lessonplayer/internal/ui/components"
	"github.com/abhisek/lessonplayer/internal/ui/layout"
	"github.com/abhisek/lessonplayer/internal/ui/theme"
)

// Catalog lists the explorations that can be played.
type Catalog interface {
	List(ctx context.Context) ([]exploration.Summary, error)
}

// Deps are the services the home screen needs.
type Deps struct {
	Player       player.Deps
	Catalog      Catalog
	LearningTime *learningtime.Controller
}

type lesson struct {
	summary    exploration.Summary
	inProgress bool
	spent      time.Duration
}

// catalogMsg carries the lessons and the oldest unfinished one.
type catalogMsg struct {
	lessons []lesson
	oldest  *checkpoint.Details
	err     error
}

// Screen implements router.Screen.
type Screen struct {
	deps    Deps
	lessons []lesson
	oldest  *checkpoint.Details
	menu    components.Menu
	loaded  bool
	err     error
}

var _ router.Screen = (*Screen)(nil)
var _ router.Resumer = (*Screen)(nil)

func New(deps Deps) *Screen {
	return &Screen{deps: deps}
}

func (s *Screen) Init() tea.Cmd   { return s.load() }
func (s *Screen) Resume() tea.Cmd { return s.load() }
func (s *Screen) Title() string   { return "Lessons" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Play"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogMsg:
		s.loaded = true
		s.err = msg.err
		s.lessons = msg.lessons
		s.oldest = msg.oldest
		s.menu = components.NewMenu(s.menuItems())
		return s, nil
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(s.lessons))
	for _, l := range s.lessons {
		var detail []string
		if l.inProgress {
			detail = append(detail, "in progress")
		}
		if l.spent > 0 {
			detail = append(detail, formatSpent(l.spent))
		}
		id, playerDeps := l.summary.ID, s.deps.Player
		items = append(items, components.MenuItem{
			Label:  l.summary.Title,
			Detail: strings.Join(detail, ", "),
			Action: func() tea.Cmd {
				return router.Push(player.New(playerDeps, id))
			},
		})
	}
	return items
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Choose a lesson") + "\n\n")

	switch {
	case !s.loaded:
		b.WriteString(theme.Dim.Render("Loading..."))
	case s.err != nil:
		b.WriteString(theme.Incorrect.Render("Cannot list lessons: " + s.err.Error()))
	case len(s.lessons) == 0:
		b.WriteString(theme.Dim.Render("No lessons found."))
	default:
		if s.oldest != nil {
			b.WriteString(theme.Hint.Render(fmt.Sprintf("Pick up where you left off: %s", s.oldest.ExplorationTitle)) + "\n\n")
		}
		b.WriteString(s.menu.View())
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(b.String())
}

// load lists the lessons with their checkpoint and learning time.
func (s *Screen) load() tea.Cmd {
	deps := s.deps
	return func() tea.Msg {
		ctx := context.Background()
		summaries, err := deps.Catalog.List(ctx)
		if err != nil {
			return catalogMsg{err: err}
		}

		profileID := deps.Player.ProfileID
		lessons := make([]lesson, 0, len(summaries))
		for _, sum := range summaries {
			l := lesson{summary: sum}
			cp, err := deps.Player.Checkpoints.Retrieve(ctx, profileID, sum.ID)
			if err == nil && !cp.IsEmpty() {
				l.inProgress = true
			}
			if deps.LearningTime != nil {
				agg, err := deps.LearningTime.RetrieveAggregateTopicLearningTime(ctx, profileID, sum.TopicID)
				if err == nil {
					l.spent = time.Duration(agg.TopicLearningTimeMs) * time.Millisecond
				}
			}
			lessons = append(lessons, l)
		}

		msg := catalogMsg{lessons: lessons}
		oldest, err := deps.Player.Checkpoints.RetrieveOldestCheckpointDetails(ctx, profileID)
		switch {
		case err == nil:
			msg.oldest = &oldest
		case !errors.Is(err, exploration.ErrNotFound):
			msg.err = err
		}
		return msg
	}
}

func formatSpent(d time.Duration) string {
	if d < time.Minute {
		return "under a minute"
	}
	return fmt.Sprintf("%d min", int(d.Minutes()))
}
