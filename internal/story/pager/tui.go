package pager

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"storybook/internal/story/navigator"
)

type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
	Pause key.Binding
	Stop  key.Binding
	Quit  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("right", "l", "n", "enter"),
			key.WithHelp("→/l", "next page"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h", "b"),
			key.WithHelp("←/h", "previous page"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first page"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last page"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop reading"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "close book"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Pause, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.First, k.Last},
		{k.Pause, k.Stop, k.Quit},
	}
}

type styles struct {
	app     lipgloss.Style
	title   lipgloss.Style
	caption lipgloss.Style
	body    lipgloss.Style
	muted   lipgloss.Style
	status  lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		app: lipgloss.NewStyle().
			Padding(1, 2),
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00b4d8")).
			Bold(true),
		caption: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c77dff")).
			Italic(true),
		body: lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6c757d")),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52b788")),
	}
}

// speakingMsg reports a narration start or end so the status line redraws.
type speakingMsg bool

// Model is the bubbletea model of the full-screen pager.
type Model struct {
	nav      *navigator.Navigator
	controls Controls
	keys     keyMap
	help     help.Model
	progress progress.Model
	styles   styles
	width    int
}

func NewModel(nav *navigator.Navigator, controls Controls) Model {
	return Model{
		nav:      nav,
		controls: controls,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		styles:   defaultStyles(),
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = min(msg.Width-4, 60)

	case speakingMsg:
		// View reads the narrator directly

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		err = m.nav.Next()
	case key.Matches(msg, m.keys.Prev):
		err = m.nav.Previous()
	case key.Matches(msg, m.keys.First):
		err = m.nav.Select(0)
	case key.Matches(msg, m.keys.Last):
		err = m.nav.Select(m.nav.Len() - 1)
	case key.Matches(msg, m.keys.Pause):
		if m.controls.IsPaused() {
			m.controls.Resume()
		} else if m.controls.IsSpeaking() {
			m.controls.Pause()
		}
	case key.Matches(msg, m.keys.Stop):
		m.controls.Stop()
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9':
		if i := int(msg.Runes[0] - '1'); i < m.nav.Len() {
			err = m.nav.Select(i)
		}
	}

	if err != nil && !errors.Is(err, navigator.ErrBoundary) {
		logrus.WithError(err).Debug("Gesture rejected")
	}
	return m, nil
}

func (m Model) View() string {
	s := m.nav.State()
	page, ok := m.nav.Page(s.Current)
	if !ok {
		return ""
	}

	textWidth := min(m.width-4, 72)
	if textWidth < 20 {
		textWidth = 20
	}

	sections := []string{m.styles.title.Render(page.Title)}
	if page.Caption != "" {
		sections = append(sections, m.styles.caption.Render(page.Caption))
	}
	sections = append(sections,
		m.styles.body.Width(textWidth).Render(page.NarrationText),
		m.progress.ViewAs(float64(s.Current+1)/float64(m.nav.Len())),
		m.styles.muted.Render(fmt.Sprintf("%s   page %d of %d", indicator(s.Current, m.nav.Len()), s.Current+1, m.nav.Len())),
		m.styles.status.Render(narrationStatus(m.controls)),
		"",
		m.help.View(m.keys),
	)
	return m.styles.app.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// RunTUI starts the book and runs the full-screen pager until the reader
// quits or ctx is done. Narration is stopped on return.
func RunTUI(ctx context.Context, nav *navigator.Navigator, controls Controls, opts ...tea.ProgramOption) error {
	if err := nav.Start(); err != nil {
		return err
	}
	defer nav.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(nav, controls), opts...)

	// observers run under the narrator's lock, so the send is detached
	cancel := controls.Subscribe(func(speaking bool) {
		go p.Send(speakingMsg(speaking))
	})
	defer cancel()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("pager failed: %w", err)
	}
	return nil
}
