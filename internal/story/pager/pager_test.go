package pager

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storybook/internal/domain/library"
	"storybook/internal/domain/story"
	"storybook/internal/story/narration"
	"storybook/internal/story/navigator"
	"storybook/internal/story/tts"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

func threePageBook() story.Book {
	return story.Book{ID: "three", Language: "en-US", Pages: []story.Page{
		{Title: "Morning", Caption: "The sun rises", NarrationText: "The sun came up."},
		{Title: "Noon", NarrationText: "The cat slept."},
		{Title: "Night", NarrationText: "The owl woke."},
	}}
}

func newReader(t *testing.T, book story.Book) (*navigator.Navigator, *narration.Manager, *tts.MockTTSEngine) {
	t.Helper()
	engine := tts.NewMockTTSEngine(tts.Config{})
	manager := narration.New(engine)
	nav, err := navigator.New(book, manager)
	require.NoError(t, err)
	return nav, manager, engine
}

func spokenTexts(engine *tts.MockTTSEngine) []string {
	var texts []string
	for _, u := range engine.Spoken() {
		texts = append(texts, u.Text)
	}
	return texts
}

func TestIndicator(t *testing.T) {
	assert.Equal(t, "● ○ ○", indicator(0, 3))
	assert.Equal(t, "○ ○ ●", indicator(2, 3))
	assert.Equal(t, "7 / 40", indicator(6, 40))
}

func TestPlainPager(t *testing.T) {
	nav, manager, engine := newReader(t, threePageBook())

	in := strings.NewReader(strings.Join([]string{
		"",      // next
		"n 0.2", // partial swipe settles back
		"n",     // last page
		"n",     // past the cover, ignored
		"p",     // pause
		"p",     // resume
		"g 1",   // back to the start
		"b",     // before the first page, ignored
		"s",     // stop
		"g 9",   // out of range
		"n x",   // bad progress
		"dance", // unknown
		"q",
		"n",     // never read
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, NewPlain(nav, manager, in, &out).Run(context.Background()))

	assert.Equal(t, []string{
		"The sun came up.",
		"The cat slept.",
		"The owl woke.",
		"The sun came up.",
	}, spokenTexts(engine))
	assert.False(t, manager.IsSpeaking(), "closing the book silences it")

	text := out.String()
	assert.Contains(t, text, "📄 Morning")
	assert.Contains(t, text, "The sun rises")
	assert.Contains(t, text, "● ○ ○   page 1 of 3")
	assert.Contains(t, text, "○ ○ ●   page 3 of 3")
	assert.Contains(t, text, "The page settles back")
	assert.Contains(t, text, "⏸️  Paused")
	assert.Contains(t, text, "▶️  Resumed")
	assert.Contains(t, text, "⏹️  Stopped")
	assert.Contains(t, text, "Choose a page between 1 and 3")
	assert.Contains(t, text, "Invalid swipe progress: x")
	assert.Contains(t, text, "Unknown command")
	assert.Equal(t, 2, strings.Count(text, "📄 Morning"))
	assert.Equal(t, 1, strings.Count(text, "📄 Night"))
}

func TestPlainPagerStopsAtEndOfInput(t *testing.T) {
	nav, manager, engine := newReader(t, library.Hackathon())

	var out bytes.Buffer
	require.NoError(t, NewPlain(nav, manager, strings.NewReader("n\nn\n"), &out).Run(context.Background()))

	assert.Len(t, engine.Spoken(), 3)
	assert.False(t, manager.IsSpeaking())
}

func TestPlainPagerPauseWithNothingPlaying(t *testing.T) {
	nav, manager, engine := newReader(t, threePageBook())

	var out bytes.Buffer
	in := strings.NewReader("s\np\nr\nq\n")
	require.NoError(t, NewPlain(nav, manager, in, &out).Run(context.Background()))

	assert.Contains(t, out.String(), "Nothing is being read right now")
	assert.Contains(t, out.String(), "Quiet")
	assert.False(t, engine.IsPaused())
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestModelNavigation(t *testing.T) {
	nav, manager, engine := newReader(t, threePageBook())
	require.NoError(t, nav.Start())
	defer nav.Close()

	m := NewModel(nav, manager)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m, _ = update(t, m, keyPress("right"))
	assert.Equal(t, 1, nav.State().Current)

	m, _ = update(t, m, keyPress("right"), keyPress("right"))
	assert.Equal(t, 2, nav.State().Current, "no wraparound past the last page")

	m, _ = update(t, m, keyPress("left"))
	assert.Equal(t, 1, nav.State().Current)

	m, _ = update(t, m, keyPress("1"))
	assert.Equal(t, 0, nav.State().Current)

	m, _ = update(t, m, keyPress("9"))
	assert.Equal(t, 0, nav.State().Current)

	m, _ = update(t, m, keyPress("G"))
	assert.Equal(t, 2, nav.State().Current)

	assert.Equal(t, []string{
		"The sun came up.",
		"The cat slept.",
		"The owl woke.",
		"The cat slept.",
		"The sun came up.",
		"The owl woke.",
	}, spokenTexts(engine))

	view := m.View()
	assert.Contains(t, view, "Night")
	assert.Contains(t, view, "The owl woke.")
	assert.Contains(t, view, "page 3 of 3")
	assert.Contains(t, view, "Reading aloud")
}

func TestModelPauseStopAndQuit(t *testing.T) {
	nav, manager, engine := newReader(t, threePageBook())
	require.NoError(t, nav.Start())
	defer nav.Close()

	m := NewModel(nav, manager)

	m, _ = update(t, m, keyPress("space"))
	assert.True(t, manager.IsPaused())
	assert.True(t, engine.IsPaused())
	assert.Contains(t, m.View(), "Paused")

	m, _ = update(t, m, keyPress("p"))
	assert.False(t, manager.IsPaused())

	m, _ = update(t, m, keyPress("s"), speakingMsg(false))
	assert.False(t, manager.IsSpeaking())
	assert.Contains(t, m.View(), "Quiet")

	_, cmd := update(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
