package nest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storybook/internal/config"
	"storybook/internal/domain/library/generator"
	"storybook/internal/story/tts"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const owlYAML = `
id: owl
title: The Sleepy Owl
author: Night Press
language: en-GB
pages:
  - title: Dusk
    narration: The owl opened one eye.
  - title: Dawn
    narration: The owl closed both eyes.
`

type harness struct {
	app    *StoryNest
	engine *tts.MockTTSEngine
	out    *bytes.Buffer
	root   *cobra.Command
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "owl.yaml"), []byte(owlYAML), 0644))

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/books/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generator.GutendexResponse{
			Results: []generator.GutendexBook{{
				ID:      55,
				Title:   "The Wonderful Wizard of Oz",
				Authors: []generator.Author{{Name: "Baum, L. Frank"}},
				Subjects: []string{
					"Fantasy fiction",
					"Children's stories",
				},
				Formats: map[string]string{"text/plain; charset=utf-8": srv.URL + "/text/55"},
			}},
		})
	})
	mux.HandleFunc("/text/55", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Dorothy lived in the midst of the great Kansas prairies.\n\nThe cyclone came."))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Config{
		TTS:   config.TTS{Engine: "mock", Language: "en-US", Rate: 0.5, Volume: 1},
		Story: config.Story{CommitThreshold: 0.5, Dir: dir},
		Library: config.Library{
			CacheDir: t.TempDir(),
			MaxAge:   time.Hour,
		},
	}

	h := &harness{
		engine: tts.NewMockTTSEngine(tts.Config{}),
		out:    &bytes.Buffer{},
		root:   &cobra.Command{Use: "storybook"},
	}
	gc := generator.NewGutenbergCache(cfg.Library.CacheDir, cfg.Library.MaxAge,
		generator.WithBaseURL(srv.URL),
		generator.WithHTTPClient(srv.Client()),
		generator.WithRequestPause(0),
	)
	h.app = NewStoryNest(
		WithIO(strings.NewReader(input), h.out),
		WithEngine(h.engine),
		WithGutenberg(gc),
	)
	h.app.Configure(cfg)
	h.app.AddCommands(h.root)
	t.Cleanup(h.app.Close)
	return h
}

func (h *harness) run(t *testing.T, args ...string) string {
	t.Helper()
	h.root.SetArgs(args)
	require.NoError(t, h.root.Execute())
	return h.out.String()
}

func (h *harness) spoken() []tts.Utterance {
	return h.engine.Spoken()
}

func TestListStories(t *testing.T) {
	h := newHarness(t, "")
	out := h.run(t, "list")

	assert.Contains(t, out, "The Hackathon Story")
	assert.Contains(t, out, "The Sleepy Owl")
	assert.Contains(t, out, "ID: owl")
	assert.Contains(t, out, "Found 2 wonderful stories")
}

func TestListStoriesFiltersByLanguage(t *testing.T) {
	h := newHarness(t, "")
	out := h.run(t, "list", "--language", "en-gb")

	assert.NotContains(t, out, "The Hackathon Story")
	assert.Contains(t, out, "Found 1 wonderful stories")
}

func TestListStoriesOnline(t *testing.T) {
	h := newHarness(t, "")
	out := h.run(t, "list", "--online")

	assert.Contains(t, out, "The Wonderful Wizard of Oz")
	assert.Contains(t, out, "ID: gutenberg-55")
	assert.Contains(t, out, "Found 3 wonderful stories")
}

func TestReadStoryPlain(t *testing.T) {
	h := newHarness(t, "n\nq\n")
	out := h.run(t, "read", "hackathon", "--plain", "--page", "2", "--rate", "0.8")

	spoken := h.spoken()
	require.Len(t, spoken, 2)
	assert.True(t, strings.HasPrefix(spoken[0].Text, "Each year"))
	assert.True(t, strings.HasPrefix(spoken[1].Text, "Once they start"))
	assert.Equal(t, 0.8, spoken[1].Rate)
	assert.Equal(t, "en-US", spoken[1].Language)
	assert.Contains(t, out, "Story finished")
	assert.Equal(t, 2, h.engine.Stops(), "one stop per page turn and one on close")
}

func TestReadStoryLanguageOverride(t *testing.T) {
	h := newHarness(t, "q\n")
	h.run(t, "read", "owl", "--plain", "--language", "fr-FR")

	spoken := h.spoken()
	require.Len(t, spoken, 1)
	assert.Equal(t, "fr-FR", spoken[0].Language)
	assert.Equal(t, "mock-fr", spoken[0].Voice)
}

func TestReadStoryErrors(t *testing.T) {
	h := newHarness(t, "")

	out := h.run(t, "read", "missing")
	assert.Contains(t, out, "storybook with ID 'missing' not found")

	out = h.run(t, "read", "owl", "--page", "7")
	assert.Contains(t, out, "there is no page 7")
	assert.Empty(t, h.spoken())
}

func TestReadStoryInteractiveSelection(t *testing.T) {
	h := newHarness(t, "2\nn\nq\n")
	out := h.run(t, "read")

	assert.Contains(t, out, "Choose Your Story Adventure")
	spoken := h.spoken()
	require.Len(t, spoken, 2)
	assert.Equal(t, "The owl opened one eye.", spoken[0].Text)
	assert.Equal(t, "The owl closed both eyes.", spoken[1].Text)
}

func TestReadStoryInteractiveQuit(t *testing.T) {
	h := newHarness(t, "q\n")
	out := h.run(t, "read")

	assert.Contains(t, out, "Maybe next time")
	assert.Empty(t, h.spoken())
}

func TestReadGutenbergStory(t *testing.T) {
	h := newHarness(t, "q\n")
	out := h.run(t, "read", "gutenberg-55", "--plain")

	assert.Contains(t, out, "The Wonderful Wizard of Oz")
	spoken := h.spoken()
	require.Len(t, spoken, 1)
	assert.Equal(t, "Dorothy lived in the midst of the great Kansas prairies. The cyclone came.", spoken[0].Text)
}

func TestShowPages(t *testing.T) {
	h := newHarness(t, "")
	out := h.run(t, "pages", "hackathon")

	assert.Contains(t, out, "5. To be continued...")
	assert.Contains(t, out, "waits 1.5s")
	assert.Contains(t, out, "Core values")
	assert.Empty(t, h.spoken())
}

func TestLibrariesAndVoices(t *testing.T) {
	h := newHarness(t, "")

	out := h.run(t, "libraries")
	assert.Contains(t, out, "Built-in Stories")
	assert.Contains(t, out, "Local Storybooks")
	assert.Contains(t, out, "Total: 2 libraries with 2 stories")

	out = h.run(t, "voices")
	assert.Contains(t, out, "mock-en")
	assert.Contains(t, out, "fr-FR")
}

func TestSettings(t *testing.T) {
	h := newHarness(t, "")
	out := h.run(t, "settings")

	assert.Contains(t, out, "Engine: mock")
	assert.Contains(t, out, "Rate: 0.50 (1.0x)")
	assert.Contains(t, out, "Swipe commits past: 50%")
}

func TestGutenbergCommands(t *testing.T) {
	h := newHarness(t, "")

	out := h.run(t, "gutenberg", "status")
	assert.Contains(t, out, "Cache does not exist")

	out = h.run(t, "gutenberg", "refresh")
	assert.Contains(t, out, "Found 1 stories on Project Gutenberg")

	out = h.run(t, "gutenberg", "status")
	assert.Contains(t, out, "Cache is fresh")

	out = h.run(t, "gutenberg", "load", "gutenberg-55")
	assert.Contains(t, out, "is ready to read offline, 1 pages")
}

func TestWithNarrationOverrides(t *testing.T) {
	h := newHarness(t, "")
	b, ok := h.app.shelf.Find("owl")
	require.True(t, ok)

	same := withNarrationOverrides(b, "", 0)
	assert.Equal(t, b, same)

	changed := withNarrationOverrides(b, "de-DE", 0.3)
	assert.Equal(t, "de-DE", changed.Language)
	assert.Equal(t, 0.3, changed.Pages[1].NarrationRate)
	assert.Equal(t, "en-GB", b.Pages[1].NarrationLanguage, "the shelf copy is untouched")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "abc…", excerpt("abc def", 4))
}

// closeCounter counts how often the engine is released.
type closeCounter struct {
	*tts.MockTTSEngine
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return c.MockTTSEngine.Close()
}

func TestCloseReleasesEngineOnce(t *testing.T) {
	engine := &closeCounter{MockTTSEngine: tts.NewMockTTSEngine(tts.Config{})}
	app := NewStoryNest(WithIO(strings.NewReader(""), &bytes.Buffer{}), WithEngine(engine))
	app.Configure(config.Config{
		TTS:     config.TTS{Engine: "mock", Language: "en-US", Rate: 0.5},
		Story:   config.Story{CommitThreshold: 0.5, Dir: t.TempDir()},
		Library: config.Library{CacheDir: t.TempDir(), MaxAge: time.Hour},
	})

	_, err := app.narrator()
	require.NoError(t, err)

	app.Close()
	app.Close()
	assert.Equal(t, 1, engine.closes)

	_, err = app.narrator()
	assert.ErrorIs(t, err, errClosed)
}
