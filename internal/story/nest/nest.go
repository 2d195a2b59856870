package nest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storybook/internal/cli/scheme/colours"
	"storybook/internal/config"
	"storybook/internal/domain/library"
	"storybook/internal/domain/library/generator"
	"storybook/internal/domain/story"
	"storybook/internal/story/narration"
	"storybook/internal/story/navigator"
	"storybook/internal/story/pager"
	"storybook/internal/story/tts"
)

const gutenbergLibraryName = "Project Gutenberg Children's Collection"

var errClosed = errors.New("storybook is closed")

// StoryNest main application structure
type StoryNest struct {
	config    config.Config
	shelf     library.Shelf
	gutenberg generator.StoryGenerator
	cache     *generator.GutenCache

	in  io.Reader
	out io.Writer

	mu        sync.Mutex
	engine    tts.Engine
	narration *narration.Manager
	closed    bool
	closeOnce sync.Once

	ctx    context.Context
	Cancel context.CancelFunc
}

// Option configures a StoryNest.
type Option func(*StoryNest)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(sn *StoryNest) {
		sn.in = in
		sn.out = out
	}
}

// WithEngine narrates through engine instead of the configured one.
func WithEngine(engine tts.Engine) Option {
	return func(sn *StoryNest) { sn.engine = engine }
}

// WithGutenberg replaces the Project Gutenberg cache.
func WithGutenberg(gc *generator.GutenCache) Option {
	return func(sn *StoryNest) {
		sn.cache = gc
		sn.gutenberg = gc
	}
}

func NewStoryNest(opts ...Option) *StoryNest {
	ctx, cancel := context.WithCancel(context.Background())
	sn := &StoryNest{
		in:     os.Stdin,
		out:    os.Stdout,
		ctx:    ctx,
		Cancel: cancel,
	}
	for _, opt := range opts {
		opt(sn)
	}
	return sn
}

// Configure applies cfg and fills the shelf. It runs once the config file
// and flags have been read.
func (sn *StoryNest) Configure(cfg config.Config) {
	sn.config = cfg
	if sn.cache == nil {
		sn.cache = generator.NewGutenbergCache(cfg.Library.CacheDir, cfg.Library.MaxAge,
			generator.WithBaseURL(cfg.Library.GutendexURL))
		sn.gutenberg = sn.cache
	}
	sn.loadLibraries()
}

// loadLibraries puts the built-in stories and any local storybooks on the
// shelf.
func (sn *StoryNest) loadLibraries() {
	if err := sn.shelf.Add(library.Builtin()); err != nil {
		logrus.WithError(err).Warn("Built-in library is incomplete")
	}

	dir := sn.config.Story.Dir
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		logrus.WithField("dir", dir).Debug("No local storybooks")
		return
	}
	local, err := library.LoadDir(dir)
	if err != nil {
		logrus.WithError(err).Warn("Failed to load local storybooks")
		return
	}
	if err := sn.shelf.Add(local); err != nil {
		logrus.WithError(err).Warn("Some local storybooks were skipped")
	}
}

// narrator returns the narration manager, creating the engine on first use.
func (sn *StoryNest) narrator() (*narration.Manager, error) {
	sn.mu.Lock()
	defer sn.mu.Unlock()

	if sn.closed {
		return nil, errClosed
	}
	if sn.narration != nil {
		return sn.narration, nil
	}
	if sn.engine == nil {
		engine, err := tts.NewEngine(tts.Config{
			Type:      sn.config.TTS.Engine,
			Rate:      sn.config.TTS.Rate,
			Volume:    sn.config.TTS.Volume,
			Voice:     sn.config.TTS.Voice,
			CachePath: sn.config.TTS.CachePath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create tts engine: %w", err)
		}
		sn.engine = engine
	}

	sn.narration = narration.New(sn.engine,
		narration.WithDefaults(sn.config.TTS.Language, sn.config.TTS.Rate),
		narration.WithLogger(logrus.WithField("component", "narration")),
	)
	return sn.narration, nil
}

// Close silences narration and releases the engine. Only the first call
// has any effect.
func (sn *StoryNest) Close() {
	sn.closeOnce.Do(func() {
		sn.Cancel()

		sn.mu.Lock()
		defer sn.mu.Unlock()
		sn.closed = true
		switch {
		case sn.narration != nil:
			if err := sn.narration.Close(); err != nil {
				logrus.WithError(err).Debug("Failed to close tts engine")
			}
		case sn.engine != nil:
			sn.engine.Close()
		}
	})
}

func (sn *StoryNest) ShowWelcome() {
	fmt.Fprintln(sn.out)
	colours.Title.Fprintln(sn.out, "🌟 Welcome to Storybook! 🌟")
	fmt.Fprintln(sn.out)
	colours.Info.Fprintln(sn.out, "📚 Available commands:")
	fmt.Fprintln(sn.out, "  • storybook list       - Browse available storybooks")
	fmt.Fprintln(sn.out, "  • storybook read       - Open a storybook and turn its pages")
	fmt.Fprintln(sn.out, "  • storybook random     - Open a surprise storybook")
	fmt.Fprintln(sn.out, "  • storybook pages      - Show the pages of a storybook")
	fmt.Fprintln(sn.out, "  • storybook libraries  - Show story sources")
	fmt.Fprintln(sn.out, "  • storybook voices     - List narration voices")
	fmt.Fprintln(sn.out, "  • storybook settings   - Show narration settings")
	fmt.Fprintln(sn.out, "  • storybook gutenberg  - Manage Project Gutenberg stories")
	fmt.Fprintln(sn.out)
	colours.Prompt.Fprintln(sn.out, "✨ Ready for a magical story adventure? ✨")
}

func (sn *StoryNest) ListStories(cmd *cobra.Command, args []string) {
	online, _ := cmd.Flags().GetBool("online")
	lang, _ := cmd.Flags().GetString("language")

	fmt.Fprintln(sn.out)
	colours.Title.Fprintln(sn.out, "📚 Available Storybooks 📚")
	fmt.Fprintln(sn.out)

	count := 0
	for _, lib := range sn.shelf.Libraries() {
		colours.Info.Fprintf(sn.out, "📖 From %s:\n", lib.Name)
		for _, b := range lib.Books {
			if lang != "" && !strings.HasPrefix(strings.ToLower(b.Language), strings.ToLower(lang)) {
				continue
			}
			count++
			sn.printBook(count, b)
		}
	}

	if online {
		resources, err := sn.gutenberg.ListOnlineResources(sn.ctx)
		if err != nil {
			colours.Error.Fprintf(sn.out, "❌ Could not list Gutenberg stories: %v\n", err)
		} else {
			colours.Info.Fprintf(sn.out, "📖 From %s:\n", gutenbergLibraryName)
			for _, r := range resources {
				count++
				fmt.Fprintf(sn.out, "  %d. ", count)
				colours.Title.Fprint(sn.out, r.Name)
				fmt.Fprint(sn.out, " by ")
				colours.Author.Fprintln(sn.out, r.Author)
				fmt.Fprintf(sn.out, "     💡 %s\n", r.Description)
				colours.Info.Fprintf(sn.out, "     ID: %s\n", r.ID)
				fmt.Fprintln(sn.out)
			}
		}
	}

	if count == 0 {
		colours.Warning.Fprintln(sn.out, "🔍 No storybooks found matching your criteria.")
	} else {
		colours.Success.Fprintf(sn.out, "✨ Found %d wonderful stories! ✨\n", count)
	}
}

func (sn *StoryNest) printBook(n int, b story.Book) {
	fmt.Fprintf(sn.out, "  %d. ", n)
	colours.Title.Fprint(sn.out, b.Title)
	fmt.Fprint(sn.out, " by ")
	colours.Author.Fprintln(sn.out, b.Author)
	fmt.Fprintf(sn.out, "     📄 Pages: %d | 🗣️ Language: %s\n", b.Len(), b.Language)
	if b.Description != "" {
		fmt.Fprintf(sn.out, "     💡 %s\n", b.Description)
	}
	colours.Info.Fprintf(sn.out, "     ID: %s\n", b.ID)
	fmt.Fprintln(sn.out)
}

func (sn *StoryNest) ReadRandomStory(cmd *cobra.Command, args []string) {
	books := sn.shelf.Books()
	if len(books) == 0 {
		colours.Error.Fprintln(sn.out, "❌ No storybooks available!")
		return
	}

	fmt.Fprintln(sn.out)
	colours.Prompt.Fprintln(sn.out, "🎲 Random Story Selection! 🎲")
	sn.openBook(cmd, books[rand.Intn(len(books))])
}

func (sn *StoryNest) ReadStory(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		sn.interactiveStorySelection(cmd)
		return
	}

	b, err := sn.findBook(args[0])
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ %v\n", err)
		return
	}
	sn.openBook(cmd, b)
}

// findBook looks on the shelf first and then in the Gutenberg catalog.
func (sn *StoryNest) findBook(id string) (story.Book, error) {
	if b, ok := sn.shelf.Find(id); ok {
		return b, nil
	}
	if !strings.HasPrefix(id, "gutenberg-") {
		return story.Book{}, fmt.Errorf("storybook with ID '%s' not found", id)
	}

	colours.Info.Fprintln(sn.out, "🌐 Fetching the book from Project Gutenberg...")
	r, err := sn.cache.Find(sn.ctx, id)
	if err != nil {
		return story.Book{}, err
	}
	b, err := sn.gutenberg.LoadResource(sn.ctx, r)
	if err != nil {
		return story.Book{}, fmt.Errorf("failed to load %s: %w", id, err)
	}
	return *b, nil
}

func (sn *StoryNest) interactiveStorySelection(cmd *cobra.Command) {
	books := sn.shelf.Books()
	if len(books) == 0 {
		colours.Error.Fprintln(sn.out, "❌ No storybooks available!")
		return
	}

	fmt.Fprintln(sn.out)
	colours.Title.Fprintln(sn.out, "📚 Choose Your Story Adventure! 📚")
	fmt.Fprintln(sn.out)

	for i, b := range books {
		fmt.Fprintf(sn.out, "%d. ", i+1)
		colours.Title.Fprint(sn.out, b.Title)
		fmt.Fprint(sn.out, " by ")
		colours.Author.Fprint(sn.out, b.Author)
		fmt.Fprintf(sn.out, " (%d pages)\n", b.Len())
	}

	fmt.Fprintln(sn.out)
	colours.Prompt.Fprint(sn.out, "🌟 Enter the number of your chosen story (or 'q' to quit): ")

	reader := bufio.NewReader(sn.in)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "q" || input == "quit" {
		colours.Warning.Fprintln(sn.out, "👋 Maybe next time! Sweet dreams! 🌙")
		return
	}

	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > len(books) {
		colours.Error.Fprintln(sn.out, "❌ Invalid selection! Please try again.")
		return
	}

	// the rest of the line-mode session reads from the same buffered input
	sn.in = reader
	sn.openBook(cmd, books[choice-1])
}

// openBook narrates b page by page until the reader closes it.
func (sn *StoryNest) openBook(cmd *cobra.Command, b story.Book) {
	plain, _ := cmd.Flags().GetBool("plain")
	page, _ := cmd.Flags().GetInt("page")
	lang, _ := cmd.Flags().GetString("language")
	rate, _ := cmd.Flags().GetFloat64("rate")

	b = withNarrationOverrides(b, lang, rate)

	start := sn.config.Story.StartPage
	if page > 0 {
		start = page - 1
	}

	manager, err := sn.narrator()
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ TTS Error: %v\n", err)
		return
	}

	nav, err := navigator.New(b, manager,
		navigator.WithCommitThreshold(sn.config.Story.CommitThreshold),
		navigator.WithStartPage(start),
		navigator.WithLogger(logrus.WithField("book", b.ID)),
	)
	if errors.Is(err, navigator.ErrBoundary) {
		colours.Error.Fprintf(sn.out, "❌ '%s' has %d pages, there is no page %d\n", b.Title, b.Len(), start+1)
		return
	}
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ Could not open '%s': %v\n", b.Title, err)
		return
	}

	config.Watch(func(c config.Config) {
		manager.SetDefaults(c.TTS.Language, c.TTS.Rate)
	})

	fmt.Fprintln(sn.out)
	colours.Title.Fprintf(sn.out, "📖 %s\n", b.Title)
	colours.Author.Fprintf(sn.out, "✍️  by %s\n", b.Author)

	if plain || !sn.interactive() {
		err = pager.NewPlain(nav, manager, sn.in, sn.out).Run(sn.ctx)
	} else {
		err = pager.RunTUI(sn.ctx, nav, manager)
	}
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ %v\n", err)
		return
	}
	colours.Success.Fprintln(sn.out, "✅ Story finished! 🌟")
	colours.Prompt.Fprintln(sn.out, "😴 Sleep tight! 🌙")
}

// withNarrationOverrides makes every page narrate in lang at rate when
// they are set.
func withNarrationOverrides(b story.Book, lang string, rate float64) story.Book {
	if lang == "" && rate <= 0 {
		return b
	}
	pages := append([]story.Page(nil), b.Pages...)
	for i := range pages {
		if lang != "" {
			pages[i].NarrationLanguage = lang
		}
		if rate > 0 {
			pages[i].NarrationRate = rate
		}
	}
	b.Pages = pages
	if lang != "" {
		b.Language = lang
	}
	return b
}

// interactive reports whether both ends of the session are a terminal.
func (sn *StoryNest) interactive() bool {
	in, ok := sn.in.(*os.File)
	if !ok {
		return false
	}
	out, ok := sn.out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(in.Fd()) && isatty.IsTerminal(out.Fd())
}

func (sn *StoryNest) ShowPages(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		colours.Error.Fprintln(sn.out, "❌ Which storybook? Pass its ID, see 'storybook list'")
		return
	}
	b, err := sn.findBook(args[0])
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ %v\n", err)
		return
	}

	fmt.Fprintln(sn.out)
	colours.Title.Fprintf(sn.out, "📖 %s\n", b.Title)
	fmt.Fprintln(sn.out)
	for _, p := range b.Pages {
		fmt.Fprintf(sn.out, "  %d. ", p.Index+1)
		colours.Title.Fprintln(sn.out, p.Title)
		if p.Caption != "" {
			colours.Caption.Fprintf(sn.out, "     %s\n", p.Caption)
		}
		details := []string{"🗣️ " + p.NarrationLanguage}
		if p.NarrationRate > 0 {
			details = append(details, fmt.Sprintf("⏩ rate %.2f", p.NarrationRate))
		}
		if p.NarrationDelay > 0 {
			details = append(details, "⏳ waits "+p.NarrationDelay.String())
		}
		colours.Muted.Fprintf(sn.out, "     %s\n", strings.Join(details, " | "))
		fmt.Fprintf(sn.out, "     %s\n", excerpt(p.NarrationText, 80))
	}
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func (sn *StoryNest) ManageLibraries(cmd *cobra.Command, args []string) {
	fmt.Fprintln(sn.out)
	colours.Title.Fprintln(sn.out, "🏛️ Story Libraries 🏛️")
	fmt.Fprintln(sn.out)

	libs := sn.shelf.Libraries()
	for i, lib := range libs {
		fmt.Fprintf(sn.out, "%d. ", i+1)
		colours.Info.Fprint(sn.out, lib.Name)
		fmt.Fprintf(sn.out, " (%d stories)\n", len(lib.Books))
		fmt.Fprintf(sn.out, "   🔗 %s\n", lib.URL)
		fmt.Fprintln(sn.out)
	}

	colours.Success.Fprintf(sn.out, "✨ Total: %d libraries with %d stories\n",
		len(libs), len(sn.shelf.Books()))
}

func (sn *StoryNest) ListVoices(cmd *cobra.Command, args []string) {
	manager, err := sn.narrator()
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ TTS Error: %v\n", err)
		return
	}
	voices, err := manager.Voices()
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ Could not list voices: %v\n", err)
		return
	}

	fmt.Fprintln(sn.out)
	colours.Title.Fprintln(sn.out, "🎤 Narration Voices 🎤")
	fmt.Fprintln(sn.out)
	for _, v := range voices {
		colours.Info.Fprintf(sn.out, "  • %-28s", v.Name)
		fmt.Fprintf(sn.out, " %-10s %s\n", v.Language, v.Gender)
	}
	if len(voices) == 0 {
		colours.Warning.Fprintln(sn.out, "🔍 The engine reports no voices, its default voice is used.")
	}
}

func (sn *StoryNest) ConfigureSettings(cmd *cobra.Command, args []string) {
	fmt.Fprintln(sn.out)
	colours.Title.Fprintln(sn.out, "⚙️ TTS Settings ⚙️")
	fmt.Fprintln(sn.out)

	c := sn.config
	colours.Prompt.Fprintln(sn.out, "🎤 Voice Settings:")
	fmt.Fprintf(sn.out, "  • Engine: %s\n", c.TTS.Engine)
	fmt.Fprintf(sn.out, "  • Voice: %s\n", c.TTS.Voice)
	fmt.Fprintf(sn.out, "  • Language: %s\n", c.TTS.Language)
	fmt.Fprintf(sn.out, "  • Rate: %.2f (%.1fx)\n", tts.ClampRate(c.TTS.Rate), tts.ClampRate(c.TTS.Rate)*2)
	fmt.Fprintf(sn.out, "  • Volume: %.0f%%\n", c.TTS.Volume*100)
	fmt.Fprintln(sn.out)

	colours.Prompt.Fprintln(sn.out, "📖 Page Turning:")
	fmt.Fprintf(sn.out, "  • Swipe commits past: %.0f%%\n", c.Story.CommitThreshold*100)
	fmt.Fprintf(sn.out, "  • Local storybooks: %s\n", c.Story.Dir)
	fmt.Fprintln(sn.out)

	colours.Prompt.Fprintln(sn.out, "🔊 Engines on this machine:")
	for _, e := range tts.GetAvailableEngines() {
		info, _ := tts.LookupEngine(e)
		fmt.Fprintf(sn.out, "  • %s: %s\n", e, info.Description)
	}

	if file := viper.ConfigFileUsed(); file != "" {
		colours.Info.Fprintf(sn.out, "📁 Config file: %s\n", file)
	} else {
		colours.Info.Fprintln(sn.out, "💡 Create ~/.storybook/storybook.yaml to change these settings")
	}

	if _, err := sn.narrator(); err != nil {
		colours.Warning.Fprintf(sn.out, "⚠️ The %s engine is not available: %v\n", c.TTS.Engine, err)
		return
	}
	sn.mu.Lock()
	engine := sn.engine
	sn.mu.Unlock()

	cacheable, ok := engine.(tts.CacheableEngine)
	if !ok {
		return
	}
	if wipe, _ := cmd.Flags().GetBool("clear-speech-cache"); wipe {
		if err := cacheable.ClearCache(); err != nil {
			colours.Error.Fprintf(sn.out, "❌ Failed to clear the speech cache: %v\n", err)
			return
		}
		colours.Success.Fprintln(sn.out, "🧹 Speech cache cleared")
	}
	stats, err := cacheable.GetCacheStats()
	if err != nil {
		colours.Warning.Fprintf(sn.out, "⚠️ Could not read the speech cache: %v\n", err)
		return
	}
	colours.Info.Fprintf(sn.out, "🗄️ Speech cache: %v files, %.1f MB in %v\n",
		stats["cached_files"], stats["total_size_mb"], stats["cache_directory"])
}

// RefreshGutenbergCache forces a refresh of the Gutenberg cache
func (sn *StoryNest) RefreshGutenbergCache(cmd *cobra.Command, args []string) {
	colours.Info.Fprintln(sn.out, "🔄 Refreshing Gutenberg cache...")

	if err := sn.cache.ClearCache(); err != nil {
		colours.Error.Fprintf(sn.out, "❌ Failed to clear cache: %v\n", err)
		return
	}

	resources, err := sn.gutenberg.ListOnlineResources(sn.ctx)
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ Failed to refresh cache: %v\n", err)
		return
	}

	colours.Success.Fprintf(sn.out, "✅ Cache refreshed! Found %d stories on Project Gutenberg\n", len(resources))
}

// ShowCacheStatus displays information about the Gutenberg cache
func (sn *StoryNest) ShowCacheStatus(cmd *cobra.Command, args []string) {
	colours.Title.Fprintln(sn.out, "📊 Gutenberg Cache Status")

	info := sn.cache.GetCacheInfo()
	if !info.Exists {
		colours.Warning.Fprintln(sn.out, "❌ Cache does not exist")
		colours.Info.Fprintln(sn.out, "💡 Run 'storybook gutenberg refresh' to create cache")
		return
	}

	colours.Success.Fprintln(sn.out, "✅ Cache exists")
	colours.Info.Fprintf(sn.out, "📁 Location: %s\n", info.Path)
	colours.Info.Fprintf(sn.out, "📏 Size: %d bytes\n", info.Size)
	colours.Info.Fprintf(sn.out, "🕐 Last modified: %s\n", info.LastModified.Format("2006-01-02 15:04:05"))
	if info.Fresh {
		colours.Success.Fprintln(sn.out, "🔄 Cache is fresh")
	} else {
		colours.Warning.Fprintln(sn.out, "⏰ Cache is stale")
	}
	colours.Info.Fprintf(sn.out, "⏳ Max age: %.1f hours\n", info.MaxAge.Hours())
}

// LoadGutenbergStory downloads one book, or the catalog when no id is
// given, so both are available offline.
func (sn *StoryNest) LoadGutenbergStory(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		resources, err := sn.gutenberg.ListOnlineResources(sn.ctx)
		if err != nil {
			colours.Error.Fprintf(sn.out, "❌ Failed to load Gutenberg library: %v\n", err)
			return
		}
		colours.Success.Fprintf(sn.out, "✨ Loaded %d stories from Project Gutenberg\n", len(resources))
		return
	}

	b, err := sn.findBook(args[0])
	if err != nil {
		colours.Error.Fprintf(sn.out, "❌ %v\n", err)
		return
	}
	colours.Success.Fprintf(sn.out, "✨ '%s' is ready to read offline, %d pages\n", b.Title, b.Len())
}

// AddCommands registers the storybook commands on root.
func (sn *StoryNest) AddCommands(rootCmd *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List available storybooks",
		Long:  "Display all storybooks from the built-in and local libraries",
		Run:   sn.ListStories,
	}
	listCmd.Flags().BoolP("online", "o", false, "Include the Project Gutenberg catalog")
	listCmd.Flags().StringP("language", "l", "", "Only show storybooks narrated in this language")

	randomCmd := &cobra.Command{
		Use:   "random",
		Short: "🎲 Read a random storybook",
		Long:  "Select and read a random storybook from the shelf",
		Run:   sn.ReadRandomStory,
	}

	readCmd := &cobra.Command{
		Use:   "read [book-id]",
		Short: "📖 Read a storybook",
		Long:  "Open a storybook and turn its pages while each page is read aloud",
		Args:  cobra.MaximumNArgs(1),
		Run:   sn.ReadStory,
	}

	for _, cmd := range []*cobra.Command{readCmd, randomCmd} {
		cmd.Flags().Bool("plain", false, "Use the line-mode pager instead of the full-screen one")
		cmd.Flags().IntP("page", "p", 0, "Page to open the storybook at, starting from 1")
		cmd.Flags().StringP("language", "l", "", "Narrate every page in this language")
		cmd.Flags().Float64P("rate", "r", 0, "Narration rate from 0 (slowest) to 1 (fastest)")
	}

	pagesCmd := &cobra.Command{
		Use:   "pages [book-id]",
		Short: "📄 Show the pages of a storybook",
		Args:  cobra.MaximumNArgs(1),
		Run:   sn.ShowPages,
	}

	librariesCmd := &cobra.Command{
		Use:   "libraries",
		Short: "🏛️ Show story libraries",
		Long:  "List the libraries storybooks are loaded from",
		Run:   sn.ManageLibraries,
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List narration voices",
		Run:   sn.ListVoices,
	}

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show TTS settings",
		Long:  "Show the engine, voice, language and rate used for narration",
		Run:   sn.ConfigureSettings,
	}
	settingsCmd.Flags().Bool("clear-speech-cache", false, "Remove cached synthesized speech")

	rootCmd.AddCommand(listCmd, randomCmd, readCmd, pagesCmd, librariesCmd, voicesCmd, settingsCmd)
	sn.addGutenbergCommands(rootCmd)
}

func (sn *StoryNest) addGutenbergCommands(rootCmd *cobra.Command) {
	gutenbergCmd := &cobra.Command{
		Use:   "gutenberg",
		Short: "📚 Manage Project Gutenberg stories",
		Long:  "Access and manage stories from Project Gutenberg's free digital library",
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "🔄 Refresh Gutenberg cache",
		Long:  "Download a fresh catalog from the Gutendex API",
		Run:   sn.RefreshGutenbergCache,
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache status",
		Long:  "Display information about the local Gutenberg cache",
		Run:   sn.ShowCacheStatus,
	}

	loadCmd := &cobra.Command{
		Use:   "load [book-id]",
		Short: "📖 Load Gutenberg stories",
		Long:  "Cache the catalog, or download one book for offline reading",
		Args:  cobra.MaximumNArgs(1),
		Run:   sn.LoadGutenbergStory,
	}

	gutenbergCmd.AddCommand(refreshCmd, statusCmd, loadCmd)
	rootCmd.AddCommand(gutenbergCmd)
}
