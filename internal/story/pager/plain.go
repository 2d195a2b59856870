package pager

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"storybook/internal/cli/scheme/colours"
	"storybook/internal/story/navigator"
)

// Plain reads navigation commands line by line and prints each page as it
// becomes current.
type Plain struct {
	nav      *navigator.Navigator
	controls Controls
	in       io.Reader
	out      io.Writer
	shown    int
}

func NewPlain(nav *navigator.Navigator, controls Controls, in io.Reader, out io.Writer) *Plain {
	return &Plain{
		nav:      nav,
		controls: controls,
		in:       in,
		out:      out,
		shown:    -1,
	}
}

// Run starts the book and reads commands until quit, end of input or ctx
// is done. Narration is stopped on return.
func (p *Plain) Run(ctx context.Context) error {
	cancel := p.nav.Subscribe(func(s navigator.State) {
		if !s.Transitioning && s.Current != p.shown {
			p.shown = s.Current
			p.render(s.Current)
		}
	})
	defer cancel()

	if err := p.nav.Start(); err != nil {
		return err
	}
	defer p.nav.Close()

	fmt.Fprintln(p.out, "💡 Press Enter for the next page, 'h' for help")

	scanner := bufio.NewScanner(p.in)
	p.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if quit := p.handle(strings.Fields(strings.ToLower(scanner.Text()))); quit {
			colours.Warning.Fprintln(p.out, "👋 Sweet dreams! 🌙")
			return nil
		}
		p.prompt()
	}
	return scanner.Err()
}

func (p *Plain) prompt() {
	colours.Prompt.Fprint(p.out, "\n📖 > ")
}

// handle runs one command and reports whether the reader asked to quit.
func (p *Plain) handle(fields []string) bool {
	cmd := ""
	if len(fields) > 0 {
		cmd = fields[0]
	}

	switch cmd {
	case "", "n", "next":
		p.swipe(navigator.Forward, fields)
	case "b", "back", "prev":
		p.swipe(navigator.Backward, fields)
	case "g", "go":
		p.jump(fields)
	case "p", "pause":
		p.togglePause()
	case "s", "stop":
		p.controls.Stop()
		colours.Warning.Fprintln(p.out, "⏹️  Stopped")
	case "r", "status":
		colours.Info.Fprintln(p.out, narrationStatus(p.controls))
	case "h", "help", "?":
		p.help()
	case "q", "quit", "exit":
		return true
	default:
		colours.Info.Fprintln(p.out, "ℹ️  Unknown command, 'h' lists them")
	}
	return false
}

// swipe performs a gesture. An optional second field is how far the page
// was dragged, from 0 to 1; a full swipe is assumed otherwise.
func (p *Plain) swipe(dir navigator.Direction, fields []string) {
	progress := 1.0
	if len(fields) > 1 {
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			colours.Error.Fprintf(p.out, "❌ Invalid swipe progress: %s\n", fields[1])
			return
		}
		progress = v
	}

	changed, err := p.nav.Swipe(dir, progress)
	switch {
	case errors.Is(err, navigator.ErrBoundary):
		// the book simply does not move past its covers
	case err != nil:
		logrus.WithError(err).Debug("Swipe rejected")
	case !changed:
		colours.Muted.Fprintln(p.out, "↩️  The page settles back")
	}
}

func (p *Plain) jump(fields []string) {
	if len(fields) < 2 {
		colours.Info.Fprintln(p.out, "ℹ️  Usage: g <page number>")
		return
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > p.nav.Len() {
		colours.Error.Fprintf(p.out, "❌ Choose a page between 1 and %d\n", p.nav.Len())
		return
	}
	if err := p.nav.Select(n - 1); err != nil {
		logrus.WithError(err).Debug("Page selection rejected")
	}
}

func (p *Plain) togglePause() {
	switch {
	case p.controls.IsPaused():
		p.controls.Resume()
		colours.Success.Fprintln(p.out, "▶️  Resumed")
	case p.controls.IsSpeaking():
		p.controls.Pause()
		colours.Warning.Fprintln(p.out, "⏸️  Paused")
	default:
		colours.Info.Fprintln(p.out, "ℹ️  Nothing is being read right now")
	}
}

func (p *Plain) render(i int) {
	page, ok := p.nav.Page(i)
	if !ok {
		return
	}

	fmt.Fprintln(p.out)
	colours.Title.Fprintf(p.out, "📄 %s\n", page.Title)
	if page.Caption != "" {
		colours.Caption.Fprintf(p.out, "   %s\n", page.Caption)
	}
	fmt.Fprintln(p.out)
	colours.Narration.Fprintln(p.out, page.NarrationText)
	fmt.Fprintln(p.out)
	colours.Muted.Fprintf(p.out, "%s   page %d of %d\n", indicator(i, p.nav.Len()), i+1, p.nav.Len())
}

func (p *Plain) help() {
	colours.Info.Fprintln(p.out, "📚 Commands:")
	fmt.Fprintln(p.out, "  Enter, n [amount]  - swipe to the next page (amount 0-1 for a partial swipe)")
	fmt.Fprintln(p.out, "  b [amount]         - swipe to the previous page")
	fmt.Fprintln(p.out, "  g <number>         - jump to a page")
	fmt.Fprintln(p.out, "  p                  - pause or resume reading")
	fmt.Fprintln(p.out, "  s                  - stop reading this page")
	fmt.Fprintln(p.out, "  r                  - show what the narrator is doing")
	fmt.Fprintln(p.out, "  q                  - close the book")
}
