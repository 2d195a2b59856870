// Package pager hosts a story navigator in the terminal. The TUI pager
// turns key presses into swipe gestures; the plain pager reads the same
// gestures as line commands for terminals without a full-screen UI.
package pager

import (
	"fmt"
	"strings"
)

// Controls is the narration surface a pager exposes to the reader.
// *narration.Manager satisfies it.
type Controls interface {
	Pause()
	Resume()
	Stop()
	IsSpeaking() bool
	IsPaused() bool
	Subscribe(fn func(speaking bool)) (cancel func())
}

// maxDots is the longest book drawn as one dot per page.
const maxDots = 12

// indicator draws the page indicator, a dot per page with the current one
// filled, or a counter for long books.
func indicator(current, n int) string {
	if n > maxDots {
		return fmt.Sprintf("%d / %d", current+1, n)
	}
	dots := make([]string, n)
	for i := range dots {
		dots[i] = "○"
		if i == current {
			dots[i] = "●"
		}
	}
	return strings.Join(dots, " ")
}

// narrationStatus describes what the narrator is doing.
func narrationStatus(c Controls) string {
	switch {
	case c.IsPaused():
		return "⏸️  Paused"
	case c.IsSpeaking():
		return "🎵 Reading aloud"
	default:
		return "🤫 Quiet"
	}
}
