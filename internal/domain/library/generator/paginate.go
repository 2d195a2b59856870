package generator

import (
	"fmt"
	"strings"

	"storybook/internal/domain/story"
)

// Paginator splits a long text into storybook pages of whole paragraphs.
type Paginator struct {
	// PageRunes is the soft size of a page; a single longer paragraph
	// still gets a page of its own.
	PageRunes int
	// MaxPages caps the book length; zero means no cap.
	MaxPages int
}

// DefaultPaginator fits a page to roughly half a minute of narration.
func DefaultPaginator() Paginator {
	return Paginator{PageRunes: 600, MaxPages: 60}
}

// Paginate groups the paragraphs of text into pages.
func (p Paginator) Paginate(text string) []story.Page {
	var pages []story.Page
	var cur []string
	size := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		pages = append(pages, story.Page{
			Title:         fmt.Sprintf("Page %d", len(pages)+1),
			NarrationText: strings.Join(cur, " "),
		})
		cur = nil
		size = 0
	}

	for _, para := range paragraphs(text) {
		n := len([]rune(para))
		if size > 0 && p.PageRunes > 0 && size+n > p.PageRunes {
			flush()
			if p.MaxPages > 0 && len(pages) >= p.MaxPages {
				return pages
			}
		}
		cur = append(cur, para)
		size += n
	}
	if p.MaxPages == 0 || len(pages) < p.MaxPages {
		flush()
	}
	return pages
}

// paragraphs splits on blank lines and joins wrapped lines.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		para := strings.Join(strings.Fields(block), " ")
		if para != "" {
			out = append(out, para)
		}
	}
	return out
}

// StripGutenbergBoilerplate drops the licence header and footer that
// surround every Project Gutenberg text.
func StripGutenbergBoilerplate(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start, end := 0, len(lines)
	for i, line := range lines {
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "*** START OF") {
			start = i + 1
		}
		if strings.HasPrefix(upper, "*** END OF") {
			end = i
			break
		}
	}
	if start > end {
		start = 0
	}
	return strings.Join(lines[start:end], "\n")
}
