package story

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoPages is returned for a book without pages.
var ErrNoPages = errors.New("storybook has no pages")

// Page is one page of a storybook. Visual is opaque to everything but the
// pager that renders it.
type Page struct {
	Index             int           `json:"index" yaml:"-"`
	Title             string        `json:"title" yaml:"title"`
	Caption           string        `json:"caption,omitempty" yaml:"caption,omitempty"`
	NarrationText     string        `json:"narration" yaml:"narration"`
	NarrationLanguage string        `json:"language,omitempty" yaml:"language,omitempty"`
	NarrationRate     float64       `json:"rate,omitempty" yaml:"rate,omitempty"`
	NarrationDelay    time.Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
	Visual            string        `json:"visual,omitempty" yaml:"visual,omitempty"`
}

// Book is an ordered, immutable sequence of pages.
type Book struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Pages       []Page `json:"pages" yaml:"pages"`
}

// Normalize numbers the pages in story order and gives pages without their
// own language the book's. It fails for books without pages or id.
func (b *Book) Normalize() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("storybook %q has no id", b.Title)
	}
	if len(b.Pages) == 0 {
		return fmt.Errorf("%s: %w", b.ID, ErrNoPages)
	}
	for i := range b.Pages {
		p := &b.Pages[i]
		p.Index = i
		if p.NarrationLanguage == "" {
			p.NarrationLanguage = b.Language
		}
		if p.NarrationDelay < 0 {
			p.NarrationDelay = 0
		}
	}
	return nil
}

// Len returns the number of pages.
func (b *Book) Len() int {
	return len(b.Pages)
}

// Page returns the page at index i.
func (b *Book) Page(i int) (Page, bool) {
	if i < 0 || i >= len(b.Pages) {
		return Page{}, false
	}
	return b.Pages[i], true
}

// OnlineResource is a book that can be fetched from an online source and
// turned into a storybook.
type OnlineResource struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Author      string            `json:"author"`
	Description string            `json:"description"`
	Provider    string            `json:"provider"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	URL         string            `json:"url"`
}
