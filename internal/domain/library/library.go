package library

import (
	"fmt"
	"sort"

	"storybook/internal/domain/story"
)

// StoryLibrary is a named collection of storybooks from one source.
type StoryLibrary struct {
	Name  string       `json:"name"`
	URL   string       `json:"url"`
	Books []story.Book `json:"books"`
}

// Shelf holds every library the application knows about.
type Shelf struct {
	libraries []StoryLibrary
}

// Add normalizes every book of lib and puts it on the shelf. Books that
// fail to normalize are reported and left out.
func (s *Shelf) Add(lib StoryLibrary) error {
	var bad error
	books := make([]story.Book, 0, len(lib.Books))
	for _, b := range lib.Books {
		if err := b.Normalize(); err != nil {
			if bad == nil {
				bad = fmt.Errorf("library %s: %w", lib.Name, err)
			}
			continue
		}
		books = append(books, b)
	}
	lib.Books = books
	s.libraries = append(s.libraries, lib)
	return bad
}

// Replace swaps the library with lib's name for lib, or adds it.
func (s *Shelf) Replace(lib StoryLibrary) error {
	kept := s.libraries[:0]
	for _, l := range s.libraries {
		if l.Name != lib.Name {
			kept = append(kept, l)
		}
	}
	s.libraries = kept
	return s.Add(lib)
}

// Libraries returns the libraries in the order they were added.
func (s *Shelf) Libraries() []StoryLibrary {
	return append([]StoryLibrary(nil), s.libraries...)
}

// Books returns every book on the shelf.
func (s *Shelf) Books() []story.Book {
	var all []story.Book
	for _, lib := range s.libraries {
		all = append(all, lib.Books...)
	}
	return all
}

// Find returns the first book with the given id.
func (s *Shelf) Find(id string) (story.Book, bool) {
	for _, lib := range s.libraries {
		for _, b := range lib.Books {
			if b.ID == id {
				return b, true
			}
		}
	}
	return story.Book{}, false
}

// IDs returns the sorted ids of every book.
func (s *Shelf) IDs() []string {
	var ids []string
	for _, b := range s.Books() {
		ids = append(ids, b.ID)
	}
	sort.Strings(ids)
	return ids
}
