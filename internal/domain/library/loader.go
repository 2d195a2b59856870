package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"storybook/internal/domain/story"
)

// LoadBook reads one storybook from a YAML file.
func LoadBook(path string) (story.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return story.Book{}, fmt.Errorf("failed to read storybook: %w", err)
	}
	return ParseBook(data)
}

// ParseBook decodes a storybook from YAML and normalizes it.
func ParseBook(data []byte) (story.Book, error) {
	var b story.Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return story.Book{}, fmt.Errorf("failed to parse storybook: %w", err)
	}
	if err := b.Normalize(); err != nil {
		return story.Book{}, err
	}
	return b, nil
}

// LoadDir reads every *.yaml and *.yml storybook in dir into a library.
// Files that fail to load are logged and skipped.
func LoadDir(dir string) (StoryLibrary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return StoryLibrary{}, fmt.Errorf("failed to read storybook directory: %w", err)
	}

	lib := StoryLibrary{
		Name: "Local Storybooks",
		URL:  "file://" + dir,
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b, err := LoadBook(path)
		if err != nil {
			logrus.WithError(err).WithField("file", path).Warn("Skipping storybook")
			continue
		}
		lib.Books = append(lib.Books, b)
	}
	return lib, nil
}
