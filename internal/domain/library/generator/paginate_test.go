package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateGroupsParagraphs(t *testing.T) {
	p := Paginator{PageRunes: 7}
	pages := p.Paginate("aaa\n\nbbb\n\nccc")

	require.Len(t, pages, 2)
	assert.Equal(t, "Page 1", pages[0].Title)
	assert.Equal(t, "aaa bbb", pages[0].NarrationText)
	assert.Equal(t, "ccc", pages[1].NarrationText)
}

func TestPaginateLongParagraphGetsOwnPage(t *testing.T) {
	long := strings.Repeat("x", 20)
	pages := Paginator{PageRunes: 5}.Paginate("ab\n\n" + long + "\n\ncd")

	require.Len(t, pages, 3)
	assert.Equal(t, long, pages[1].NarrationText)
}

func TestPaginateMaxPages(t *testing.T) {
	text := strings.Repeat("word\n\n", 10)

	pages := Paginator{PageRunes: 4, MaxPages: 3}.Paginate(text)
	assert.Len(t, pages, 3)

	pages = Paginator{PageRunes: 4}.Paginate(text)
	assert.Len(t, pages, 10)
}

func TestPaginateJoinsWrappedLines(t *testing.T) {
	pages := DefaultPaginator().Paginate("Once upon\r\na time\r\n\r\nThe end")
	require.Len(t, pages, 1)
	assert.Equal(t, "Once upon a time The end", pages[0].NarrationText)
}

func TestPaginateEmpty(t *testing.T) {
	assert.Empty(t, DefaultPaginator().Paginate(" \n\n \n"))
}

func TestStripGutenbergBoilerplate(t *testing.T) {
	stripped := StripGutenbergBoilerplate(aliceText)
	assert.NotContains(t, stripped, "START OF")
	assert.NotContains(t, stripped, "Licence")
	assert.Contains(t, stripped, "White Rabbit")

	assert.Equal(t, "plain text", StripGutenbergBoilerplate("plain text"))
}
