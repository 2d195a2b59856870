package navigator

import (
	"sync"
	"time"

	"storybook/internal/domain/story"
)

// Speaker is the narration surface a page speaks through.
type Speaker interface {
	Narrator
	Speak(text string)
	SpeakLanguage(text, lang string)
	SpeakWith(text, lang string, rate float64)
}

// NarratedPage speaks its page's narration whenever it becomes current. A
// page with a narration delay waits before speaking and gives up if it is
// hidden first.
type NarratedPage struct {
	page    story.Page
	speaker Speaker

	mu      sync.Mutex
	visit   uint64
	current bool
	timer   *time.Timer
}

func NewNarratedPage(p story.Page, speaker Speaker) *NarratedPage {
	return &NarratedPage{page: p, speaker: speaker}
}

// Page returns the story page being narrated.
func (p *NarratedPage) Page() story.Page {
	return p.page
}

func (p *NarratedPage) BecameCurrent() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.visit++
	p.current = true
	if p.page.NarrationDelay <= 0 {
		p.narrateLocked()
		return
	}

	visit := p.visit
	p.timer = time.AfterFunc(p.page.NarrationDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.current || p.visit != visit {
			return
		}
		p.timer = nil
		p.narrateLocked()
	})
}

func (p *NarratedPage) BecameHidden() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.visit++
	p.current = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// narrateLocked speaks with the page's own language and rate, leaving the
// speaker's defaults in place for whatever the page does not set.
func (p *NarratedPage) narrateLocked() {
	text := p.page.NarrationText
	switch {
	case p.page.NarrationRate > 0:
		p.speaker.SpeakWith(text, p.page.NarrationLanguage, p.page.NarrationRate)
	case p.page.NarrationLanguage != "":
		p.speaker.SpeakLanguage(text, p.page.NarrationLanguage)
	default:
		p.speaker.Speak(text)
	}
}
