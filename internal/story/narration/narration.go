// Package narration turns page text into spoken audio through a single
// text-to-speech engine.
//
// A Manager owns one engine and at most one active session. Every Speak
// synchronously cancels the previous session before starting the next, and
// each session carries a generation number so that a completion reported
// late by the engine can never clear the flag of a newer session.
//
// Narration never fails loudly: unsupported languages fall back to the
// engine's default voice and engine errors only end the session.
package narration

import (
	"strings"
	"sync"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/text/language"

	"storybook/internal/story/tts"
)

// DefaultLanguage is used when a request names no language.
const DefaultLanguage = "en-US"

// Request is one immutable narration request.
type Request struct {
	Text     string
	Language string
	Rate     float64
}

// Session is the transient record of the utterance currently playing.
type Session struct {
	ID         string
	Generation uint64
	Request    Request
}

// Manager is the narration manager. The zero value is not usable; build one
// with New.
type Manager struct {
	engine tts.Engine
	log    logrus.FieldLogger

	// engineMu serialises calls into the engine so a stop can never
	// overtake the speak that preceded it.
	engineMu sync.Mutex

	// mu guards the session state and the observer list. Observers run
	// while it is held.
	mu        sync.Mutex
	session   *Session
	paused    bool
	observers []observer
	nextObs   int
	language  string
	rate      float64
	voices    *voiceIndex

	generation atomic.Uint64
	speaking   atomic.Bool
}

type observer struct {
	id int
	fn func(speaking bool)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for narration diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = log }
}

// WithDefaults sets the language and rate used when a call omits them.
func WithDefaults(lang string, rate float64) Option {
	return func(m *Manager) {
		if lang != "" {
			m.language = lang
		}
		m.rate = tts.ClampRate(rate)
	}
}

// New returns a Manager that narrates through engine.
func New(engine tts.Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:   engine,
		log:      logrus.StandardLogger(),
		language: DefaultLanguage,
		rate:     tts.DefaultRate,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Speak narrates text with the default language and rate.
func (m *Manager) Speak(text string) {
	m.mu.Lock()
	lang, rate := m.language, m.rate
	m.mu.Unlock()
	m.SpeakRequest(Request{Text: text, Language: lang, Rate: rate})
}

// SpeakLanguage narrates text in lang at the default rate.
func (m *Manager) SpeakLanguage(text, lang string) {
	m.mu.Lock()
	rate := m.rate
	m.mu.Unlock()
	m.SpeakRequest(Request{Text: text, Language: lang, Rate: rate})
}

// SpeakWith narrates text in lang at rate.
func (m *Manager) SpeakWith(text, lang string, rate float64) {
	m.SpeakRequest(Request{Text: text, Language: lang, Rate: rate})
}

// SpeakRequest stops any active session and, unless the text is blank,
// starts a new one. IsSpeaking is true as soon as the request is accepted.
func (m *Manager) SpeakRequest(req Request) {
	m.engineMu.Lock()
	defer m.engineMu.Unlock()

	m.stopLocked()

	if strings.TrimSpace(req.Text) == "" {
		return
	}

	m.mu.Lock()
	if req.Language == "" {
		req.Language = m.language
	}
	req.Rate = tts.ClampRate(req.Rate)
	lang, voice := m.resolveVoiceLocked(req.Language)

	gen := m.generation.Inc()
	sess := &Session{
		ID:         xid.New().String(),
		Generation: gen,
		Request:    req,
	}
	m.session = sess
	m.setSpeakingLocked(true)
	m.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{
		"session":    sess.ID,
		"generation": gen,
		"language":   req.Language,
	})
	if lang == "" {
		log.Debug("No voice for language, narrating with the default voice")
	}

	u := tts.Utterance{Text: req.Text, Language: lang, Voice: voice, Rate: req.Rate}
	if err := m.engine.Speak(u, func(o tts.Outcome) { m.complete(gen, o) }); err != nil {
		log.WithError(err).Warn("Narration could not start")
		m.complete(gen, tts.Failed)
		return
	}
	log.Debug("Narration started")
}

// Stop cancels the active session, if any. IsSpeaking is false on return.
func (m *Manager) Stop() {
	m.engineMu.Lock()
	defer m.engineMu.Unlock()
	m.stopLocked()
}

// stopLocked ends the current session. The caller holds engineMu.
func (m *Manager) stopLocked() {
	m.mu.Lock()
	sess := m.session
	m.session = nil
	m.paused = false
	if sess != nil {
		// any completion still in flight for sess is now stale
		m.generation.Inc()
	}
	m.setSpeakingLocked(false)
	m.mu.Unlock()

	if sess == nil {
		return
	}
	if err := m.engine.Stop(); err != nil {
		m.log.WithError(err).WithField("session", sess.ID).Warn("Engine failed to stop narration")
	}
}

// complete handles the engine's end-of-utterance signal for generation gen.
func (m *Manager) complete(gen uint64, o tts.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.session.Generation != gen {
		m.log.WithFields(logrus.Fields{
			"generation": gen,
			"outcome":    o.String(),
		}).Debug("Discarding stale narration completion")
		return
	}

	m.log.WithFields(logrus.Fields{
		"session": m.session.ID,
		"outcome": o.String(),
	}).Debug("Narration ended")
	m.session = nil
	m.paused = false
	m.setSpeakingLocked(false)
}

// Pause suspends the active session. IsSpeaking stays true.
func (m *Manager) Pause() {
	m.engineMu.Lock()
	defer m.engineMu.Unlock()

	m.mu.Lock()
	active := m.session != nil && !m.paused
	m.mu.Unlock()
	if !active {
		return
	}

	if err := m.engine.Pause(); err != nil {
		m.log.WithError(err).Debug("Engine cannot pause narration")
		return
	}
	m.mu.Lock()
	if m.session != nil {
		m.paused = true
	}
	m.mu.Unlock()
}

// Resume continues a paused session.
func (m *Manager) Resume() {
	m.engineMu.Lock()
	defer m.engineMu.Unlock()

	m.mu.Lock()
	paused := m.session != nil && m.paused
	m.mu.Unlock()
	if !paused {
		return
	}

	if err := m.engine.Resume(); err != nil {
		m.log.WithError(err).Debug("Engine cannot resume narration")
		return
	}
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
}

// IsSpeaking reports whether a session is active.
func (m *Manager) IsSpeaking() bool {
	return m.speaking.Load()
}

// IsPaused reports whether the active session is paused.
func (m *Manager) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Current returns a copy of the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// SetDefaults replaces the language and rate used when a call omits them.
func (m *Manager) SetDefaults(lang string, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lang != "" {
		m.language = lang
	}
	m.rate = tts.ClampRate(rate)
}

// Voices returns the voices the engine can narrate with.
func (m *Manager) Voices() ([]tts.Voice, error) {
	return m.engine.Voices()
}

// Close stops narration and releases the engine.
func (m *Manager) Close() error {
	m.Stop()
	return m.engine.Close()
}

// Subscribe registers fn to be called synchronously on every change of
// IsSpeaking. fn must not call back into the Manager's Speak, Stop, Pause
// or Resume. The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(speaking bool)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextObs++
	id := m.nextObs
	m.observers = append(m.observers, observer{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

// setSpeakingLocked updates the flag and notifies observers on change.
func (m *Manager) setSpeakingLocked(speaking bool) {
	if m.speaking.Swap(speaking) == speaking {
		return
	}
	for _, o := range m.observers {
		o.fn(speaking)
	}
}

// resolveVoiceLocked maps a requested tag to the language and voice handed
// to the engine. An empty language means the engine default voice.
func (m *Manager) resolveVoiceLocked(requested string) (lang, voice string) {
	if m.voices == nil {
		voices, err := m.engine.Voices()
		if err != nil {
			m.log.WithError(err).Debug("Engine voices unavailable")
		}
		m.voices = newVoiceIndex(voices)
	}

	tag, err := language.Parse(requested)
	if err != nil {
		m.log.WithField("language", requested).Debug("Unparseable narration language")
		return "", ""
	}
	return m.voices.match(tag)
}

// voiceIndex matches language tags against the engine's installed voices.
type voiceIndex struct {
	voices  []tts.Voice
	matcher language.Matcher
}

func newVoiceIndex(voices []tts.Voice) *voiceIndex {
	idx := &voiceIndex{}
	tags := make([]language.Tag, 0, len(voices))
	for _, v := range voices {
		tag, err := language.Parse(v.Language)
		if err != nil {
			continue
		}
		idx.voices = append(idx.voices, v)
		tags = append(tags, tag)
	}
	if len(tags) > 0 {
		idx.matcher = language.NewMatcher(tags)
	}
	return idx
}

// match returns the language and voice for tag. An engine that lists no
// voices gets the tag unchanged and chooses for itself.
func (idx *voiceIndex) match(tag language.Tag) (lang, voice string) {
	if idx.matcher == nil {
		return tag.String(), ""
	}
	_, i, conf := idx.matcher.Match(tag)
	if conf < language.High {
		return "", ""
	}
	v := idx.voices[i]
	return v.Language, v.Name
}
