package tts

import (
	"strings"
	"sync"
	"time"
)

// MockTTSEngine records utterances instead of producing audio. With a
// non-zero words-per-minute it completes each utterance after a simulated
// reading time; otherwise utterances stay open until Complete is called.
type MockTTSEngine struct {
	wpm    float64
	voices []Voice

	mutex   sync.Mutex
	spoken  []Utterance
	stops   int
	pending func(Outcome)
	timer   *time.Timer
	paused  bool
}

func NewMockTTSEngine(c Config) *MockTTSEngine {
	return &MockTTSEngine{
		voices: []Voice{
			{Name: "mock-en", Language: "en-US"},
			{Name: "mock-fr", Language: "fr-FR"},
		},
	}
}

// WithSimulatedPlayback makes utterances finish on their own after the time
// it takes to read them at wpm words per minute (at the standard rate).
func (m *MockTTSEngine) WithSimulatedPlayback(wpm float64) *MockTTSEngine {
	m.wpm = wpm
	return m
}

// WithVoices replaces the voices the engine reports as installed.
func (m *MockTTSEngine) WithVoices(voices ...Voice) *MockTTSEngine {
	m.voices = voices
	return m
}

func (m *MockTTSEngine) Speak(u Utterance, done func(Outcome)) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.spoken = append(m.spoken, u)
	m.pending = done
	m.paused = false

	if m.wpm > 0 {
		words := len(strings.Fields(u.Text))
		d := time.Duration(float64(words) / (m.wpm * speedFactor(u.Rate)) * float64(time.Minute))
		m.timer = time.AfterFunc(d, func() { m.Complete(Finished) })
	}
	return nil
}

// Complete ends the open utterance with the given outcome, as the engine's
// own playback thread would. It reports whether an utterance was open.
func (m *MockTTSEngine) Complete(o Outcome) bool {
	m.mutex.Lock()
	done := m.pending
	m.pending = nil
	m.mutex.Unlock()

	if done == nil {
		return false
	}
	done(o)
	return true
}

// TakeCallback detaches the completion callback of the open utterance so a
// test can deliver it later, out of order with newer calls.
func (m *MockTTSEngine) TakeCallback() func(Outcome) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	done := m.pending
	m.pending = nil
	return done
}

func (m *MockTTSEngine) Stop() error {
	m.mutex.Lock()
	m.stops++
	m.paused = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	done := m.pending
	m.pending = nil
	m.mutex.Unlock()

	if done != nil {
		done(Cancelled)
	}
	return nil
}

func (m *MockTTSEngine) Pause() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.pending != nil {
		m.paused = true
	}
	return nil
}

func (m *MockTTSEngine) Resume() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.paused = false
	return nil
}

func (m *MockTTSEngine) IsPaused() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.paused
}

func (m *MockTTSEngine) Voices() ([]Voice, error) {
	return append([]Voice(nil), m.voices...), nil
}

func (m *MockTTSEngine) Close() error {
	return m.Stop()
}

// Spoken returns every utterance handed to the engine, oldest first.
func (m *MockTTSEngine) Spoken() []Utterance {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]Utterance(nil), m.spoken...)
}

// Stops returns how many times Stop was called.
func (m *MockTTSEngine) Stops() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.stops
}
