package narration

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storybook/internal/story/tts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestManager(t *testing.T, voices ...tts.Voice) (*Manager, *tts.MockTTSEngine) {
	t.Helper()
	engine := tts.NewMockTTSEngine(tts.Config{})
	if len(voices) > 0 {
		engine.WithVoices(voices...)
	}
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(engine, WithLogger(logger)), engine
}

func TestSpeakSetsSpeakingImmediately(t *testing.T) {
	m, engine := newTestManager(t)

	m.Speak("Once upon a time")

	assert.True(t, m.IsSpeaking())
	spoken := engine.Spoken()
	require.Len(t, spoken, 1)
	assert.Equal(t, "Once upon a time", spoken[0].Text)
	assert.Equal(t, "en-US", spoken[0].Language)
	assert.Equal(t, "mock-en", spoken[0].Voice)
	assert.Equal(t, tts.DefaultRate, spoken[0].Rate)
}

func TestSpeakDefaults(t *testing.T) {
	m, engine := newTestManager(t)

	m.SpeakLanguage("Bonjour", "fr-FR")
	m.SpeakWith("Salut", "fr-FR", 0.7)

	spoken := engine.Spoken()
	require.Len(t, spoken, 2)
	assert.Equal(t, "fr-FR", spoken[0].Language)
	assert.Equal(t, tts.DefaultRate, spoken[0].Rate)
	assert.Equal(t, 0.7, spoken[1].Rate)
}

func TestCompletionClearsSpeaking(t *testing.T) {
	m, engine := newTestManager(t)

	m.Speak("Hello")
	require.True(t, engine.Complete(tts.Finished))

	assert.False(t, m.IsSpeaking())
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestFailedCompletionClearsSpeaking(t *testing.T) {
	m, engine := newTestManager(t)

	m.Speak("Hello")
	require.True(t, engine.Complete(tts.Failed))

	assert.False(t, m.IsSpeaking())
}

func TestStopIsSynchronousAndIdempotent(t *testing.T) {
	m, engine := newTestManager(t)

	m.Stop()
	assert.False(t, m.IsSpeaking())
	assert.Equal(t, 0, engine.Stops(), "stop without a session must not reach the engine")

	m.Speak("Hello")
	m.Stop()
	assert.False(t, m.IsSpeaking())
	assert.Equal(t, 1, engine.Stops())

	m.Stop()
	assert.Equal(t, 1, engine.Stops())
}

func TestSpeakCancelsPreviousSession(t *testing.T) {
	m, engine := newTestManager(t)

	m.Speak("first")
	first, ok := m.Current()
	require.True(t, ok)

	m.Speak("second")
	second, ok := m.Current()
	require.True(t, ok)

	assert.Equal(t, 1, engine.Stops())
	assert.Greater(t, second.Generation, first.Generation)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "second", second.Request.Text)
	assert.True(t, m.IsSpeaking())
}

func TestEmptyTextOnlyStops(t *testing.T) {
	for _, text := range []string{"", "   "} {
		m, engine := newTestManager(t)

		m.Speak("Hello")
		m.Speak(text)

		assert.False(t, m.IsSpeaking())
		assert.Len(t, engine.Spoken(), 1, "blank text must never reach the engine")
		assert.Equal(t, 1, engine.Stops())
	}
}

func TestStaleCompletionIsDiscarded(t *testing.T) {
	m, engine := newTestManager(t,
		tts.Voice{Name: "mock-en", Language: "en-US"},
		tts.Voice{Name: "mock-fr", Language: "fr-FR"},
	)

	m.Speak("Page two narration")
	stale := engine.TakeCallback()
	require.NotNil(t, stale)

	m.SpeakWith("Hello", "fr-FR", 0.5)
	require.True(t, m.IsSpeaking())

	// the engine reports the first utterance's end after the new call
	stale(tts.Cancelled)
	stale(tts.Finished)

	assert.True(t, m.IsSpeaking())
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "Hello", cur.Request.Text)

	require.True(t, engine.Complete(tts.Finished))
	assert.False(t, m.IsSpeaking())
}

func TestStaleCompletionAfterStop(t *testing.T) {
	m, engine := newTestManager(t)

	m.Speak("one")
	stale := engine.TakeCallback()
	m.Stop()
	m.Speak("two")

	stale(tts.Finished)
	assert.True(t, m.IsSpeaking())
}

func TestObserversNotifiedSynchronouslyOnTransitions(t *testing.T) {
	m, engine := newTestManager(t)

	var got []bool
	cancel := m.Subscribe(func(speaking bool) { got = append(got, speaking) })

	m.Speak("one")
	assert.Equal(t, []bool{true}, got)

	m.Speak("two")
	assert.Equal(t, []bool{true, false, true}, got)

	engine.Complete(tts.Finished)
	assert.Equal(t, []bool{true, false, true, false}, got)

	m.Stop()
	assert.Len(t, got, 4, "no transition, no notification")

	cancel()
	m.Speak("three")
	assert.Len(t, got, 4)
}

func TestObserversRunInSubscriptionOrder(t *testing.T) {
	m, _ := newTestManager(t)

	var order []string
	m.Subscribe(func(bool) { order = append(order, "a") })
	cancelB := m.Subscribe(func(bool) { order = append(order, "b") })
	m.Subscribe(func(bool) { order = append(order, "c") })
	cancelB()

	m.Speak("hi")
	assert.Equal(t, []string{"a", "c"}, order)
}

func TestUnsupportedLanguageFallsBackToDefaultVoice(t *testing.T) {
	m, engine := newTestManager(t, tts.Voice{Name: "mock-en", Language: "en-US"})

	m.SpeakWith("Bonjour", "fr-FR", 0.5)

	assert.True(t, m.IsSpeaking())
	spoken := engine.Spoken()
	require.Len(t, spoken, 1)
	assert.Empty(t, spoken[0].Language)
	assert.Empty(t, spoken[0].Voice)
}

func TestUnparseableLanguageFallsBack(t *testing.T) {
	m, engine := newTestManager(t)

	m.SpeakLanguage("Hello", "not a language!")

	spoken := engine.Spoken()
	require.Len(t, spoken, 1)
	assert.Empty(t, spoken[0].Language)
	assert.True(t, m.IsSpeaking())
}

func TestEngineWithoutVoicesGetsRequestedLanguage(t *testing.T) {
	m, engine := newTestManager(t)
	engine.WithVoices()

	m.SpeakLanguage("Hallo", "de-DE")

	spoken := engine.Spoken()
	require.Len(t, spoken, 1)
	assert.Equal(t, "de-DE", spoken[0].Language)
	assert.Empty(t, spoken[0].Voice)
}

func TestRateIsClamped(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want float64
	}{
		{"below range", -3, tts.MinRate},
		{"above range", 7, tts.MaxRate},
		{"in range", 0.25, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, engine := newTestManager(t)
			m.SpeakWith("text", "en-US", tt.rate)
			spoken := engine.Spoken()
			require.Len(t, spoken, 1)
			assert.Equal(t, tt.want, spoken[0].Rate)
		})
	}
}

type failingEngine struct {
	*tts.MockTTSEngine
}

func (failingEngine) Speak(tts.Utterance, func(tts.Outcome)) error {
	return errors.New("no audio device")
}

func TestEngineStartFailureIsSilent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := New(failingEngine{tts.NewMockTTSEngine(tts.Config{})}, WithLogger(logger))

	var got []bool
	m.Subscribe(func(speaking bool) { got = append(got, speaking) })

	m.Speak("Hello")

	assert.False(t, m.IsSpeaking())
	assert.Equal(t, []bool{true, false}, got)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestPauseResume(t *testing.T) {
	m, engine := newTestManager(t)

	m.Pause()
	assert.False(t, m.IsPaused(), "nothing to pause")

	m.Speak("Hello")
	m.Pause()
	assert.True(t, m.IsPaused())
	assert.True(t, engine.IsPaused())
	assert.True(t, m.IsSpeaking())

	m.Resume()
	assert.False(t, m.IsPaused())
	assert.False(t, engine.IsPaused())

	m.Pause()
	m.Stop()
	assert.False(t, m.IsPaused())
}

func TestSetDefaults(t *testing.T) {
	m, engine := newTestManager(t)

	m.SetDefaults("fr-FR", 0.8)
	m.Speak("Bonjour")

	spoken := engine.Spoken()
	require.Len(t, spoken, 1)
	assert.Equal(t, "fr-FR", spoken[0].Language)
	assert.Equal(t, 0.8, spoken[0].Rate)
}

func TestAtMostOneSessionUnderManyCalls(t *testing.T) {
	m, engine := newTestManager(t)

	texts := []string{"a", "b", "", "c", "d", "", "e"}
	for _, text := range texts {
		m.Speak(text)
	}

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "e", cur.Request.Text)
	assert.Len(t, engine.Spoken(), 5)
	// b, the first blank, d and the second blank each found a session to stop
	assert.Equal(t, 4, engine.Stops())
}

func TestSimulatedPlaybackFinishes(t *testing.T) {
	engine := tts.NewMockTTSEngine(tts.Config{}).WithSimulatedPlayback(600000)
	m := New(engine)

	done := make(chan struct{})
	m.Subscribe(func(speaking bool) {
		if !speaking {
			close(done)
		}
	})

	m.Speak("two words")
	<-done
	assert.False(t, m.IsSpeaking())
	require.NoError(t, m.Close())
}
