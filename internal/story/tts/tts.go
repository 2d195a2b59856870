// internal/story/tts/tts.go
package tts

// Normalised speech-rate bounds shared by every engine. Engines map the
// value onto their native scale.
const (
	MinRate     = 0.0
	MaxRate     = 1.0
	DefaultRate = 0.5
)

type Config struct {
	Type      string
	Rate      float64
	Volume    float64
	Voice     string
	CachePath string
}

// Utterance is one unit of synthesized speech.
type Utterance struct {
	Text     string
	Language string // BCP-47 tag, empty selects the engine default
	Voice    string // engine voice name, empty selects by language
	Rate     float64
}

// Outcome is reported once per utterance when synthesis ends.
type Outcome int

const (
	Finished Outcome = iota
	Cancelled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Engine interface for text-to-speech functionality.
//
// Speak starts synthesis asynchronously and calls done exactly once when the
// utterance ends, from any goroutine. Stop interrupts the current utterance.
type Engine interface {
	Speak(u Utterance, done func(Outcome)) error
	Stop() error
	Pause() error
	Resume() error
	Voices() ([]Voice, error)
	Close() error
}

// CacheableEngine extends Engine with cache management capabilities
type CacheableEngine interface {
	Engine
	GetCacheStats() (map[string]interface{}, error)
	ClearCache() error
}

// Voice provides information about an installed voice
type Voice struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender,omitempty"`
}

// ClampRate bounds a normalised rate to [MinRate, MaxRate].
func ClampRate(rate float64) float64 {
	if rate < MinRate {
		return MinRate
	}
	if rate > MaxRate {
		return MaxRate
	}
	return rate
}

// speedFactor converts a normalised rate to a multiplier of the engine's
// standard speed, 0.5 being 1x. The floor keeps a zero rate audible.
func speedFactor(rate float64) float64 {
	f := ClampRate(rate) * 2
	if f < 0.1 {
		return 0.1
	}
	return f
}
