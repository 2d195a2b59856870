package tts

import (
	"fmt"
	"os"
	"runtime"
	"slices"

	"github.com/sirupsen/logrus"
)

type EngineType string

const (
	EngineTypeMock          EngineType = "mock"
	EngineTypeESpeak        EngineType = "espeak"
	EngineTypeSAPI          EngineType = "sapi"
	EngineTypeAVFoundation  EngineType = "avfoundation"
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeAuto          EngineType = "auto"
)

func (e EngineType) String() string {
	return string(e)
}

// EngineInfo describes one engine the factory can build.
type EngineInfo struct {
	Type        EngineType
	Description string
	// Platforms lists the GOOS values the engine runs on, empty for all.
	Platforms   []string

	build      func(Config) (Engine, error)
	needsCreds bool
}

// Available reports whether the engine can run on this machine.
func (i EngineInfo) Available() bool {
	if len(i.Platforms) > 0 && !slices.Contains(i.Platforms, runtime.GOOS) {
		return false
	}
	return !i.needsCreds || hasGoogleCredentials()
}

// engines is ordered by preference for auto selection.
var engines = []EngineInfo{
	{
		Type:        EngineTypeGoogleClassic,
		Description: "Google Cloud Text-to-Speech, cached MP3 playback",
		needsCreds:  true,
		build: func(c Config) (Engine, error) {
			e, err := newGoogleClassicTTSEngine(c)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
	},
	{
		Type:        EngineTypeSAPI,
		Description: "Windows System.Speech",
		Platforms:   []string{"windows"},
		build:       newSAPIEngine,
	},
	{
		Type:        EngineTypeAVFoundation,
		Description: "macOS say",
		Platforms:   []string{"darwin"},
		build:       newAVFoundationEngine,
	},
	{
		Type:        EngineTypeESpeak,
		Description: "espeak-ng or espeak",
		build: func(c Config) (Engine, error) {
			e, err := newESpeakEngine(c)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
	},
	{
		Type:        EngineTypeMock,
		Description: "silent, reads at 150 words per minute",
		build: func(c Config) (Engine, error) {
			return NewMockTTSEngine(c).WithSimulatedPlayback(150), nil
		},
	},
}

// NewEngine builds the engine named by config.Type. An empty type or
// "auto" picks the first engine available on this machine.
func NewEngine(config Config) (Engine, error) {
	t := EngineType(config.Type)
	if t == "" || t == EngineTypeAuto {
		t = getBestEngineForPlatform()
		logrus.WithField("engine", t).Debug("Selected TTS engine")
	}

	info, ok := LookupEngine(t)
	if !ok {
		return nil, fmt.Errorf("unsupported TTS engine type: %s", config.Type)
	}
	return info.build(config)
}

// LookupEngine returns the description of engine type t.
func LookupEngine(t EngineType) (EngineInfo, bool) {
	i := slices.IndexFunc(engines, func(e EngineInfo) bool { return e.Type == t })
	if i < 0 {
		return EngineInfo{}, false
	}
	return engines[i], true
}

func getBestEngineForPlatform() EngineType {
	for _, e := range engines {
		if e.Type != EngineTypeMock && e.Available() {
			return e.Type
		}
	}
	return EngineTypeESpeak
}

// GetAvailableEngines returns the engines that can run on this machine.
func GetAvailableEngines() []EngineType {
	var available []EngineType
	for _, e := range engines {
		if e.Available() {
			available = append(available, e.Type)
		}
	}
	return available
}

func hasGoogleCredentials() bool {
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}
