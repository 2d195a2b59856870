//go:build !darwin && !windows

package tts

import "fmt"

func newAVFoundationEngine(Config) (Engine, error) {
	return nil, fmt.Errorf("AVFoundation engine only supports macOS")
}

func newSAPIEngine(Config) (Engine, error) {
	return nil, fmt.Errorf("SAPI engine only supports Windows")
}
