//go:build windows

package tts

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// SAPIEngine implements Windows SAPI TTS through PowerShell's System.Speech.
type SAPIEngine struct {
	config  Config
	cmd     *exec.Cmd
	stopped bool
	mutex   sync.RWMutex
}

// newSAPIEngine creates a new Windows SAPI TTS engine
func newSAPIEngine(config Config) (Engine, error) {
	if _, err := exec.LookPath("powershell"); err != nil {
		return nil, fmt.Errorf("powershell not found: %w", err)
	}
	return &SAPIEngine{config: config}, nil
}

// sapiScript builds the PowerShell program for one utterance. Text is passed
// as a single-quoted literal with embedded quotes doubled.
func (s *SAPIEngine) sapiScript(u Utterance) string {
	var b strings.Builder
	b.WriteString("Add-Type -AssemblyName System.Speech; ")
	b.WriteString("$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer; ")
	if u.Voice != "" {
		fmt.Fprintf(&b, "$synth.SelectVoice('%s'); ", psQuote(u.Voice))
	} else if u.Language != "" {
		fmt.Fprintf(&b, "try { $synth.SelectVoiceByHints('NotSet', 'NotSet', 0, [System.Globalization.CultureInfo]::new('%s')) } catch {}; ", psQuote(u.Language))
	}
	// SAPI rate runs -10..10 with 0 as the standard speed
	fmt.Fprintf(&b, "$synth.Rate = %d; ", int(speedFactor(u.Rate)*10)-10)
	fmt.Fprintf(&b, "$synth.Volume = %d; ", int(s.config.Volume*100))
	fmt.Fprintf(&b, "$synth.Speak('%s')", psQuote(u.Text))
	return b.String()
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func (s *SAPIEngine) Speak(u Utterance, done func(Outcome)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cmd != nil && !s.stopped {
		return fmt.Errorf("already playing")
	}

	cmd := exec.Command("powershell", "-NoProfile", "-Command", s.sapiScript(u))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start SAPI: %w", err)
	}
	s.cmd = cmd
	s.stopped = false

	go func() {
		err := cmd.Wait()

		s.mutex.Lock()
		stopped := s.cmd != cmd || s.stopped
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mutex.Unlock()

		switch {
		case stopped:
			done(Cancelled)
		case err != nil:
			logrus.WithError(err).Warn("SAPI exited with an error")
			done(Failed)
		default:
			done(Finished)
		}
	}()

	return nil
}

func (s *SAPIEngine) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cmd == nil || s.stopped {
		return nil
	}
	s.stopped = true
	return s.cmd.Process.Kill()
}

// Pause is not supported by the PowerShell bridge.
func (s *SAPIEngine) Pause() error {
	return fmt.Errorf("pause not supported by SAPI engine")
}

func (s *SAPIEngine) Resume() error {
	return fmt.Errorf("resume not supported by SAPI engine")
}

func (s *SAPIEngine) Voices() ([]Voice, error) {
	return []Voice{
		{Name: "Microsoft David Desktop", Language: "en-US", Gender: "male"},
		{Name: "Microsoft Zira Desktop", Language: "en-US", Gender: "female"},
		{Name: "Microsoft Hazel Desktop", Language: "en-GB", Gender: "female"},
	}, nil
}

func (s *SAPIEngine) Close() error {
	return s.Stop()
}
