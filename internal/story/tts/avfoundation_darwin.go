//go:build darwin

package tts

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

// say's standard speed in words per minute
const sayWPM = 175

// AVFoundationEngine implements macOS TTS through the built-in 'say' command,
// which fronts AVSpeechSynthesizer voices.
type AVFoundationEngine struct {
	config  Config
	cmd     *exec.Cmd
	stopped bool
	paused  bool
	mutex   sync.RWMutex
}

// newAVFoundationEngine creates a new macOS AVFoundation TTS engine
func newAVFoundationEngine(config Config) (Engine, error) {
	if _, err := exec.LookPath("say"); err != nil {
		return nil, fmt.Errorf("say command not found: %w", err)
	}
	return &AVFoundationEngine{config: config}, nil
}

func (av *AVFoundationEngine) Speak(u Utterance, done func(Outcome)) error {
	av.mutex.Lock()
	defer av.mutex.Unlock()

	if av.cmd != nil && !av.stopped {
		return fmt.Errorf("already playing")
	}

	args := []string{}
	if voice := av.voiceFor(u); voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, "-r", fmt.Sprintf("%.0f", sayWPM*speedFactor(u.Rate)))
	args = append(args, "--", u.Text)

	cmd := exec.Command("say", args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start say: %w", err)
	}
	av.cmd = cmd
	av.stopped = false
	av.paused = false

	go func() {
		err := cmd.Wait()

		av.mutex.Lock()
		stopped := av.cmd != cmd || av.stopped
		if av.cmd == cmd {
			av.cmd = nil
		}
		av.mutex.Unlock()

		switch {
		case stopped:
			done(Cancelled)
		case err != nil:
			logrus.WithError(err).Warn("say exited with an error")
			done(Failed)
		default:
			done(Finished)
		}
	}()

	return nil
}

// voiceFor picks the configured voice or, failing that, the first installed
// voice for the utterance language. Empty means the system voice.
func (av *AVFoundationEngine) voiceFor(u Utterance) string {
	if u.Voice != "" {
		return u.Voice
	}
	if u.Language != "" {
		voices, err := av.Voices()
		if err == nil {
			for _, v := range voices {
				if strings.EqualFold(v.Language, u.Language) {
					return v.Name
				}
			}
		}
	}
	if av.config.Voice != "" && av.config.Voice != "default" {
		return av.config.Voice
	}
	return ""
}

func (av *AVFoundationEngine) Stop() error {
	av.mutex.Lock()
	defer av.mutex.Unlock()

	if av.cmd == nil || av.stopped {
		return nil
	}
	av.stopped = true
	av.paused = false
	return av.cmd.Process.Kill()
}

func (av *AVFoundationEngine) Pause() error {
	av.mutex.Lock()
	defer av.mutex.Unlock()

	if av.cmd == nil || av.stopped || av.paused {
		return nil
	}
	if err := av.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return err
	}
	av.paused = true
	return nil
}

func (av *AVFoundationEngine) Resume() error {
	av.mutex.Lock()
	defer av.mutex.Unlock()

	if av.cmd == nil || !av.paused {
		return nil
	}
	if err := av.cmd.Process.Signal(syscall.SIGCONT); err != nil {
		return err
	}
	av.paused = false
	return nil
}

func (av *AVFoundationEngine) Voices() ([]Voice, error) {
	output, err := exec.Command("say", "-v", "?").Output()
	if err != nil {
		return nil, err
	}
	return parseSayVoices(string(output)), nil
}

func (av *AVFoundationEngine) Close() error {
	return av.Stop()
}

// parseSayVoices reads lines shaped "Name    en_US    # sample sentence".
func parseSayVoices(output string) []Voice {
	voices := make([]Voice, 0)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{
			Name:     name,
			Language: strings.ReplaceAll(lang, "_", "-"),
		})
	}
	return voices
}
