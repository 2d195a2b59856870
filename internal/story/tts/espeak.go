// Cross-platform eSpeak implementation
package tts

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// espeak's standard speed in words per minute
const espeakWPM = 175

// ESpeakEngine implements TTS using eSpeak/eSpeak-NG
type ESpeakEngine struct {
	config Config
	path   string
	proc   *espeakProcess
	paused bool
	mutex  sync.RWMutex
}

// espeakProcess is one running utterance.
type espeakProcess struct {
	cmd *exec.Cmd
	// stopped marks the process as killed on purpose
	stopped bool
}

// newESpeakEngine creates a new eSpeak TTS engine
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	engine := &ESpeakEngine{
		config: config,
		path:   espeakPath,
	}

	if err := engine.testInstallation(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return engine, nil
}

func findESpeakExecutable() (string, error) {
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

func (e *ESpeakEngine) testInstallation() error {
	return exec.Command(e.path, "--version").Run()
}

// espeakArgs builds the command line for one utterance.
func (e *ESpeakEngine) espeakArgs(u Utterance) []string {
	args := []string{}

	switch {
	case u.Voice != "":
		args = append(args, "-v", u.Voice)
	case u.Language != "":
		// eSpeak names its voices by lower-case language tag, e.g. fr-fr
		args = append(args, "-v", strings.ToLower(u.Language))
	case e.config.Voice != "" && e.config.Voice != "default":
		args = append(args, "-v", e.config.Voice)
	}

	speed := int(espeakWPM * speedFactor(u.Rate))
	args = append(args, "-s", strconv.Itoa(speed))

	// volume 0-200, eSpeak's default is 100
	if e.config.Volume > 0 {
		args = append(args, "-a", strconv.Itoa(int(100*e.config.Volume)))
	}

	// "--" keeps narration text starting with a dash from being read as a flag
	return append(args, "--", u.Text)
}

func (e *ESpeakEngine) Speak(u Utterance, done func(Outcome)) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.proc != nil && !e.proc.stopped {
		return fmt.Errorf("already playing")
	}

	cmd := exec.Command(e.path, e.espeakArgs(u)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start eSpeak: %w", err)
	}
	proc := &espeakProcess{cmd: cmd}
	e.proc = proc
	e.paused = false

	go func() {
		err := cmd.Wait()

		e.mutex.Lock()
		stopped := proc.stopped
		if e.proc == proc {
			e.proc = nil
			e.paused = false
		}
		e.mutex.Unlock()

		switch {
		case stopped:
			done(Cancelled)
		case err != nil:
			logrus.WithError(err).Warn("eSpeak exited with an error")
			done(Failed)
		default:
			done(Finished)
		}
	}()

	return nil
}

func (e *ESpeakEngine) Stop() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.proc == nil || e.proc.stopped {
		return nil
	}

	e.proc.stopped = true
	e.paused = false
	return e.proc.cmd.Process.Kill()
}

func (e *ESpeakEngine) Pause() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.paused || e.proc == nil || e.proc.stopped {
		return nil
	}

	if err := e.pauseProcess(); err != nil {
		return err
	}
	e.paused = true
	return nil
}

func (e *ESpeakEngine) Resume() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.paused || e.proc == nil {
		return nil
	}

	if err := e.resumeProcess(); err != nil {
		return err
	}
	e.paused = false
	return nil
}

func (e *ESpeakEngine) Voices() ([]Voice, error) {
	output, err := exec.Command(e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}

	return parseESpeakVoices(string(output)), nil
}

func (e *ESpeakEngine) Close() error {
	return e.Stop()
}

func parseESpeakVoices(output string) []Voice {
	lines := strings.Split(output, "\n")
	voices := make([]Voice, 0)

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Pty Language Age/Gender VoiceName File Other Languages
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			gender := ""
			if parts := strings.SplitN(fields[2], "/", 2); len(parts) == 2 {
				gender = parts[1]
			}
			// -v resolves the voice file or language, not the display name
			name := fields[1]
			if len(fields) >= 5 {
				name = fields[4]
			}
			voices = append(voices, Voice{
				Name:     name,
				Language: fields[1],
				Gender:   gender,
			})
		}
	}

	return voices
}
