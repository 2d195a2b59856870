//go:build windows

package tts

import "fmt"

// pauseProcess has no SIGSTOP equivalent on Windows, so the eSpeak process
// is killed; a later Resume cannot bring it back.
func (e *ESpeakEngine) pauseProcess() error {
	if e.proc.cmd.Process != nil {
		e.proc.stopped = true
		return e.proc.cmd.Process.Kill()
	}
	return fmt.Errorf("no process to pause")
}

func (e *ESpeakEngine) resumeProcess() error {
	return fmt.Errorf("resume not supported on Windows - process was terminated")
}
